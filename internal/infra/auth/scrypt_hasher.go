// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"math"
	"strings"

	"accounts/config"
	"accounts/internal/domain/service"
	"accounts/internal/errors"

	"golang.org/x/crypto/scrypt"
)

const (
	// credentialSeparator splits the stored credential into salt and digest.
	credentialSeparator = "."

	DefaultSaltBytes = 8
	DefaultKeyLength = 32
	DefaultScryptN   = 1 << 14
	DefaultScryptR   = 8
	DefaultScryptP   = 1
)

var (
	// ErrInvalidScryptCost is returned when N is not a power of two greater than one.
	ErrInvalidScryptCost = errors.New("scrypt N must be a power of two greater than 1")
	// ErrScryptParamsTooLarge is returned when N, r and p exceed what scrypt accepts.
	ErrScryptParamsTooLarge = errors.New("scrypt parameters are too large")
	// ErrInvalidScryptParams is returned for negative sizes or factors.
	ErrInvalidScryptParams = errors.New("scrypt parameters must be positive")
)

// ScryptParams are the fixed key-derivation parameters. Every credential is
// verified with the same parameters it was created with.
type ScryptParams struct {
	SaltBytes int
	KeyLength int
	N         int
	R         int
	P         int
}

// scryptHasher is a concrete implementation of the PasswordHasher interface using scrypt.
type scryptHasher struct {
	params ScryptParams
}

// NewScryptHasher builds the hasher from the auth section of the config.
// It fails when the parameters would be rejected by scrypt.
func NewScryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	var params ScryptParams
	if cfg != nil && cfg.Auth != nil {
		params = ScryptParams{
			SaltBytes: cfg.Auth.SaltBytes,
			KeyLength: cfg.Auth.KeyLength,
			N:         cfg.Auth.ScryptN,
			R:         cfg.Auth.ScryptR,
			P:         cfg.Auth.ScryptP,
		}
	}

	return NewScryptHasherWithParams(params)
}

// NewScryptHasherWithParams returns a hasher using params, with zero fields set to the defaults.
func NewScryptHasherWithParams(params ScryptParams) (service.PasswordHasher, error) {
	if params.SaltBytes == 0 {
		params.SaltBytes = DefaultSaltBytes
	}
	if params.KeyLength == 0 {
		params.KeyLength = DefaultKeyLength
	}
	if params.N == 0 {
		params.N = DefaultScryptN
	}
	if params.R == 0 {
		params.R = DefaultScryptR
	}
	if params.P == 0 {
		params.P = DefaultScryptP
	}

	if err := params.validate(); err != nil {
		return nil, err
	}

	return &scryptHasher{params: params}, nil
}

// validate applies the limits scrypt.Key enforces on every call.
func (p ScryptParams) validate() error {
	if p.SaltBytes < 0 || p.KeyLength < 0 || p.R < 0 || p.P < 0 {
		return errors.WithStack(ErrInvalidScryptParams)
	}
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return errors.Wrapf(ErrInvalidScryptCost, "N=%d", p.N)
	}
	if uint64(p.R)*uint64(p.P) >= 1<<30 ||
		p.R > math.MaxInt/128/p.P ||
		p.R > math.MaxInt/256 ||
		p.N > math.MaxInt/128/p.R {
		return errors.Wrapf(ErrScryptParamsTooLarge, "N=%d r=%d p=%d", p.N, p.R, p.P)
	}

	return nil
}

// Hash returns "hex(salt).hex(digest)" for a freshly generated random salt.
func (h *scryptHasher) Hash(password string) (string, error) {
	saltBytes := make([]byte, h.params.SaltBytes)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}
	salt := hex.EncodeToString(saltBytes)

	digest, err := h.derive(password, salt)
	if err != nil {
		return "", err
	}

	return salt + credentialSeparator + hex.EncodeToString(digest), nil
}

// Check compares a plaintext password with a stored credential string.
func (h *scryptHasher) Check(password, credential string) bool {
	salt, storedHex, ok := splitCredential(credential)
	if !ok {
		return false
	}

	expected, err := hex.DecodeString(storedHex)
	if err != nil || len(expected) != h.params.KeyLength {
		return false
	}

	actual, err := h.derive(password, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// derive runs scrypt over the hex salt string as stored, so verification
// never depends on decoding the salt.
func (h *scryptHasher) derive(password, salt string) ([]byte, error) {
	digest, err := scrypt.Key([]byte(password), []byte(salt), h.params.N, h.params.R, h.params.P, h.params.KeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive password digest")
	}

	return digest, nil
}

// splitCredential requires exactly one separator with non-empty parts on both sides.
func splitCredential(credential string) (salt, digest string, ok bool) {
	if strings.Count(credential, credentialSeparator) != 1 {
		return "", "", false
	}

	salt, digest, _ = strings.Cut(credential, credentialSeparator)
	if salt == "" || digest == "" {
		return "", "", false
	}

	return salt, digest, true
}
