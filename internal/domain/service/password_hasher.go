// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying key-derivation function, keeping the domain pure.
type PasswordHasher interface {
	// Hash generates the stored credential string "salt.hexDigest" from a plaintext password.
	Hash(password string) (string, error)

	// Check recomputes the digest of password with the credential's salt and compares
	// it in constant time. Malformed credentials never match.
	Check(password, credential string) bool
}
