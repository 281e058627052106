// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Signup hashes the password, then checks the email and creates the account in one transaction.
// The store's unique index backs the check, so a concurrent signup that slips
// past Find still ends in ErrEmailInUse.
func (srv *authService) Signup(ctx context.Context, input *usecase.SignupInput) (*entity.User, error) {
	srv.log(ctx).Debug("Starting signup", slog.String("email", input.Email))

	credential, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during signup")
	}

	var created, existingUser *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		existing, err := userRepo.Find(ctx, input.Email)
		if err != nil {
			return errors.Wrap(err, "failed to look up email")
		}
		if len(existing) > 0 {
			existingUser = existing[0]

			return domainerrors.ErrEmailInUse.WrapMessage("signup failed")
		}

		user, err := userRepo.Create(ctx, input.Email, credential)
		if err != nil {
			return errors.Wrap(err, "failed to create user during signup")
		}
		created = user

		return nil
	})

	if err != nil {
		if errors.Is(err, domainerrors.ErrEmailInUse) {
			var attrs []any
			if existingUser != nil {
				attrs = append(attrs, slog.String("existingUserID", existingUser.ID.String()))
			}
			srv.log(ctx).Warn("Signup rejected, email in use", attrs...)
		} else {
			srv.log(ctx).Error("Failed to execute signup transaction", slog.Any("error", err))
		}

		return nil, errors.Wrap(err, "failed to execute signup transaction")
	}

	srv.log(ctx).Info("Inserted user", slog.String("userID", created.ID.String()))

	return created, nil
}

// Signin resolves the email to exactly one account and verifies the password against it.
func (srv *authService) Signin(ctx context.Context, input *usecase.SigninInput) (*entity.User, error) {
	srv.log(ctx).Debug("Starting signin", slog.String("email", input.Email))

	users, err := srv.userRepo.Find(ctx, input.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user during signin")
	}

	switch len(users) {
	case 0:
		return nil, domainerrors.ErrUserNotFound.WrapMessage("signin failed")
	case 1:
	default:
		// The unique index should make this unreachable.
		userIDs := make([]string, 0, len(users))
		for _, user := range users {
			userIDs = append(userIDs, user.ID.String())
		}
		srv.log(ctx).Warn("Email resolves to multiple accounts",
			slog.Any("userIDs", userIDs),
			slog.Int("matches", len(users)),
		)

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("signin failed")
	}

	user := users[0]
	if !srv.hasher.Check(input.Password, user.Password) {
		srv.log(ctx).Warn("Signin failed, bad password", slog.String("userID", user.ID.String()))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("signin failed")
	}

	srv.log(ctx).Debug("User signed in", slog.String("userID", user.ID.String()))

	return user, nil
}
