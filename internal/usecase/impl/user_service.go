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

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// FindUser returns the user with the given ID.
func (srv *userService) FindUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapUserNotFound(err, "failed to find user")
	}

	return user, nil
}

// FindUsers returns all users registered under email.
func (srv *userService) FindUsers(ctx context.Context, email string) ([]*entity.User, error) {
	users, err := srv.userRepo.Find(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find users")
	}

	return users, nil
}

// UpdateUser changes the email and/or password of an existing user.
// A new password goes through the hasher like a signup does.
func (srv *userService) UpdateUser(ctx context.Context, id uuid.UUID, input *usecase.UpdateUserInput) (*entity.User, error) {
	var credential string
	if input.Password != nil {
		hashed, err := srv.hasher.Hash(*input.Password)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash password during update")
		}
		credential = hashed
	}

	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, id)
		if err != nil {
			return mapUserNotFound(err, "failed to load user for update")
		}

		if input.Email != nil && *input.Email != user.Email {
			existing, err := userRepo.Find(ctx, *input.Email)
			if err != nil {
				return errors.Wrap(err, "failed to look up email")
			}
			if len(existing) > 0 {
				return domainerrors.ErrEmailInUse.WrapMessage("update failed")
			}
			user.Email = *input.Email
		}
		if input.Password != nil {
			user.Password = credential
		}

		if err := userRepo.Update(ctx, user); err != nil {
			return mapUserNotFound(err, "failed to update user")
		}
		updated = user

		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to execute update user transaction")
	}

	srv.log(ctx).Info("Updated user", slog.String("userID", updated.ID.String()))

	return updated, nil
}

// RemoveUser deletes the user and returns the record as it was before removal.
func (srv *userService) RemoveUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var removed *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, id)
		if err != nil {
			return mapUserNotFound(err, "failed to load user for removal")
		}

		if err := userRepo.Remove(ctx, id); err != nil {
			return mapUserNotFound(err, "failed to remove user")
		}
		removed = user

		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to execute remove user transaction")
	}

	srv.log(ctx).Info("Removed user", slog.String("userID", removed.ID.String()))

	return removed, nil
}

// mapUserNotFound turns the repository sentinel into the domain error the API maps to 404.
func mapUserNotFound(err error, message string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return domainerrors.ErrUserNotFound.WrapMessage(message)
	}

	return errors.Wrap(err, message)
}
