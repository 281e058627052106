package usecase

import (
	"context"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateUserInput carries the attributes to change. Nil fields are left untouched.
type UpdateUserInput struct {
	Email    *string
	Password *string
}

// UserUsecase defines account administration operations.
type UserUsecase interface {
	FindUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindUsers(ctx context.Context, email string) ([]*entity.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input *UpdateUserInput) (*entity.User, error)
	RemoveUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
