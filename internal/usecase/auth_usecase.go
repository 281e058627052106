// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"accounts/internal/domain/entity"
)

// SignupInput defines the data required to create an account.
type SignupInput struct {
	Email    string
	Password string
}

// SigninInput defines the data required to verify an account's credentials.
type SigninInput struct {
	Email    string
	Password string
}

// AuthUsecase owns account creation and credential verification.
// Both operations are independent request/response calls; no session state is kept.
type AuthUsecase interface {
	// Signup creates an account for an unused email, storing only the salted digest
	// of the password. Fails with ErrEmailInUse when the email is registered.
	Signup(ctx context.Context, input *SignupInput) (*entity.User, error)

	// Signin returns the account whose credential matches. Fails with ErrUserNotFound
	// for an unknown email and ErrInvalidCredentials for a wrong password or an
	// email resolving to more than one account.
	Signin(ctx context.Context, input *SigninInput) (*entity.User, error)
}
