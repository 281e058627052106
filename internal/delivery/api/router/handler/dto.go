package handler

import (
	"accounts/internal/delivery/api/serializer"
)

// UserDTO is the public view of an account. The credential is never part of it.
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

var userDescriptor = serializer.DescriptorOf[UserDTO]()

// CredentialsRequest is the body of signup and signin.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is the body of a partial account update.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=1"`
}
