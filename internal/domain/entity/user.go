// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. Email is the external identifier and is unique across accounts.
// Password never holds plaintext: it is the stored credential string "salt.hexDigest".
type User struct {
	ID        uuid.UUID `json:"id"`       // System identifier assigned by the store on create.
	Email     string    `json:"email"`    // Unique login identifier.
	Password  string    `json:"password"` // Credential string; stripped from responses by the serializer.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
