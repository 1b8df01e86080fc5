// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account as kept by the user store.
type User struct {
	ID           uuid.UUID // Store-assigned identifier, opaque to the auth pipeline.
	Username     string    // Unique login name.
	PasswordHash string    // Self-describing Argon2id PHC string, never plaintext.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
