// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "errors"

var (
	// ErrHashingFailed reports a randomness or encoding failure while hashing.
	ErrHashingFailed = errors.New("password hashing failed")
	// ErrMalformedHash reports a stored hash that cannot be parsed or uses an unsupported algorithm.
	// It is an integrity fault in the store, never a wrong-password outcome.
	ErrMalformedHash = errors.New("malformed password hash")
)

// PasswordHasher defines the interface for password hashing and verification.
// Hashes are self-describing: algorithm, parameters and salt travel inside the encoded string.
type PasswordHasher interface {
	// Hash derives a salted, encoded hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify reports whether password matches encodedHash.
	// A mismatch returns (false, nil); a malformed encodedHash returns an error wrapping ErrMalformedHash.
	Verify(password, encodedHash string) (bool, error)
}
