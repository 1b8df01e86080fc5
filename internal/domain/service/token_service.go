package service

import "errors"

var (
	// ErrInvalidSigningKey is a configuration defect detected when the token service is built.
	ErrInvalidSigningKey = errors.New("invalid token signing secret")
	// ErrSigningFailed reports a failure to sign a token.
	ErrSigningFailed = errors.New("token signing failed")
)

// TokenService mints signed, time-bounded identity tokens.
// It never verifies tokens; that is left to the services that consume them.
type TokenService interface {
	// Issue returns a signed token for subject that expires ttlMinutes from now.
	Issue(subject string, ttlMinutes int) (string, error)
}
