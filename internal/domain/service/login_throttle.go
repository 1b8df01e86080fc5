package service

import (
	"context"
	"time"
)

// LoginAttempt is the result of claiming one sign-in attempt.
type LoginAttempt struct {
	// Remaining is how many attempts are left after this one. Negative means unlimited.
	Remaining int
	// RetryAfter is positive when the key is locked and the attempt was refused.
	RetryAfter time.Duration
}

// Locked reports whether the attempt was refused.
func (a LoginAttempt) Locked() bool {
	return a.RetryAfter > 0
}

// LoginThrottle limits sign-in attempts per key and locks a key out after too many.
type LoginThrottle interface {
	// Acquire counts one attempt for key before the credentials are checked.
	// Counting and the lock check happen in one step, so concurrent attempts never exceed the limit.
	Acquire(ctx context.Context, key string) (LoginAttempt, error)

	// Reset clears the attempt history and any lock for key.
	Reset(ctx context.Context, key string) error
}
