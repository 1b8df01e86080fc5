package throttle

import (
	"context"

	"credgate/internal/domain/service"
)

// Noop never locks anyone out. It is used when the throttle is disabled.
type Noop struct{}

var _ service.LoginThrottle = Noop{}

func (Noop) Acquire(context.Context, string) (service.LoginAttempt, error) {
	return service.LoginAttempt{Remaining: -1}, nil
}

func (Noop) Reset(context.Context, string) error { return nil }
