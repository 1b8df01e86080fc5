// Package throttle implements service.LoginThrottle.
package throttle

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"credgate/internal/domain/service"
)

// Defaults follow a conventional five attempts per fifteen minutes with a ten minute lock.
const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
	defaultLockout     = 10 * time.Minute
	defaultKeyPrefix   = "credgate:login:"
)

// RedisOptions configures RedisThrottle. Zero fields take the defaults above.
type RedisOptions struct {
	KeyPrefix   string
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// RedisThrottle keeps one attempt counter and one lock key per throttled key.
// Both expire on their own, so an abandoned key needs no cleanup.
type RedisThrottle struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

var _ service.LoginThrottle = (*RedisThrottle)(nil)

// acquireScript counts one attempt unless the key is locked.
// The attempt that reaches the limit is still allowed and sets the lock for the ones after it.
// KEYS: counter, lock. ARGV: max attempts, window ms, lockout ms.
// Returns {remaining, lock ms}; lock ms is positive only for a refused attempt.
var acquireScript = redis.NewScript(`
local locked = redis.call("PTTL", KEYS[2])
if locked > 0 then
	return {0, locked}
end

local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end

local max = tonumber(ARGV[1])
if count >= max then
	redis.call("SET", KEYS[2], count, "PX", ARGV[3])
	redis.call("DEL", KEYS[1])
	return {0, 0}
end

return {max - count, 0}
`)

// NewRedisThrottle wraps a redis client.
func NewRedisThrottle(client redis.UniversalClient, opts RedisOptions) *RedisThrottle {
	t := &RedisThrottle{
		client:      client,
		prefix:      opts.KeyPrefix,
		maxAttempts: opts.MaxAttempts,
		window:      opts.Window,
		lockout:     opts.Lockout,
	}
	if t.prefix == "" {
		t.prefix = defaultKeyPrefix
	}
	if t.maxAttempts <= 0 {
		t.maxAttempts = defaultMaxAttempts
	}
	if t.window <= 0 {
		t.window = defaultWindow
	}
	if t.lockout <= 0 {
		t.lockout = defaultLockout
	}

	return t
}

func (t *RedisThrottle) attemptKey(key string) string { return t.prefix + "attempts:" + key }
func (t *RedisThrottle) lockKey(key string) string { return t.prefix + "lock:" + key }

// Acquire claims one attempt for key or reports the time left on its lock.
func (t *RedisThrottle) Acquire(ctx context.Context, key string) (service.LoginAttempt, error) {
	res, err := acquireScript.Run(ctx, t.client,
		[]string{t.attemptKey(key), t.lockKey(key)},
		t.maxAttempts, t.window.Milliseconds(), t.lockout.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return service.LoginAttempt{}, errors.Wrap(err, "redis acquire attempt")
	}
	if len(res) != 2 {
		return service.LoginAttempt{}, errors.Errorf("redis acquire attempt: unexpected reply %v", res)
	}

	return service.LoginAttempt{
		Remaining:  int(res[0]),
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
	}, nil
}

// Reset drops both the counter and any lock.
func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, t.attemptKey(key), t.lockKey(key)).Err(); err != nil {
		return errors.Wrap(err, "redis DEL")
	}

	return nil
}
