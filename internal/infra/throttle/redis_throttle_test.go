package throttle

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"credgate/config"
)

func newTestThrottle(t *testing.T) (*RedisThrottle, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisThrottle(client, RedisOptions{
		KeyPrefix:   "test:",
		MaxAttempts: 3,
		Window:      time.Minute,
		Lockout:     5 * time.Minute,
	}), mr
}

func TestRedisThrottle_LocksWhenLimitReached(t *testing.T) {
	throttle, mr := newTestThrottle(t)
	ctx := context.Background()

	for _, want := range []int{2, 1, 0} {
		attempt, err := throttle.Acquire(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, attempt.Locked())
		assert.Equal(t, want, attempt.Remaining)
	}

	attempt, err := throttle.Acquire(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, attempt.Locked())
	assert.Equal(t, 5*time.Minute, attempt.RetryAfter)
	assert.False(t, mr.Exists("test:attempts:bob"))

	other, err := throttle.Acquire(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, other.Locked())
	assert.Equal(t, 2, other.Remaining)
}

func TestRedisThrottle_ConcurrentAcquireNeverExceedsLimit(t *testing.T) {
	throttle, _ := newTestThrottle(t)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			attempt, err := throttle.Acquire(context.Background(), "bob")
			if assert.NoError(t, err) && !attempt.Locked() {
				allowed.Add(1)
			}
		})
	}
	wg.Wait()

	assert.EqualValues(t, 3, allowed.Load())
}

func TestRedisThrottle_LockExpires(t *testing.T) {
	throttle, mr := newTestThrottle(t)
	ctx := context.Background()

	for range 3 {
		_, err := throttle.Acquire(ctx, "bob")
		require.NoError(t, err)
	}

	mr.FastForward(5*time.Minute + time.Second)

	attempt, err := throttle.Acquire(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, attempt.Locked())
	assert.Equal(t, 2, attempt.Remaining)
}

func TestRedisThrottle_WindowExpiresCounter(t *testing.T) {
	throttle, mr := newTestThrottle(t)
	ctx := context.Background()

	for range 2 {
		_, err := throttle.Acquire(ctx, "bob")
		require.NoError(t, err)
	}

	mr.FastForward(2 * time.Minute)

	attempt, err := throttle.Acquire(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, attempt.Remaining)
}

func TestRedisThrottle_Reset(t *testing.T) {
	throttle, _ := newTestThrottle(t)
	ctx := context.Background()

	for range 3 {
		_, err := throttle.Acquire(ctx, "bob")
		require.NoError(t, err)
	}

	require.NoError(t, throttle.Reset(ctx, "bob"))

	attempt, err := throttle.Acquire(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, attempt.Locked())
	assert.Equal(t, 2, attempt.Remaining)
}

func TestRedisThrottle_RedisDown(t *testing.T) {
	throttle, mr := newTestThrottle(t)
	mr.Close()

	_, err := throttle.Acquire(context.Background(), "bob")
	assert.Error(t, err)

	assert.Error(t, throttle.Reset(context.Background(), "bob"))
}

func TestNoop_NeverLocks(t *testing.T) {
	for range 10 {
		attempt, err := Noop{}.Acquire(context.Background(), "bob")
		require.NoError(t, err)
		assert.False(t, attempt.Locked())
		assert.Negative(t, attempt.Remaining)
	}
}

func TestNewRedisThrottle_Defaults(t *testing.T) {
	throttle := NewRedisThrottle(nil, RedisOptions{})

	assert.Equal(t, defaultKeyPrefix, throttle.prefix)
	assert.Equal(t, defaultMaxAttempts, throttle.maxAttempts)
	assert.Equal(t, defaultWindow, throttle.window)
	assert.Equal(t, defaultLockout, throttle.lockout)
}

func TestNew_Disabled(t *testing.T) {
	got, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    &config.Config{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, got)
}

func TestNew_EnabledConnectsOnStart(t *testing.T) {
	mr := miniredis.RunT(t)
	lc := fxtest.NewLifecycle(t)

	got, err := New(Params{
		Lifecycle: lc,
		Config: &config.Config{LoginThrottle: &config.LoginThrottleConfig{
			Enabled:  true,
			RedisURL: "redis://" + mr.Addr() + "/0",
		}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	require.IsType(t, &RedisThrottle{}, got)

	lc.RequireStart()
	defer lc.RequireStop()

	_, err = got.Acquire(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, mr.Exists(defaultKeyPrefix+"attempts:bob"))
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config: &config.Config{LoginThrottle: &config.LoginThrottleConfig{
			Enabled:  true,
			RedisURL: "http://not-redis",
		}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.Error(t, err)
}
