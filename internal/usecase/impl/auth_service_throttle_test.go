package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"credgate/config"
	"credgate/internal/domain/entity"
	domainerrors "credgate/internal/domain/errors"
	"credgate/internal/domain/service"
	"credgate/internal/infra/auth"
	"credgate/internal/infra/persistence/memory"
	"credgate/internal/infra/throttle"
	mockSvc "credgate/internal/mocks/service"
	"credgate/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHasher counts how many password guesses reach the real hasher.
type countingHasher struct {
	service.PasswordHasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(password, encodedHash string) (bool, error) {
	h.verifies.Add(1)

	return h.PasswordHasher.Verify(password, encodedHash)
}

func TestAuthService_SignIn_ConcurrentGuessesStopAtLimit(t *testing.T) {
	const (
		maxAttempts = 3
		guesses     = 20
	)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{PasswordHash: &config.PasswordHashConfig{TimeCost: 1, MemoryKB: 1024, Parallelism: 1}}
	hasher := &countingHasher{PasswordHasher: auth.NewArgon2Hasher(cfg)}

	store := memory.NewStore()
	hash, err := hasher.Hash("right")
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), &entity.User{Username: "bob", PasswordHash: hash}))

	srv := newAuthService(AuthServiceParams{
		UserRepo:     store,
		Hasher:       hasher,
		TokenService: mockSvc.NewMockTokenService(t),
		Throttle: throttle.NewRedisThrottle(client, throttle.RedisOptions{
			MaxAttempts: maxAttempts,
			Window:      time.Minute,
			Lockout:     time.Minute,
		}),
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	errs := make([]error, guesses)
	var wg sync.WaitGroup
	for i := range guesses {
		wg.Go(func() {
			_, errs[i] = srv.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "wrong"})
		})
	}
	wg.Wait()

	var rejected, locked int
	for _, err := range errs {
		switch {
		case errors.Is(err, domainerrors.ErrTooManyAttempts):
			locked++
		case errors.Is(err, domainerrors.ErrInvalidCredentials):
			rejected++
		default:
			t.Fatalf("unexpected sign-in result: %v", err)
		}
	}

	assert.Equal(t, maxAttempts, rejected)
	assert.Equal(t, guesses-maxAttempts, locked)
	assert.EqualValues(t, maxAttempts, hasher.verifies.Load())

	// The right password is refused too while the lock holds.
	_, err = srv.SignIn(context.Background(), &usecase.SignInInput{Username: "bob", Password: "right"})
	assert.ErrorIs(t, err, domainerrors.ErrTooManyAttempts)
}
