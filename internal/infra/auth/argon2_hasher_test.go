package auth

import (
	"strings"
	"sync"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credgate/config"
	"credgate/internal/domain/service"
)

func lowCostHasher(maxConcurrency int) *argon2Hasher {
	return newArgon2Hasher(&argon2id.Params{
		Iterations:  1,
		Memory:      64,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}, maxConcurrency)
}

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	hasher := lowCostHasher(0)

	hash, err := hasher.Hash("Secret123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"))

	ok, err := hasher.Verify("Secret123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("secret123", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_FreshSaltPerCall(t *testing.T) {
	hasher := lowCostHasher(0)

	first, err := hasher.Hash("same password")
	require.NoError(t, err)
	second, err := hasher.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, hash := range []string{first, second} {
		ok, err := hasher.Verify("same password", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestArgon2Hasher_EmptyPassword(t *testing.T) {
	hasher := lowCostHasher(0)

	hash, err := hasher.Hash("")
	require.NoError(t, err)

	ok, err := hasher.Verify("", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify(" ", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_VerifiesHashesFromOtherParameters(t *testing.T) {
	older := lowCostHasher(0)
	newer := newArgon2Hasher(&argon2id.Params{
		Iterations:  2,
		Memory:      128,
		Parallelism: 2,
		SaltLength:  24,
		KeyLength:   48,
	}, 0)

	oldHash, err := older.Hash("rotate-me")
	require.NoError(t, err)
	newHash, err := newer.Hash("rotate-me")
	require.NoError(t, err)
	assert.Contains(t, newHash, "m=128,t=2,p=2")

	ok, err := newer.Verify("rotate-me", oldHash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = older.Verify("rotate-me", newHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2Hasher_MalformedHash(t *testing.T) {
	hasher := lowCostHasher(0)

	valid, err := hasher.Hash("Secret123")
	require.NoError(t, err)

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "garbage", hash: "not-a-hash"},
		{name: "bcrypt", hash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{name: "wrong variant", hash: strings.Replace(valid, "$argon2id$", "$argon2i$", 1)},
		{name: "wrong version", hash: strings.Replace(valid, "$v=19$", "$v=16$", 1)},
		{name: "zero parallelism", hash: strings.Replace(valid, ",p=1$", ",p=0$", 1)},
		{name: "zero time cost", hash: strings.Replace(valid, ",t=1,", ",t=0,", 1)},
		{name: "bad salt encoding", hash: strings.Replace(valid, "$argon2id$v=19$m=64,t=1,p=1$", "$argon2id$v=19$m=64,t=1,p=1$!!!", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("Secret123", tt.hash)
			assert.False(t, ok)
			assert.ErrorIs(t, err, service.ErrMalformedHash)
		})
	}
}

func TestArgon2Hasher_BoundedConcurrency(t *testing.T) {
	hasher := lowCostHasher(1)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hash, err := hasher.Hash("parallel")
			if err != nil {
				errs <- err

				return
			}
			if _, err := hasher.Verify("parallel", hash); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestNewArgon2Hasher_Defaults(t *testing.T) {
	hasher, ok := NewArgon2Hasher(&config.Config{}).(*argon2Hasher)
	require.True(t, ok)

	assert.Equal(t, defaultTimeCost, hasher.params.Iterations)
	assert.Equal(t, defaultMemoryKB, hasher.params.Memory)
	assert.Equal(t, defaultParallelism, hasher.params.Parallelism)
	assert.Nil(t, hasher.slots)

	hasher, ok = NewArgon2Hasher(&config.Config{
		PasswordHash: &config.PasswordHashConfig{TimeCost: 3, MaxConcurrency: 4},
	}).(*argon2Hasher)
	require.True(t, ok)
	assert.Equal(t, uint32(3), hasher.params.Iterations)
	assert.Equal(t, defaultMemoryKB, hasher.params.Memory)
	assert.NotNil(t, hasher.slots)
}
