// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"crypto/subtle"

	"github.com/alexedwards/argon2id"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"

	"credgate/config"
	"credgate/internal/domain/service"
)

// Default Argon2id cost, used for any parameter left at zero in config.
const (
	defaultTimeCost    uint32 = 2
	defaultMemoryKB    uint32 = 19 * 1024
	defaultParallelism uint8  = 1
	defaultSaltLength  uint32 = 16
	defaultKeyLength   uint32 = 32

	// maxMemoryKB rejects stored hashes that would ask for more than 4 GiB.
	maxMemoryKB uint32 = 4 * 1024 * 1024
)

// argon2Hasher is a concrete implementation of the PasswordHasher interface using Argon2id.
type argon2Hasher struct {
	params *argon2id.Params
	// slots bounds concurrent derivations; nil means unbounded.
	slots *semaphore.Weighted
}

// NewArgon2Hasher is the constructor for argon2Hasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewArgon2Hasher(cfg *config.Config) service.PasswordHasher {
	params := &argon2id.Params{
		Iterations:  defaultTimeCost,
		Memory:      defaultMemoryKB,
		Parallelism: defaultParallelism,
		SaltLength:  defaultSaltLength,
		KeyLength:   defaultKeyLength,
	}

	maxConcurrency := 0
	if pc := cfg.PasswordHash; pc != nil {
		if pc.TimeCost > 0 {
			params.Iterations = pc.TimeCost
		}
		if pc.MemoryKB > 0 {
			params.Memory = pc.MemoryKB
		}
		if pc.Parallelism > 0 {
			params.Parallelism = pc.Parallelism
		}
		if pc.SaltLength > 0 {
			params.SaltLength = pc.SaltLength
		}
		if pc.KeyLength > 0 {
			params.KeyLength = pc.KeyLength
		}
		maxConcurrency = pc.MaxConcurrency
	}

	return newArgon2Hasher(params, maxConcurrency)
}

func newArgon2Hasher(params *argon2id.Params, maxConcurrency int) *argon2Hasher {
	h := &argon2Hasher{params: params}
	if maxConcurrency > 0 {
		h.slots = semaphore.NewWeighted(int64(maxConcurrency))
	}

	return h
}

// Hash generates a salted hash in the PHC string format:
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<digest>
func (h *argon2Hasher) Hash(password string) (string, error) {
	release, err := h.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	encoded, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", errors.Wrap(service.ErrHashingFailed, err.Error())
	}

	return encoded, nil
}

// Verify recomputes the digest with the parameters and salt carried in encodedHash
// and compares it in constant time.
func (h *argon2Hasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, key, err := argon2id.DecodeHash(encodedHash)
	if err != nil {
		return false, errors.Wrap(service.ErrMalformedHash, err.Error())
	}

	if err := checkParams(params, salt, key); err != nil {
		return false, err
	}

	release, err := h.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	derived := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, derived) == 1, nil
}

// checkParams rejects decoded parameters argon2.IDKey cannot run with.
func checkParams(params *argon2id.Params, salt, key []byte) error {
	switch {
	case params.Iterations < 1:
		return errors.Wrap(service.ErrMalformedHash, "time cost must be at least 1")
	case params.Parallelism < 1:
		return errors.Wrap(service.ErrMalformedHash, "parallelism must be at least 1")
	case params.Memory < 1 || params.Memory > maxMemoryKB:
		return errors.Wrapf(service.ErrMalformedHash, "memory cost %d out of range", params.Memory)
	case len(salt) == 0:
		return errors.Wrap(service.ErrMalformedHash, "empty salt")
	case len(key) == 0:
		return errors.Wrap(service.ErrMalformedHash, "empty digest")
	}

	return nil
}

func (h *argon2Hasher) acquire() (func(), error) {
	if h.slots == nil {
		return func() {}, nil
	}

	if err := h.slots.Acquire(context.Background(), 1); err != nil {
		return nil, errors.Wrap(service.ErrHashingFailed, err.Error())
	}

	return func() { h.slots.Release(1) }, nil
}
