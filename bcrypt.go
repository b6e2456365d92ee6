package auth

import (
	"context"
	"errors"
	"runtime"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MinPasswordCost is the bcrypt work factor floor.
const MinPasswordCost = 12

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("Data required", goerrors.CategoryBadInput).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// Hasher hashes passwords with bcrypt. Concurrent hashing is bounded so
// CPU bound work cannot starve the rest of the server.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

var _ PasswordHasher = (*Hasher)(nil)

// NewHasher returns a Hasher. Costs below the minimum work factor are
// raised to it and a non positive concurrency defaults to GOMAXPROCS.
func NewHasher(cost, concurrency int) *Hasher {
	if cost < passwordHashCost() {
		cost = passwordHashCost()
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

// NewHasherFromConfig builds a Hasher from process configuration.
func NewHasherFromConfig(cfg Config) *Hasher {
	return NewHasher(cfg.GetPasswordCost(), cfg.GetHashConcurrency())
}

// Cost returns the bcrypt work factor in use.
func (h *Hasher) Cost() int {
	return h.cost
}

// HashPassword will generate a password hash
func (h *Hasher) HashPassword(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the hashed password. A mismatch is reported as false with a
// nil error, a corrupt hash as an error.
func (h *Hasher) ComparePasswordAndHash(ctx context.Context, password, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
