package auth

import (
	"context"
	"log/slog"
	"time"
)

// Logger is the structured logger used across the package. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the process wide auth options. It is read once at startup.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetCookieName() string
	GetCookieDomain() string
	GetCookieDuration() time.Duration
	GetCookieSecure() bool
	GetPasswordCost() int
	GetHashConcurrency() int
}

// PasswordHasher hashes and verifies local passwords.
type PasswordHasher interface {
	HashPassword(ctx context.Context, password string) (string, error)
	// ComparePasswordAndHash returns true only once the comparison has
	// completed and the password matches.
	ComparePasswordAndHash(ctx context.Context, password, hash string) (bool, error)
}

// TokenService mints and validates session credentials.
type TokenService interface {
	Issue(accountID string) (*SessionToken, error)
	// Verify returns the token subject or one of ErrTokenMalformed,
	// ErrTokenExpired, ErrTokenBadSignature, ErrTokenMissingSubject.
	Verify(token string) (string, error)
}

// AccountStore is the persistence collaborator used by AccountResolver.
// Lookups return ErrAccountNotFound when nothing matches. Insert must
// enforce uniqueness of id, username and remote identity and report
// violations as ErrAccountConflict.
type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByRemoteIdentity(ctx context.Context, remoteIdentityID string) (*Account, error)
	Insert(ctx context.Context, account *Account) error
}

func defLogger() Logger {
	return slog.Default().With("logger", "auth")
}
