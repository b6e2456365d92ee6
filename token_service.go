package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiration is the session validity window.
const DefaultTokenExpiration = time.Hour

// TokenServiceImpl implements the TokenService interface with HS256 JWTs.
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration time.Duration
	logger          Logger
	now             func() time.Time
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption configures a TokenServiceImpl.
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenLogger sets the logger.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenClock overrides the clock used for issuing and validating.
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenService creates a new TokenService instance. An empty signing
// key is a configuration error.
func NewTokenService(signingKey []byte, tokenExpiration time.Duration, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	if len(strings.TrimSpace(string(signingKey))) == 0 {
		return nil, ErrMissingSigningKey
	}
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpiration
	}

	ts := &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		logger:          defLogger(),
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// NewTokenServiceFromConfig builds the token service from process configuration.
func NewTokenServiceFromConfig(cfg Config, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	return NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenExpiration(), opts...)
}

// Expiration returns the validity window of issued tokens.
func (ts *TokenServiceImpl) Expiration() time.Duration {
	return ts.tokenExpiration
}

// Issue signs a session token bound to accountID.
func (ts *TokenServiceImpl) Issue(accountID string) (*SessionToken, error) {
	if accountID == "" {
		return nil, WrapError(ErrInternal, errors.New("session subject must not be empty"))
	}

	claims := newSessionClaims(accountID, ts.now(), ts.tokenExpiration)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return nil, WrapError(ErrInternal, err)
	}

	return &SessionToken{
		Value:     signed,
		Subject:   accountID,
		ExpiresAt: claims.Expires(),
	}, nil
}

// Verify parses and validates a token string, returning the subject.
func (ts *TokenServiceImpl) Verify(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrTokenMalformed
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return "", classifyTokenError(err)
	}

	if claims.AccountID() == "" {
		return "", ErrTokenMissingSubject
	}

	return claims.AccountID(), nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return WrapError(ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return WrapError(ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return WrapError(ErrTokenExpired, err)
	default:
		return WrapError(ErrTokenMalformed, err)
	}
}
