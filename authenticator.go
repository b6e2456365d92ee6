package auth

import (
	"context"
	"strings"
	"sync"
)

// timingPassword is hashed once per Auther to build the stand-in hash used
// when a login has no real hash to compare against.
const timingPassword = "dwsp-auth-timing-equalizer"

// Auther runs the local username/password flows.
type Auther struct {
	resolver     *AccountResolver
	hasher       PasswordHasher
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink

	timingOnce sync.Once
	timingHash string
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(resolver *AccountResolver, hasher PasswordHasher, tokenService TokenService) *Auther {
	return &Auther{
		resolver:     resolver,
		hasher:       hasher,
		tokenService: tokenService,
		logger:       defLogger(),
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService used to issue sessions.
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Resolver returns the account resolver.
func (s *Auther) Resolver() *AccountResolver {
	return s.resolver
}

// Login verifies a username and password and issues a session. Unknown
// usernames and wrong passwords fail with the same ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, username, password string) (*SessionToken, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrBadRequest
	}

	account, err := s.resolver.FindByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			s.equalizeTiming(ctx, password)
			s.loginFailed(ctx, nil, username, "unknown_username")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.HasPassword() {
		s.equalizeTiming(ctx, password)
		s.loginFailed(ctx, account, username, "no_password")
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.ComparePasswordAndHash(ctx, password, account.PasswordHash)
	if err != nil {
		s.logger.Error("Login password compare error", "account_id", account.ID, "error", err)
		s.loginFailed(ctx, account, username, "compare_error")
		return nil, WrapError(ErrInternal, err)
	}
	if !ok {
		s.loginFailed(ctx, account, username, "password_mismatch")
		return nil, ErrInvalidCredentials
	}

	session, err := s.tokenService.Issue(account.ID.String())
	if err != nil {
		s.logger.Error("Login token issue error", "account_id", account.ID, "error", err)
		return nil, err
	}

	s.logger.Info("account logged in", "username", account.Username, "account_id", account.ID)
	EmitActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     actorFromAccount(account),
		AccountID: account.ID.String(),
	})

	return session, nil
}

// Register creates a password account and issues a session for it.
func (s *Auther) Register(ctx context.Context, username, password string) (*SessionToken, *Account, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, nil, ErrBadRequest
	}

	_, err := s.resolver.FindByUsername(ctx, username)
	switch {
	case err == nil:
		s.registerFailed(ctx, username, ErrAccountExists)
		return nil, nil, ErrAccountExists
	case !IsNotFound(err):
		return nil, nil, err
	}

	hash, err := s.hasher.HashPassword(ctx, password)
	if err != nil {
		s.logger.Error("Register hash password error", "error", err)
		s.registerFailed(ctx, username, err)
		return nil, nil, WrapError(ErrInternal, err)
	}

	account, err := s.resolver.Create(ctx, NewAccount{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		s.registerFailed(ctx, username, err)
		if IsConflict(err) {
			return nil, nil, WrapError(ErrAccountExists, err)
		}
		return nil, nil, err
	}

	session, err := s.tokenService.Issue(account.ID.String())
	if err != nil {
		s.logger.Error("Register token issue error", "account_id", account.ID, "error", err)
		return nil, account, err
	}

	s.logger.Info("account registered", "username", account.Username, "account_id", account.ID)
	EmitActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		Actor:     actorFromAccount(account),
		AccountID: account.ID.String(),
	})

	return session, account, nil
}

func (s *Auther) loginFailed(ctx context.Context, account *Account, username, reason string) {
	s.logger.Warn("Login rejected", "username", username, "reason", reason)

	event := ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     actorFromAccount(account),
		Metadata: map[string]any{
			"identifier": username,
			"reason":     reason,
		},
	}
	if account != nil {
		event.AccountID = account.ID.String()
	}
	EmitActivity(ctx, s.activitySink, s.logger, event)
}

// equalizeTiming runs a compare the caller discards, so a login that has no
// hash to check costs the same as a wrong password.
func (s *Auther) equalizeTiming(ctx context.Context, password string) {
	s.timingOnce.Do(func() {
		hash, err := s.hasher.HashPassword(context.WithoutCancel(ctx), timingPassword)
		if err != nil {
			s.logger.Warn("Login timing hash error", "error", err)
			return
		}
		s.timingHash = hash
	})
	if s.timingHash == "" {
		return
	}
	_, _ = s.hasher.ComparePasswordAndHash(ctx, password, s.timingHash)
}

func (s *Auther) registerFailed(ctx context.Context, username string, err error) {
	EmitActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventRegisterFailure,
		Actor:     ActorRef{Type: "anonymous"},
		Metadata: map[string]any{
			"identifier": username,
			"category":   CategoryOf(err),
		},
	})
}
