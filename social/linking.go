package social

import (
	"context"
	"fmt"
	"strings"

	auth "github.com/goliatone/go-auth-dwsp"
)

// LinkingStrategy maps a remote profile onto a local account.
type LinkingStrategy interface {
	ResolveAccount(ctx context.Context, profile *RemoteProfile) (*LinkingResult, error)
}

// LinkingResult contains the resolved account and metadata.
type LinkingResult struct {
	Account      *auth.Account
	IsNewAccount bool
}

// DefaultLinkingStrategy looks up the account linked to the remote identity
// and creates one on first login. The account uniqueness constraints settle
// concurrent first logins.
type DefaultLinkingStrategy struct {
	Resolver *auth.AccountResolver
	Logger   auth.Logger

	OnAccountCreated func(ctx context.Context, account *auth.Account, profile *RemoteProfile) error
}

// ResolveAccount implements LinkingStrategy.
func (s *DefaultLinkingStrategy) ResolveAccount(ctx context.Context, profile *RemoteProfile) (*LinkingResult, error) {
	if profile == nil || strings.TrimSpace(profile.ProviderUserID) == "" {
		return nil, ErrUserInfoFailed
	}
	if s.Resolver == nil {
		return nil, ErrProviderNotConfigured
	}

	existing, err := s.Resolver.FindByRemoteIdentity(ctx, profile.ProviderUserID)
	if err == nil {
		return &LinkingResult{Account: existing}, nil
	}
	if !auth.IsNotFound(err) {
		return nil, err
	}

	created, err := s.Resolver.Create(ctx, auth.NewAccount{
		Username:         usernameFor(profile),
		RemoteIdentityID: profile.ProviderUserID,
	})
	if err == nil {
		if s.OnAccountCreated != nil {
			if err := s.OnAccountCreated(ctx, created, profile); err != nil {
				return nil, err
			}
		}
		return &LinkingResult{Account: created, IsNewAccount: true}, nil
	}
	if !auth.IsConflict(err) {
		return nil, err
	}

	// A concurrent first login may have inserted the same remote identity.
	raced, rerr := s.Resolver.FindByRemoteIdentity(ctx, profile.ProviderUserID)
	if rerr == nil {
		s.logger().Info("remote identity linked by concurrent login",
			"account_id", raced.ID,
			"provider", profile.Provider,
		)
		return &LinkingResult{Account: raced}, nil
	}
	if !auth.IsNotFound(rerr) {
		return nil, rerr
	}

	return nil, auth.WrapError(ErrUsernameTaken, err).WithMetadata(map[string]any{
		"username": usernameFor(profile),
		"provider": profile.Provider,
	})
}

func (s *DefaultLinkingStrategy) logger() auth.Logger {
	if s.Logger == nil {
		return noopLogger{}
	}
	return s.Logger
}

// usernameFor picks the local username for a first-time provider login.
func usernameFor(profile *RemoteProfile) string {
	if name := strings.TrimSpace(profile.Username); name != "" {
		return name
	}
	return fmt.Sprintf("%s-%s", profile.Provider, profile.ProviderUserID)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
