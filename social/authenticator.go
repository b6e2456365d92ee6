package social

import (
	"context"
	"strings"

	auth "github.com/goliatone/go-auth-dwsp"
)

// Authenticator orchestrates the delegated login flow.
type Authenticator struct {
	provider        Provider
	linkingStrategy LinkingStrategy
	tokenService    auth.TokenService
	activitySink    auth.ActivitySink
	logger          auth.Logger
}

// AuthenticatorOption configures the authenticator.
type AuthenticatorOption func(*Authenticator)

// NewAuthenticator creates a new delegated login authenticator.
func NewAuthenticator(
	provider Provider,
	resolver *auth.AccountResolver,
	tokenService auth.TokenService,
	opts ...AuthenticatorOption,
) *Authenticator {
	a := &Authenticator{
		provider:     provider,
		tokenService: tokenService,
		logger:       noopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.linkingStrategy == nil {
		a.linkingStrategy = &DefaultLinkingStrategy{
			Resolver: resolver,
			Logger:   a.logger,
		}
	}

	return a
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithLinkingStrategy sets a custom account linking strategy.
func WithLinkingStrategy(ls LinkingStrategy) AuthenticatorOption {
	return func(a *Authenticator) {
		a.linkingStrategy = ls
	}
}

// WithActivitySink sets the activity sink for audit logging.
func WithActivitySink(sink auth.ActivitySink) AuthenticatorOption {
	return func(a *Authenticator) {
		a.activitySink = sink
	}
}

// Provider returns the configured provider.
func (a *Authenticator) Provider() Provider {
	return a.provider
}

// AuthResult contains the result of a successful delegated login.
type AuthResult struct {
	Account      *auth.Account
	Session      *auth.SessionToken
	IsNewAccount bool
	Provider     string
	Profile      *RemoteProfile
	Flow         []FlowState
}

// CompleteAuth exchanges code with the provider, resolves or creates the
// local account and issues a session. Provider calls are not retried and a
// created account is kept even if the caller goes away afterwards.
func (a *Authenticator) CompleteAuth(ctx context.Context, code string) (*AuthResult, error) {
	if a.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	providerName := a.provider.Name()
	flow := newFlowTracker(a.logger, providerName)

	if strings.TrimSpace(code) == "" {
		return nil, a.failed(ctx, flow, ErrCodeRequired)
	}

	flow.enter(ctx, StateExchangingToken)
	token, err := a.provider.Exchange(ctx, code)
	if err != nil {
		return nil, a.failed(ctx, flow, wrapProviderError(ErrTokenExchangeFailed, providerName, "exchange", err))
	}

	flow.enter(ctx, StateFetchingProfile)
	profile, err := a.provider.UserInfo(ctx, token)
	if err != nil {
		base := ErrUserInfoFailed
		if ProviderErrorCode(err) == CodeMissingUserID {
			base = ErrProviderBadData
		}
		return nil, a.failed(ctx, flow, wrapProviderError(base, providerName, "user_info", err))
	}
	if profile.Provider == "" {
		profile.Provider = providerName
	}

	flow.enter(ctx, StateResolvingAccount)
	result, err := a.linkingStrategy.ResolveAccount(ctx, profile)
	if err != nil {
		return nil, a.failed(ctx, flow, err)
	}
	if result.IsNewAccount {
		flow.enter(ctx, StateCreatingNew)
	} else {
		flow.enter(ctx, StateLinkingExisting)
	}

	flow.enter(ctx, StateIssuingSession)
	session, err := a.tokenService.Issue(result.Account.ID.String())
	if err != nil {
		return nil, a.failed(ctx, flow, err)
	}

	eventType := auth.ActivityEventDelegatedLogin
	if result.IsNewAccount {
		eventType = auth.ActivityEventDelegatedSignup
	}
	auth.EmitActivity(ctx, a.activitySink, a.logger, auth.ActivityEvent{
		EventType: eventType,
		AccountID: result.Account.ID.String(),
		Actor:     auth.ActorRef{Type: "provider", ID: providerName},
		Metadata: map[string]any{
			"provider":         providerName,
			"provider_user_id": profile.ProviderUserID,
			"is_new_account":   result.IsNewAccount,
		},
	})

	a.logger.Info("delegated login completed",
		"provider", providerName,
		"account_id", result.Account.ID,
		"is_new_account", result.IsNewAccount,
	)

	flow.enter(ctx, StateRedirected)

	return &AuthResult{
		Account:      result.Account,
		Session:      session,
		IsNewAccount: result.IsNewAccount,
		Provider:     providerName,
		Profile:      profile,
		Flow:         flow.steps,
	}, nil
}

func (a *Authenticator) failed(ctx context.Context, flow *flowTracker, err error) error {
	auth.EmitActivity(ctx, a.activitySink, a.logger, auth.ActivityEvent{
		EventType: auth.ActivityEventDelegatedFailure,
		Actor:     auth.ActorRef{Type: "provider", ID: flow.provider},
		Metadata: map[string]any{
			"provider": flow.provider,
			"state":    string(flow.Current()),
			"category": auth.CategoryOf(err),
			"reason":   ProviderErrorCode(err),
		},
	})
	return flow.fail(ctx, err)
}
