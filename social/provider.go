package social

import (
	"context"
)

// Provider is a delegated identity provider reached with an authorization
// code.
type Provider interface {
	// Name returns the provider identifier (e.g., "dwsp").
	Name() string

	// AuthCodeURL returns the page users are sent to for authorization,
	// or an empty string when none is configured.
	AuthCodeURL() string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (*Token, error)

	// UserInfo fetches the user's profile using the access token.
	UserInfo(ctx context.Context, token *Token) (*RemoteProfile, error)
}

// Token represents a provider access token.
type Token struct {
	AccessToken string
	Raw         map[string]any
}

// RemoteProfile represents normalized user information from the provider.
// It is never persisted beyond the remote identity and username.
type RemoteProfile struct {
	ProviderUserID string
	Provider       string
	Username       string
	Name           string
	Group          string
	Raw            map[string]any
}
