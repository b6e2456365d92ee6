package social_test

import (
	"context"
	"errors"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/goliatone/go-auth-dwsp/social"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socialFixture struct {
	provider *fakeProvider
	store    *memoryStore
	tokens   *auth.TokenServiceImpl
	sink     *recordingSink
	flow     *social.Authenticator
}

func newSocialFixture(t *testing.T) *socialFixture {
	t.Helper()

	provider := newFakeProvider()
	provider.profiles["code-bob"] = &social.RemoteProfile{ProviderUserID: "u-1", Username: "bob"}

	store := &memoryStore{}
	tokens, err := auth.NewTokenService([]byte("social-test-key"), time.Hour)
	require.NoError(t, err)
	sink := &recordingSink{}

	return &socialFixture{
		provider: provider,
		store:    store,
		tokens:   tokens,
		sink:     sink,
		flow: social.NewAuthenticator(provider, auth.NewAccountResolver(store), tokens,
			social.WithActivitySink(sink),
		),
	}
}

func TestCompleteAuthSignupThenLogin(t *testing.T) {
	f := newSocialFixture(t)
	ctx := context.Background()

	first, err := f.flow.CompleteAuth(ctx, "code-bob")
	require.NoError(t, err)
	assert.True(t, first.IsNewAccount)
	assert.Equal(t, "bob", first.Account.Username)
	assert.Equal(t, "dwsp", first.Provider)
	assert.Equal(t, auth.ActivityEventDelegatedSignup, f.sink.last().EventType)
	assert.Equal(t, []social.FlowState{
		social.StateReceivedCode,
		social.StateExchangingToken,
		social.StateFetchingProfile,
		social.StateResolvingAccount,
		social.StateCreatingNew,
		social.StateIssuingSession,
		social.StateRedirected,
	}, first.Flow)

	subject, err := f.tokens.Verify(first.Session.Value)
	require.NoError(t, err)
	assert.Equal(t, first.Account.ID.String(), subject)

	second, err := f.flow.CompleteAuth(ctx, "code-bob")
	require.NoError(t, err)
	assert.False(t, second.IsNewAccount)
	assert.Equal(t, first.Account.ID, second.Account.ID)
	assert.Contains(t, second.Flow, social.StateLinkingExisting)
	assert.Equal(t, auth.ActivityEventDelegatedLogin, f.sink.last().EventType)
	assert.Equal(t, 1, f.store.Len())
}

func TestCompleteAuthFailures(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		setup    func(*fakeProvider)
		target   *goerrors.Error
		category goerrors.Category
		message  string
	}{
		{
			name:     "missing code",
			code:     "  ",
			target:   social.ErrCodeRequired,
			category: goerrors.CategoryBadInput,
			message:  "auth code required",
		},
		{
			name: "exchange rejected",
			code: "code-bob",
			setup: func(p *fakeProvider) {
				p.exchange = &social.ProviderError{Provider: "dwsp", Operation: "exchange", Status: 401, Code: social.CodeBadStatus}
			},
			target:   social.ErrTokenExchangeFailed,
			category: goerrors.CategoryOperation,
			message:  "Something went wrong. Try again later",
		},
		{
			name:     "profile without account",
			code:     "code-unknown",
			target:   social.ErrUserInfoFailed,
			category: goerrors.CategoryOperation,
			message:  "Something went wrong. Try again later",
		},
		{
			name: "profile without uuid",
			code: "code-bob",
			setup: func(p *fakeProvider) {
				p.userInfo = &social.ProviderError{Provider: "dwsp", Operation: "user_info", Code: social.CodeMissingUserID}
			},
			target:   social.ErrProviderBadData,
			category: goerrors.CategoryOperation,
			message:  "Something went wrong. Try again later",
		},
		{
			name: "transport failure",
			code: "code-bob",
			setup: func(p *fakeProvider) {
				p.userInfo = errors.New("connection reset")
			},
			target:   social.ErrUserInfoFailed,
			category: goerrors.CategoryOperation,
			message:  "Something went wrong. Try again later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSocialFixture(t)
			if tt.setup != nil {
				tt.setup(f.provider)
			}

			result, err := f.flow.CompleteAuth(context.Background(), tt.code)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, auth.Matches(err, tt.target))
			assert.Equal(t, tt.category, auth.CategoryOf(err))
			assert.Equal(t, tt.message, auth.AsError(err).Message)
			assert.Equal(t, 0, f.store.Len())
			assert.Equal(t, auth.ActivityEventDelegatedFailure, f.sink.last().EventType)
		})
	}
}

func TestCompleteAuthKeepsProviderDetailsOutOfMessage(t *testing.T) {
	f := newSocialFixture(t)
	f.provider.exchange = &social.ProviderError{
		Provider:    "dwsp",
		Operation:   "exchange",
		Status:      500,
		Code:        social.CodeBadStatus,
		Description: "stack trace from upstream",
	}

	_, err := f.flow.CompleteAuth(context.Background(), "code-bob")
	require.Error(t, err)

	richErr := auth.AsError(err)
	assert.NotContains(t, richErr.Message, "stack trace")
	assert.Equal(t, 500, richErr.Metadata["status"])
	assert.Equal(t, social.CodeBadStatus, richErr.Metadata["code"])
	assert.Equal(t, social.CodeBadStatus, social.ProviderErrorCode(err))
}

func TestCompleteAuthWithoutProvider(t *testing.T) {
	a := social.NewAuthenticator(nil, auth.NewAccountResolver(&memoryStore{}), nil)
	_, err := a.CompleteAuth(context.Background(), "code")
	assert.True(t, auth.Matches(err, social.ErrProviderNotConfigured))
}
