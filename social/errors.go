package social

import "github.com/goliatone/go-errors"

const (
	TextCodeCodeRequired      = "social_code_required"
	TextCodeProviderMissing   = "social_provider_not_configured"
	TextCodeTokenExchangeFail = "social_token_exchange_failed"
	TextCodeUserInfoFail      = "social_user_info_failed"
	TextCodeUsernameTaken     = "social_username_taken"
	TextCodeProviderBadData   = "social_provider_bad_data"
)

const msgUpstream = "Something went wrong. Try again later"

// ErrCodeRequired is returned when the callback carries no authorization code.
var ErrCodeRequired = errors.New("auth code required", errors.CategoryBadInput).
	WithTextCode(TextCodeCodeRequired).
	WithCode(errors.CodeBadRequest)

// ErrProviderNotConfigured is returned when no provider is registered.
var ErrProviderNotConfigured = errors.New("Internal error. Try again later", errors.CategoryInternal).
	WithTextCode(TextCodeProviderMissing).
	WithCode(errors.CodeInternal)

// ErrTokenExchangeFailed is returned when the provider token exchange fails.
var ErrTokenExchangeFailed = errors.New(msgUpstream, errors.CategoryOperation).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(errors.CodeInternal)

// ErrUserInfoFailed is returned when fetching the provider profile fails.
var ErrUserInfoFailed = errors.New(msgUpstream, errors.CategoryOperation).
	WithTextCode(TextCodeUserInfoFail).
	WithCode(errors.CodeInternal)

// ErrUsernameTaken is returned when a first-time provider login would take
// the username of an unrelated local account.
var ErrUsernameTaken = errors.New("Account already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeConflict)

// ErrProviderBadData is returned when the provider profile lacks a user id.
// The client sees the generic upstream message; the text code and the
// missing_uuid metadata only reach logs.
var ErrProviderBadData = errors.New(msgUpstream, errors.CategoryOperation).
	WithTextCode(TextCodeProviderBadData).
	WithCode(errors.CodeInternal)
