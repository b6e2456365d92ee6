package auth

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeBadRequest         = "bad_request"
	TextCodeInvalidAccount     = "invalid_account"
	TextCodeInvalidCredentials = "invalid_credentials"
	TextCodeAccountExists      = "account_exists"
	TextCodeAccountConflict    = "account_conflict"
	TextCodeAccountNotFound    = "account_not_found"
	TextCodeSessionRequired    = "session_required"
	TextCodeSessionInvalid     = "session_invalid"
	TextCodeTokenMalformed     = "token_malformed"
	TextCodeTokenExpired       = "token_expired"
	TextCodeTokenBadSignature  = "token_bad_signature"
	TextCodeTokenNoSubject     = "token_missing_subject"
	TextCodeUpstream           = "upstream_error"
	TextCodeInternal           = "internal_error"
	TextCodeMissingSigningKey  = "missing_signing_key"
	TextCodeEmptyPassword      = "empty_password"
)

const (
	msgGeneric      = "Something went wrong. Try again later"
	msgTokenInvalid = "Token invalid"
)

// ErrBadRequest is returned when required input is absent or malformed.
var ErrBadRequest = goerrors.New("Data required", goerrors.CategoryBadInput).
	WithTextCode(TextCodeBadRequest).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidAccount is returned when an account would violate its invariants.
var ErrInvalidAccount = goerrors.New("Invalid account data", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidAccount).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
var ErrInvalidCredentials = goerrors.New("Wrong username or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeForbidden)

// ErrAccountExists is returned by registration for a taken username.
var ErrAccountExists = goerrors.New("Account already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrAccountConflict is returned when storage rejects a duplicate
// username, id or remote identity.
var ErrAccountConflict = goerrors.New("Account already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountConflict).
	WithCode(goerrors.CodeConflict)

// ErrAccountNotFound is returned by lookups that found nothing.
var ErrAccountNotFound = goerrors.New("Account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrSessionRequired is returned when a request carries no session cookie.
var ErrSessionRequired = goerrors.New("Token required", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionInvalid is returned when the session subject no longer resolves.
var ErrSessionInvalid = goerrors.New(msgTokenInvalid, goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that cannot be parsed.
var ErrTokenMalformed = goerrors.New(msgTokenInvalid, goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = goerrors.New(msgTokenInvalid, goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenBadSignature is returned for tokens whose signature or algorithm
// does not verify.
var ErrTokenBadSignature = goerrors.New(msgTokenInvalid, goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenBadSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMissingSubject is returned for valid tokens without a subject.
var ErrTokenMissingSubject = goerrors.New(msgTokenInvalid, goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenNoSubject).
	WithCode(goerrors.CodeUnauthorized)

// ErrUpstream is returned when the identity provider or storage fails.
var ErrUpstream = goerrors.New(msgGeneric, goerrors.CategoryOperation).
	WithTextCode(TextCodeUpstream).
	WithCode(goerrors.CodeInternal)

// ErrInternal is returned for unexpected failures.
var ErrInternal = goerrors.New("Internal error. Try again later", goerrors.CategoryInternal).
	WithTextCode(TextCodeInternal).
	WithCode(goerrors.CodeInternal)

// ErrMissingSigningKey is a startup configuration error.
var ErrMissingSigningKey = goerrors.New("session signing key is not configured", goerrors.CategoryInternal).
	WithTextCode(TextCodeMissingSigningKey).
	WithCode(goerrors.CodeInternal)

// WrapError returns a copy of base carrying err as its source. The
// sentinel itself is never mutated.
func WrapError(base *goerrors.Error, err error) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		clone = &goerrors.Error{}
	}
	clone.Metadata = copyMetadata(base.Metadata)
	clone.Source = err
	return clone
}

// WithMetadata returns a copy of base with meta merged into its metadata.
func WithMetadata(base *goerrors.Error, meta map[string]any) *goerrors.Error {
	clone := WrapError(base, base.Source)
	if clone.Metadata == nil {
		clone.Metadata = make(map[string]any, len(meta))
	}
	for k, v := range meta {
		clone.Metadata[k] = v
	}
	return clone
}

func copyMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// AsError returns the first classified error in err's chain, wrapping
// unknown errors as internal failures.
func AsError(err error) *goerrors.Error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr
	}
	return WrapError(ErrInternal, err)
}

// CategoryOf returns the category of the first classified error in the
// chain, defaulting to CategoryInternal.
func CategoryOf(err error) goerrors.Category {
	return AsError(err).Category
}

// StatusCode is the HTTP status used when err reaches a client.
func StatusCode(err error) int {
	richErr := AsError(err)
	if richErr.Code != 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Matches reports whether any classified error in err's chain carries
// target's text code. Copies made by WrapError match their sentinel.
func Matches(err error, target *goerrors.Error) bool {
	if target == nil || target.TextCode == "" {
		return false
	}
	for err != nil {
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr == nil {
			return false
		}
		if richErr.TextCode == target.TextCode {
			return true
		}
		err = richErr.Source
	}
	return false
}

// IsNotFound reports whether err is ErrAccountNotFound.
func IsNotFound(err error) bool {
	return Matches(err, ErrAccountNotFound)
}

// IsConflict reports whether err is classified as a conflict.
func IsConflict(err error) bool {
	return err != nil && CategoryOf(err) == goerrors.CategoryConflict
}

// TokenFailure names the reason a session token was rejected.
type TokenFailure string

const (
	TokenFailureNone           TokenFailure = ""
	TokenFailureMalformed      TokenFailure = "malformed"
	TokenFailureExpired        TokenFailure = "expired"
	TokenFailureBadSignature   TokenFailure = "bad_signature"
	TokenFailureMissingSubject TokenFailure = "missing_subject"
)

// TokenFailureOf maps an error returned by TokenService.Verify to its class.
func TokenFailureOf(err error) TokenFailure {
	switch {
	case err == nil:
		return TokenFailureNone
	case Matches(err, ErrTokenExpired):
		return TokenFailureExpired
	case Matches(err, ErrTokenBadSignature):
		return TokenFailureBadSignature
	case Matches(err, ErrTokenMissingSubject):
		return TokenFailureMissingSubject
	default:
		return TokenFailureMalformed
	}
}
