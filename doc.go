// Package auth provides the identity and session core of the DWSP account
// service: password hashing, stateless session tokens, account resolution,
// the local username/password flows and the HTTP guard for authenticated
// routes.
//
// Accounts:
//   - Account is created once, by registration or by a first delegated
//     login, and is never updated. Username and remote identity uniqueness
//     are enforced by the AccountStore, AccountResolver only maps violations
//     to ErrAccountConflict.
//
// Sessions:
//   - TokenService issues HS256 tokens whose subject is the account id.
//     SessionCookies carries them in an HTTP-only cookie and Guard resolves
//     the account per request, attaching it to the fiber context and the
//     request context.
//
// Errors:
//   - Every failure that reaches a client is a go-errors *Error whose code
//     and category map to an HTTP status. HTTPErrorHandler is the single
//     translation point and only ever sends the client-safe message.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, Guard and
//     the delegated flow. Sinks run best-effort (errors are logged) so you can
//     forward to metrics or a queue without blocking authentication.
package auth
