package auth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCookiesDefaults(t *testing.T) {
	cookies := auth.NewSessionCookies(nil)
	assert.Equal(t, auth.DefaultCookieName, cookies.Name())
}

func TestSessionCookiesFromConfig(t *testing.T) {
	cfg := newTestConfig()
	cfg.cookieName = "sid"
	cfg.cookieTTL = 10 * time.Minute
	cfg.secure = true

	cookies := auth.NewSessionCookies(cfg)
	require.Equal(t, "sid", cookies.Name())

	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		cookies.Set(c, &auth.SessionToken{Value: "abc"})
		return c.SendStatus(http.StatusNoContent)
	})

	before := time.Now()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/set", nil), -1)
	require.NoError(t, err)

	got := resp.Cookies()
	require.Len(t, got, 1)
	assert.Equal(t, "sid", got[0].Name)
	assert.Equal(t, "abc", got[0].Value)
	assert.True(t, got[0].Secure)
	assert.True(t, got[0].HttpOnly)
	assert.WithinDuration(t, before.Add(10*time.Minute), got[0].Expires, 5*time.Second)
}

func TestGuardAttachesAccount(t *testing.T) {
	f := newAuthFixture(t)
	session, account, err := f.auther.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	cookies := auth.NewSessionCookies(newTestConfig())
	guard := auth.NewGuard(cookies, f.tokens, f.resolver)

	app := fiber.New(fiber.Config{ErrorHandler: auth.HTTPErrorHandler(nil)})
	app.Get("/private", guard.Handler(), func(c *fiber.Ctx) error {
		fromLocals, ok := auth.CurrentAccount(c)
		if !ok {
			return fiber.ErrTeapot
		}
		fromCtx, ok := auth.AccountFromContext(c.UserContext())
		if !ok || fromCtx.ID != fromLocals.ID {
			return fiber.ErrTeapot
		}
		return c.SendString(fromLocals.ID.String())
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: session.Value})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), string(body))
}

func TestGuardRejectsExpiredSession(t *testing.T) {
	f := newAuthFixture(t)
	_, account, err := f.auther.Register(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	issuedAt := time.Now().Add(-2 * time.Hour)
	stale, err := auth.NewTokenService(testSigningKey, time.Hour,
		auth.WithTokenClock(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	session, err := stale.Issue(account.ID.String())
	require.NoError(t, err)

	sink := &recordingSink{}
	guard := auth.NewGuard(auth.NewSessionCookies(nil), f.tokens, f.resolver).WithActivitySink(sink)

	app := fiber.New(fiber.Config{ErrorHandler: auth.HTTPErrorHandler(nil)})
	app.Get("/private", guard.Handler(), func(c *fiber.Ctx) error {
		return c.SendString("reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: auth.DefaultCookieName, Value: session.Value})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.Len(t, sink.events, 1)
	assert.Equal(t, auth.ActivityEventSessionRejected, sink.events[0].EventType)
	assert.Equal(t, string(auth.TokenFailureExpired), sink.events[0].Metadata["reason"])
}

func TestAccountFromContextEmpty(t *testing.T) {
	_, ok := auth.AccountFromContext(context.Background())
	assert.False(t, ok)

	_, ok = auth.AccountFromContext(auth.WithAccount(context.Background(), nil))
	assert.False(t, ok)
}
