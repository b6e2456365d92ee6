package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultCookieName is the session cookie name the front-end expects.
	DefaultCookieName = "accessToken"
	// DefaultCookieDuration matches the cookie lifetime the front-end was
	// built against. The token expiry is the authority.
	DefaultCookieDuration = 216000000 * time.Millisecond
)

// SessionCookies writes and clears the session cookie.
type SessionCookies struct {
	name     string
	domain   string
	duration time.Duration
	secure   bool
	now      func() time.Time
}

// NewSessionCookies builds the cookie transport from configuration.
func NewSessionCookies(cfg Config) *SessionCookies {
	sc := &SessionCookies{
		name:     DefaultCookieName,
		duration: DefaultCookieDuration,
		now:      time.Now,
	}
	if cfg == nil {
		return sc
	}
	if name := cfg.GetCookieName(); name != "" {
		sc.name = name
	}
	if d := cfg.GetCookieDuration(); d > 0 {
		sc.duration = d
	}
	sc.domain = cfg.GetCookieDomain()
	sc.secure = cfg.GetCookieSecure()
	return sc
}

// Name returns the cookie name.
func (s *SessionCookies) Name() string {
	return s.name
}

// Read returns the raw session token carried by the request, if any.
func (s *SessionCookies) Read(c *fiber.Ctx) string {
	return c.Cookies(s.name)
}

// Set attaches the session token to the response.
func (s *SessionCookies) Set(c *fiber.Ctx, token *SessionToken) {
	if token == nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    token.Value,
		Path:     "/",
		Domain:   s.domain,
		Expires:  s.now().Add(s.duration),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (s *SessionCookies) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		Domain:   s.domain,
		Expires:  s.now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
