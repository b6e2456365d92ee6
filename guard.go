package auth

import (
	"github.com/gofiber/fiber/v2"
)

// Guard protects routes that need an authenticated account.
type Guard struct {
	cookies      *SessionCookies
	tokenService TokenService
	resolver     *AccountResolver
	logger       Logger
	activitySink ActivitySink
}

// NewGuard returns a Guard.
func NewGuard(cookies *SessionCookies, tokenService TokenService, resolver *AccountResolver) *Guard {
	return &Guard{
		cookies:      cookies,
		tokenService: tokenService,
		resolver:     resolver,
		logger:       defLogger(),
		activitySink: noopActivitySink{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

func (g *Guard) WithActivitySink(sink ActivitySink) *Guard {
	g.activitySink = normalizeActivitySink(sink)
	return g
}

// Handler is the fiber middleware. Rejected requests are handed to the
// app error handler.
func (g *Guard) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, err := g.Authenticate(c)
		if err != nil {
			return err
		}
		setCurrentAccount(c, account)
		return c.Next()
	}
}

// Authenticate resolves the account behind the request session cookie.
func (g *Guard) Authenticate(c *fiber.Ctx) (*Account, error) {
	raw := g.cookies.Read(c)
	if raw == "" {
		return nil, ErrSessionRequired
	}

	subject, err := g.tokenService.Verify(raw)
	if err != nil {
		g.reject(c, string(TokenFailureOf(err)), err)
		return nil, err
	}

	account, err := g.resolver.FindByID(c.UserContext(), subject)
	if err != nil {
		if IsNotFound(err) {
			g.reject(c, "unknown_subject", err)
			return nil, WrapError(ErrSessionInvalid, err)
		}
		return nil, err
	}

	return account, nil
}

func (g *Guard) reject(c *fiber.Ctx, reason string, err error) {
	g.logger.Info("session rejected",
		"reason", reason,
		"path", c.Path(),
		"error", err,
	)
	EmitActivity(c.UserContext(), g.activitySink, g.logger, ActivityEvent{
		EventType: ActivityEventSessionRejected,
		Actor:     ActorRef{Type: "anonymous"},
		Metadata:  map[string]any{"reason": reason},
	})
}
