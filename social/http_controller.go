package social

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-dwsp"
)

// HTTPController handles delegated login HTTP routes.
type HTTPController struct {
	authenticator *Authenticator
	cookies       *auth.SessionCookies
	config        HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// CallbackPath receives the provider redirect (default: "/oauth/callback")
	CallbackPath string

	// LoginPath sends the browser to the provider (default: "/oauth/login")
	LoginPath string

	// HomeRedirectURL is where the browser goes after a successful login
	HomeRedirectURL string
}

// NewHTTPController creates a new delegated login HTTP controller.
func NewHTTPController(authenticator *Authenticator, cookies *auth.SessionCookies, cfg HTTPConfig) *HTTPController {
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/oauth/callback"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/oauth/login"
	}
	if cfg.HomeRedirectURL == "" {
		cfg.HomeRedirectURL = "/"
	}

	return &HTTPController{
		authenticator: authenticator,
		cookies:       cookies,
		config:        cfg,
	}
}

// RegisterRoutes registers delegated login routes.
func (c *HTTPController) RegisterRoutes(r fiber.Router) {
	r.Get(c.config.CallbackPath, c.Callback).Name("oauth.callback")
	r.Get(c.config.LoginPath, c.BeginAuth).Name("oauth.login")
}

// BeginAuth redirects to the provider authorization page.
func (c *HTTPController) BeginAuth(ctx *fiber.Ctx) error {
	target := c.authenticator.Provider().AuthCodeURL()
	if target == "" {
		return fiber.NewError(fiber.StatusNotFound, "Not found")
	}
	return ctx.Redirect(target, http.StatusTemporaryRedirect)
}

// Callback completes the delegated login. New accounts answer 201, known
// ones 200, both with the home page in Location and the session cookie.
func (c *HTTPController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if strings.TrimSpace(code) == "" {
		return ErrCodeRequired
	}

	reqCtx := WithRequestID(ctx.UserContext(), requestID(ctx))

	result, err := c.authenticator.CompleteAuth(reqCtx, code)
	if err != nil {
		return err
	}

	c.cookies.Set(ctx, result.Session)

	status := fiber.StatusOK
	redirectURL := c.config.HomeRedirectURL
	if result.IsNewAccount {
		status = fiber.StatusCreated
	}

	ctx.Location(redirectURL)
	return ctx.Status(status).JSON(fiber.Map{
		"success":  true,
		"redirect": redirectURL,
	})
}

func requestID(ctx *fiber.Ctx) string {
	if id, ok := ctx.Locals("requestid").(string); ok {
		return id
	}
	return ctx.Get(fiber.HeaderXRequestID)
}
