package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type AuthControllerRoutes struct {
	Login    string
	Register string
	Logout   string
	Me       []string
}

// AuthController serves the local account endpoints.
type AuthController struct {
	Logger  Logger
	Routes  *AuthControllerRoutes
	Auther  *Auther
	Guard   *Guard
	Cookies *SessionCookies
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		if logger != nil {
			ac.Logger = logger
		}
		return ac
	}
}

// WithControllerRoutes overrides route paths.
func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		if routes != nil {
			ac.Routes = routes
		}
		return ac
	}
}

func NewAuthController(auther *Auther, guard *Guard, cookies *SessionCookies, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:  defLogger(),
		Auther:  auther,
		Guard:   guard,
		Cookies: cookies,
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Register: "/register",
			Logout:   "/logout",
			Me:       []string{"/me", "/users/me"},
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing Guard in auth controller...")
	}

	if c.Cookies == nil {
		panic("Missing SessionCookies in auth controller...")
	}

	return c
}

// RegisterRoutes mounts the controller on r, usually the /api group.
func (a *AuthController) RegisterRoutes(r fiber.Router) {
	r.Post(a.Routes.Login, a.LoginPost).Name("login.post")
	r.Post(a.Routes.Register, a.RegistrationCreate).Name("register.post")
	r.Get(a.Routes.Logout, a.LogOut).Name("logout.get")
	for _, path := range a.Routes.Me {
		r.Get(path, a.Guard.Handler(), a.Me)
	}
}

// CredentialsPayload is the login and registration request body.
type CredentialsPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r CredentialsPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegistrationPayload is the registration request body. Passwords are
// bounded by what bcrypt accepts.
type RegistrationPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Validate will validate the payload
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Password, validation.Required, validation.By(maxBytes(maxPasswordBytes))),
	)
}

func maxBytes(n int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if len(s) > n {
			return errors.New("must not exceed the maximum length")
		}
		return nil
	}
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(CredentialsPayload)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	session, err := a.Auther.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	a.Cookies.Set(c, session)
	return c.JSON(fiber.Map{"success": true})
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationPayload)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	session, _, err := a.Auther.Register(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	a.Cookies.Set(c, session)
	return c.JSON(fiber.Map{"success": true})
}

func (a *AuthController) LogOut(c *fiber.Ctx) error {
	a.Cookies.Clear(c)
	return c.JSON(fiber.Map{"success": true, "msg": "Logged out"})
}

func (a *AuthController) Me(c *fiber.Ctx) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return ErrSessionRequired
	}
	return c.JSON(fiber.Map{"success": true, "account": account.Profile()})
}

type validatable interface {
	Validate() error
}

func (a *AuthController) bind(c *fiber.Ctx, payload validatable) error {
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Warn("request body parse error", "path", c.Path(), "error", err)
		return WrapError(ErrBadRequest, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Warn("request payload rejected",
			"path", c.Path(),
			"fields", print.MaybePrettyJSON(FormatValidationErrorToMap(err)),
		)
		return WrapError(ErrBadRequest, err).WithMetadata(map[string]any{
			"fields": FormatValidationErrorToMap(err),
		})
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors.
func FormatValidationErrorToMap(err error) map[string][]string {
	out := map[string][]string{}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out["_"] = []string{err.Error()}
		return out
	}
	for field, ferr := range verrs {
		out[field] = append(out[field], ferr.Error())
	}
	return out
}

// HTTPErrorHandler renders classified errors as the JSON error envelope.
// Only the client-safe message is sent, the source goes to the log.
func HTTPErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger()
	}
	return func(c *fiber.Ctx, err error) error {
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{
					"success": false,
					"error":   fe.Message,
				})
			}
			richErr = WrapError(ErrInternal, err)
		}

		status := StatusCode(richErr)

		args := []any{
			"category", richErr.Category,
			"text_code", richErr.TextCode,
			"status", status,
			"method", c.Method(),
			"path", c.Path(),
		}
		if richErr.Source != nil {
			args = append(args, "source", richErr.Source.Error())
		}
		if len(richErr.Metadata) > 0 {
			args = append(args, "details", print.MaybePrettyJSON(richErr.Metadata))
		}

		switch richErr.Category {
		case goerrors.CategoryInternal, goerrors.CategoryOperation:
			logger.Error("request failed", args...)
		default:
			logger.Debug("request rejected", args...)
		}

		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   richErr.Message,
		})
	}
}
