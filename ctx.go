package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var accountCtxKey = &contextKey{"account"}

type contextKey struct {
	name string
}

// localsAccountKey is the fiber.Ctx Locals key holding the current account.
const localsAccountKey = "auth.account"

// WithAccount sets the Account in the given context
func WithAccount(ctx context.Context, account *Account) context.Context {
	return context.WithValue(ctx, accountCtxKey, account)
}

// AccountFromContext finds the account from the context.
func AccountFromContext(ctx context.Context) (*Account, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*Account)
	return raw, ok && raw != nil
}

// CurrentAccount returns the account the Guard attached to this request.
func CurrentAccount(c *fiber.Ctx) (*Account, bool) {
	raw, ok := c.Locals(localsAccountKey).(*Account)
	return raw, ok && raw != nil
}

func setCurrentAccount(c *fiber.Ctx, account *Account) {
	c.Locals(localsAccountKey, account)
	c.SetUserContext(WithAccount(c.UserContext(), account))
}
