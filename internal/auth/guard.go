package auth

import (
	"strings"

	"backend-picshare/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

const localsKey = "auth"

// Context is the identity resolved for one request. The zero value is an
// anonymous caller.
type Context struct {
	IsAuthenticated bool
	IdentityID      string
	Email           string
}

// Require is the per-operation check; the guard itself never rejects.
func (c Context) Require() error {
	if !c.IsAuthenticated || c.IdentityID == "" {
		return apperr.Unauthorized("Not authenticated")
	}
	return nil
}

func Authenticated(identityID string) Context {
	return Context{IsAuthenticated: true, IdentityID: identityID}
}

type TokenVerifier interface {
	VerifyToken(token string) (*Claims, error)
}

type Guard struct {
	verifier TokenVerifier
}

func NewGuard(verifier TokenVerifier) *Guard {
	return &Guard{verifier: verifier}
}

// Resolve turns an Authorization header value into a Context. It is total:
// every failure yields an anonymous Context.
func (g *Guard) Resolve(authorization string) Context {
	token := bearerFromHeader(authorization)
	if token == "" || g == nil || g.verifier == nil {
		return Context{}
	}
	claims, err := g.verifier.VerifyToken(token)
	if err != nil || claims == nil {
		return Context{}
	}
	return Context{IsAuthenticated: true, IdentityID: claims.IdentityID, Email: claims.Email}
}

// Middleware stores the resolved Context in locals and always continues.
func (g *Guard) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localsKey, g.Resolve(c.Get(fiber.HeaderAuthorization)))
		return c.Next()
	}
}

func FromFiber(c *fiber.Ctx) Context {
	if actor, ok := c.Locals(localsKey).(Context); ok {
		return actor
	}
	return Context{}
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
