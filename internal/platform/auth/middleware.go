package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/httperr"
)

// Resolver turns a raw bearer token into a live Identity. The account
// service implements this by verifying the signature and then
// re-reading role and profile ids from the users table, so role changes
// and deletions take effect without waiting for token expiry.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// Middleware authenticates every request in its group: it extracts the
// bearer token, resolves it, and attaches the Identity to the request
// context. Missing, malformed or unverifiable tokens yield 401.
func Middleware(resolver Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return httperr.Auth("missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return httperr.Auth("invalid authorization format")
			}

			identity, err := resolver.Resolve(c.Request().Context(), parts[1])
			if err != nil {
				if httperr.KindOf(err) == httperr.KindUnknown {
					return httperr.Auth("invalid or expired token")
				}
				return err
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), identity)))
			return next(c)
		}
	}
}

// RequireRole returns middleware allowing only the listed roles. Admin
// is not implicitly allowed; list it where admin access is intended.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return httperr.Auth("missing authorization header")
			}
			for _, r := range roles {
				if identity.Role == r {
					return next(c)
				}
			}
			return httperr.Forbidden("insufficient role for this resource")
		}
	}
}

// MustIdentity returns the request identity or an Auth error. Handlers
// behind Middleware can rely on it being present; the error path covers
// misconfigured route groups.
func MustIdentity(c echo.Context) (Identity, error) {
	identity, ok := IdentityFromContext(c.Request().Context())
	if !ok {
		return Identity{}, httperr.Auth("missing authorization header")
	}
	return identity, nil
}
