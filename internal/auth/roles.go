package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// RequirePermission lets the request through when the principal holds any of perms.
func RequirePermission(perms ...Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(perms) > 0 && !HasAnyPermission(principal.User.Role, perms...) {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
