package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-realtime/internal/domain"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

// RequireRole ensures the identity holds one of the allowed roles.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSameOrganization ensures the identity belongs to the organization
// named by the orgID route parameter.
func RequireSameOrganization(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if c.Params(param) != identity.OrganizationID {
			return apperrors.NewForbidden("organization access denied")
		}
		return c.Next()
	}
}
