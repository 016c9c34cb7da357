package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-realtime/internal/realtime"
)

// PresenceHandler exposes live connection counts per organization.
type PresenceHandler struct {
	registry *realtime.Registry
}

// NewPresenceHandler returns a new handler instance.
func NewPresenceHandler(registry *realtime.Registry) *PresenceHandler {
	return &PresenceHandler{registry: registry}
}

// Count returns the live connection count for the organization in the route.
func (h *PresenceHandler) Count(c *fiber.Ctx) error {
	orgID := c.Params("orgID")
	return c.JSON(fiber.Map{
		"organization_id": orgID,
		"connections":     h.registry.CountInTenant(orgID),
	})
}
