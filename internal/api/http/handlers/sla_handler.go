package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-realtime/internal/auth"
	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/notify"
	"github.com/spec-kit/crm-realtime/internal/repository"
	"github.com/spec-kit/crm-realtime/internal/service"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

// SLAHandler serves the on-demand SLA report for the caller's organization.
type SLAHandler struct {
	tickets repository.TicketRepository
	ledger  *notify.Ledger
	rules   domain.EscalationRules
}

// NewSLAHandler returns a new handler instance.
func NewSLAHandler(tickets repository.TicketRepository, ledger *notify.Ledger, rules domain.EscalationRules) *SLAHandler {
	return &SLAHandler{tickets: tickets, ledger: ledger, rules: rules}
}

// Report computes the aggregate for the authenticated organization.
func (h *SLAHandler) Report(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tickets, err := h.tickets.ListByOrganization(c.UserContext(), identity.OrganizationID)
	if err != nil {
		return apperrors.NewPersistenceUnavailable(err)
	}

	report := service.BuildSLAReport(tickets, h.rules, h.ledger.EscalatedTicketIDs(), time.Now())
	return c.JSON(report)
}
