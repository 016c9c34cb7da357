package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/events"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

// Sender hands a rendered notification to the broadcast router. Returns the
// number of connections that accepted the frame.
type Sender interface {
	SendToUser(userID string, event events.Name, payload events.Payload) int
}

// RoleResolver resolves an escalation target role to concrete users within
// an organization. Backed by the user repository.
type RoleResolver interface {
	ListActiveByRole(ctx context.Context, orgID string, role domain.UserRole) ([]domain.User, error)
}

// Dispatcher computes recipients for ticket events, renders a message and
// delivers it through the router. Every dispatched notification lands in the
// ledger regardless of delivery outcome, so escalation dedup never depends
// on delivery succeeding.
type Dispatcher struct {
	sender Sender
	roles  RoleResolver
	ledger *Ledger
	rules  domain.EscalationRules
	logger *zap.Logger
	now    func() time.Time
}

// Dependencies bundles dispatcher collaborators.
type Dependencies struct {
	Sender Sender
	Roles  RoleResolver
	Ledger *Ledger
	Rules  domain.EscalationRules
	Logger *zap.Logger
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(deps Dependencies) *Dispatcher {
	return &Dispatcher{
		sender: deps.Sender,
		roles:  deps.Roles,
		ledger: deps.Ledger,
		rules:  deps.Rules,
		logger: deps.Logger,
		now:    time.Now,
	}
}

// Dispatch builds, delivers and records one notification for the ticket
// event. Delivery failure is non-fatal to the caller: the returned event
// carries a FAILED status and the error stays internal.
func (d *Dispatcher) Dispatch(ctx context.Context, ticket domain.Ticket, kind domain.NotificationKind, extra map[string]string) (*domain.NotificationEvent, error) {
	recipients, resolveErr := d.recipients(ctx, ticket, kind)

	vars := map[string]string{
		"ticket_id":  ticket.ID,
		"title":      ticket.Title,
		"priority":   string(ticket.Priority),
		"status":     string(ticket.Status),
		"created_at": ticket.CreatedAt.Format(time.RFC3339),
		"updated_at": ticket.UpdatedAt.Format(time.RFC3339),
	}
	for key, val := range extra {
		vars[key] = val
	}
	message := RenderMessage(kind, vars)

	notification := domain.NotificationEvent{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		Kind:       kind,
		Recipients: recipients,
		Message:    message,
		Status:     domain.DeliveryStatusPending,
		CreatedAt:  d.now(),
	}
	if kind == domain.NotificationKindEscalated {
		if rule, ok := d.rules[ticket.Priority]; ok {
			notification.RuleID = rule.ID
		}
	}

	switch {
	case resolveErr != nil:
		notification.Status = domain.DeliveryStatusFailed
		d.logger.Warn("recipient resolution failed",
			zap.String("code", apperrors.CodeDeliveryFailed),
			zap.String("ticket_id", ticket.ID),
			zap.String("kind", string(kind)),
			zap.Error(resolveErr))
	case len(recipients) == 0:
		notification.Status = domain.DeliveryStatusFailed
		d.logger.Warn("no recipients for notification",
			zap.String("code", apperrors.CodeDeliveryFailed),
			zap.String("ticket_id", ticket.ID),
			zap.String("kind", string(kind)))
	default:
		payload := events.Payload{
			"id":        notification.ID,
			"ticket_id": ticket.ID,
			"kind":      string(kind),
			"message":   message,
		}
		for _, userID := range recipients {
			d.sender.SendToUser(userID, events.OutboundNotificationNew, payload)
		}
		notification.Status = domain.DeliveryStatusSent
	}

	d.ledger.Append(notification)
	return &notification, nil
}

// recipients computes the deterministic, de-duplicated recipient set for the
// event kind. Assignee and creator are always included when present; the
// ticket's customer only for created/updated/resolved; escalations go to the
// rule's target role instead.
func (d *Dispatcher) recipients(ctx context.Context, ticket domain.Ticket, kind domain.NotificationKind) ([]string, error) {
	if kind == domain.NotificationKindEscalated {
		rule, ok := d.rules[ticket.Priority]
		if !ok {
			return nil, nil
		}
		users, err := d.roles.ListActiveByRole(ctx, ticket.OrganizationID, rule.TargetRole)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}
		return ids, nil
	}

	seen := make(map[string]struct{})
	var ids []string
	add := func(id *string) {
		if id == nil || *id == "" {
			return
		}
		if _, dup := seen[*id]; dup {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}

	add(ticket.AssigneeID)
	creator := ticket.CreatorID
	add(&creator)

	switch kind {
	case domain.NotificationKindCreated, domain.NotificationKindUpdated, domain.NotificationKindResolved:
		add(ticket.CustomerID)
	}
	return ids, nil
}
