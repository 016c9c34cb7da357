package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Terminal reports whether the status removes a ticket from escalation
// consideration.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the support-request aggregate. This service only reads tickets;
// the persistence collaborator owns all mutation.
type Ticket struct {
	ID             string
	OrganizationID string
	CreatorID      string
	AssigneeID     *string
	CustomerID     *string
	Title          string
	Description    string
	Status         TicketStatus
	Priority       TicketPriority
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Age returns how long the ticket has existed relative to now.
func (t Ticket) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}

// ResolutionTime returns updated-minus-created for terminal tickets, zero otherwise.
func (t Ticket) ResolutionTime() time.Duration {
	if !t.Status.Terminal() {
		return 0
	}
	return t.UpdatedAt.Sub(t.CreatedAt)
}
