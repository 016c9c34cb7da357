package domain

import "time"

// NotificationKind enumerates the ticket events a notification describes.
type NotificationKind string

const (
	NotificationKindCreated   NotificationKind = "created"
	NotificationKindUpdated   NotificationKind = "updated"
	NotificationKindResolved  NotificationKind = "resolved"
	NotificationKindEscalated NotificationKind = "escalated"
	NotificationKindOverdue   NotificationKind = "overdue"
)

// DeliveryStatus tracks the outcome of handing a notification to the router.
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "PENDING"
	DeliveryStatusSent    DeliveryStatus = "SENT"
	DeliveryStatusFailed  DeliveryStatus = "FAILED"
)

// NotificationEvent is a dispatched notification retained in the in-memory
// ledger for escalation dedup and SLA reporting. Not a system of record.
type NotificationEvent struct {
	ID         string
	TicketID   string
	RuleID     string
	Kind       NotificationKind
	Recipients []string
	Message    string
	Status     DeliveryStatus
	CreatedAt  time.Time
}
