package domain

import "time"

// EscalationAction enumerates what an escalation rule does when triggered.
// ActionAssign is currently handled identically to ActionNotify: reassignment
// target selection is an unresolved product decision, so the rule only
// notifies the target role.
type EscalationAction string

const (
	EscalationActionNotify EscalationAction = "notify"
	EscalationActionAssign EscalationAction = "assign"
)

// EscalationRule maps a ticket priority to an age threshold and a target
// role. Loaded once at startup; immutable at runtime.
type EscalationRule struct {
	ID         string
	Priority   TicketPriority
	Threshold  time.Duration
	TargetRole UserRole
	Action     EscalationAction
}

// EscalationRules indexes rules by ticket priority.
type EscalationRules map[TicketPriority]EscalationRule

// DefaultEscalationRules returns the built-in priority/threshold table.
func DefaultEscalationRules() EscalationRules {
	return EscalationRules{
		TicketPriorityUrgent: {
			ID:         "urgent-1h",
			Priority:   TicketPriorityUrgent,
			Threshold:  1 * time.Hour,
			TargetRole: UserRoleAdmin,
			Action:     EscalationActionNotify,
		},
		TicketPriorityHigh: {
			ID:         "high-4h",
			Priority:   TicketPriorityHigh,
			Threshold:  4 * time.Hour,
			TargetRole: UserRoleManager,
			Action:     EscalationActionNotify,
		},
		TicketPriorityMedium: {
			ID:         "medium-12h",
			Priority:   TicketPriorityMedium,
			Threshold:  12 * time.Hour,
			TargetRole: UserRoleManager,
			Action:     EscalationActionAssign,
		},
		TicketPriorityLow: {
			ID:         "low-24h",
			Priority:   TicketPriorityLow,
			Threshold:  24 * time.Hour,
			TargetRole: UserRoleManager,
			Action:     EscalationActionNotify,
		},
	}
}
