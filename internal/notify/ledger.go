package notify

import (
	"sync"
	"time"

	"github.com/spec-kit/crm-realtime/internal/domain"
)

// Ledger is the bounded in-memory record of dispatched notifications. It
// backs the escalation dedup check and SLA reporting; it is not a system of
// record. Append-mostly with periodic pruning from the scheduler tick.
type Ledger struct {
	mu      sync.Mutex
	entries []domain.NotificationEvent
	// lastEscalation indexes (ticket id, rule id) to the latest escalation
	// timestamp for O(1) dedup lookups.
	lastEscalation map[escalationKey]time.Time
	escalated      map[string]struct{}
}

type escalationKey struct {
	ticketID string
	ruleID   string
}

// NewLedger builds an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		lastEscalation: make(map[escalationKey]time.Time),
		escalated:      make(map[string]struct{}),
	}
}

// Append records a dispatched notification.
func (l *Ledger) Append(event domain.NotificationEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, event)
	if event.Kind == domain.NotificationKindEscalated {
		key := escalationKey{ticketID: event.TicketID, ruleID: event.RuleID}
		if event.CreatedAt.After(l.lastEscalation[key]) {
			l.lastEscalation[key] = event.CreatedAt
		}
		l.escalated[event.TicketID] = struct{}{}
	}
}

// LastEscalation returns the most recent escalation timestamp for the
// (ticket, rule) pair.
func (l *Ledger) LastEscalation(ticketID, ruleID string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, ok := l.lastEscalation[escalationKey{ticketID: ticketID, ruleID: ruleID}]
	return ts, ok
}

// EscalatedTicketIDs returns a snapshot of every ticket id with at least one
// escalation entry still inside the retention window.
func (l *Ledger) EscalatedTicketIDs() map[string]struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string]struct{}, len(l.escalated))
	for id := range l.escalated {
		snapshot[id] = struct{}{}
	}
	return snapshot
}

// Prune drops entries created before cutoff and rebuilds the indexes from
// the survivors.
func (l *Ledger) Prune(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, event := range l.entries {
		if event.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, event)
	}
	l.entries = kept

	l.lastEscalation = make(map[escalationKey]time.Time, len(kept))
	l.escalated = make(map[string]struct{})
	for _, event := range kept {
		if event.Kind != domain.NotificationKindEscalated {
			continue
		}
		key := escalationKey{ticketID: event.TicketID, ruleID: event.RuleID}
		if event.CreatedAt.After(l.lastEscalation[key]) {
			l.lastEscalation[key] = event.CreatedAt
		}
		l.escalated[event.TicketID] = struct{}{}
	}
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
