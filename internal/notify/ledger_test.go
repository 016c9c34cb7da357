package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-realtime/internal/domain"
)

func escalationEntry(ticketID, ruleID string, createdAt time.Time) domain.NotificationEvent {
	return domain.NotificationEvent{
		ID:        ticketID + "-" + ruleID,
		TicketID:  ticketID,
		RuleID:    ruleID,
		Kind:      domain.NotificationKindEscalated,
		Status:    domain.DeliveryStatusSent,
		CreatedAt: createdAt,
	}
}

func TestLedgerLastEscalation(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()

	_, found := ledger.LastEscalation("t1", "urgent-1h")
	require.False(t, found)

	ledger.Append(escalationEntry("t1", "urgent-1h", now.Add(-2*time.Hour)))
	ledger.Append(escalationEntry("t1", "urgent-1h", now))

	last, found := ledger.LastEscalation("t1", "urgent-1h")
	require.True(t, found)
	require.Equal(t, now, last)

	_, found = ledger.LastEscalation("t1", "high-4h")
	require.False(t, found)
}

func TestLedgerNonEscalationNotIndexed(t *testing.T) {
	ledger := NewLedger()

	ledger.Append(domain.NotificationEvent{
		ID:        "n1",
		TicketID:  "t1",
		Kind:      domain.NotificationKindCreated,
		CreatedAt: time.Now(),
	})

	require.Equal(t, 1, ledger.Len())
	require.Empty(t, ledger.EscalatedTicketIDs())
}

func TestLedgerPruneRebuildsIndexes(t *testing.T) {
	ledger := NewLedger()
	now := time.Now()

	ledger.Append(escalationEntry("old", "urgent-1h", now.Add(-40*24*time.Hour)))
	ledger.Append(escalationEntry("fresh", "urgent-1h", now.Add(-time.Hour)))

	ledger.Prune(now.Add(-30 * 24 * time.Hour))

	require.Equal(t, 1, ledger.Len())
	_, found := ledger.LastEscalation("old", "urgent-1h")
	require.False(t, found)
	_, found = ledger.LastEscalation("fresh", "urgent-1h")
	require.True(t, found)

	escalated := ledger.EscalatedTicketIDs()
	require.Len(t, escalated, 1)
	_, ok := escalated["fresh"]
	require.True(t, ok)
}
