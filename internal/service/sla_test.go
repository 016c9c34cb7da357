package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-realtime/internal/domain"
)

func TestSLAReportEmptyInput(t *testing.T) {
	report := BuildSLAReport(nil, domain.DefaultEscalationRules(), nil, time.Now())

	require.Zero(t, report.TotalTickets)
	require.Zero(t, report.ResolvedTickets)
	require.Zero(t, report.OverallMeanResolutionHours)
	require.Zero(t, report.OverdueTickets)
	require.Zero(t, report.EscalatedTickets)
	require.Empty(t, report.Buckets)
}

func TestSLAReportAggregates(t *testing.T) {
	now := time.Now()
	mk := func(id string, priority domain.TicketPriority, status domain.TicketStatus, age, resolution time.Duration) domain.Ticket {
		created := now.Add(-age)
		updated := created
		if status.Terminal() {
			updated = created.Add(resolution)
		}
		return domain.Ticket{
			ID:        id,
			Priority:  priority,
			Status:    status,
			CreatedAt: created,
			UpdatedAt: updated,
		}
	}

	tickets := []domain.Ticket{
		// resolved urgent: 2h and 4h resolution
		mk("u1", domain.TicketPriorityUrgent, domain.TicketStatusResolved, 10*time.Hour, 2*time.Hour),
		mk("u2", domain.TicketPriorityUrgent, domain.TicketStatusClosed, 10*time.Hour, 4*time.Hour),
		// open urgent past the 1h threshold: overdue
		mk("u3", domain.TicketPriorityUrgent, domain.TicketStatusOpen, 2*time.Hour, 0),
		// open low well within its 24h threshold
		mk("l1", domain.TicketPriorityLow, domain.TicketStatusOpen, 1*time.Hour, 0),
	}
	escalated := map[string]struct{}{"u3": {}}

	report := BuildSLAReport(tickets, domain.DefaultEscalationRules(), escalated, now)

	require.Equal(t, 4, report.TotalTickets)
	require.Equal(t, 2, report.ResolvedTickets)
	require.Equal(t, 1, report.OverdueTickets)
	require.Equal(t, 1, report.EscalatedTickets)

	urgent := report.Buckets[domain.TicketPriorityUrgent]
	require.Equal(t, 3, urgent.Total)
	require.Equal(t, 2, urgent.Resolved)
	require.InDelta(t, 3.0, urgent.MeanResolutionHours, 0.001)

	low := report.Buckets[domain.TicketPriorityLow]
	require.Equal(t, 1, low.Total)
	require.Zero(t, low.Resolved)
	require.Zero(t, low.MeanResolutionHours)

	require.InDelta(t, 3.0, report.OverallMeanResolutionHours, 0.001)
}

func TestSLAReportResolvedNeverOverdue(t *testing.T) {
	now := time.Now()
	ticket := domain.Ticket{
		ID:        "t1",
		Priority:  domain.TicketPriorityUrgent,
		Status:    domain.TicketStatusResolved,
		CreatedAt: now.Add(-100 * time.Hour),
		UpdatedAt: now,
	}

	report := BuildSLAReport([]domain.Ticket{ticket}, domain.DefaultEscalationRules(), nil, now)
	require.Zero(t, report.OverdueTickets)
}

func TestSLAReportUnknownPriorityNotOverdue(t *testing.T) {
	now := time.Now()
	ticket := domain.Ticket{
		ID:        "t1",
		Priority:  domain.TicketPriority("BESPOKE"),
		Status:    domain.TicketStatusOpen,
		CreatedAt: now.Add(-100 * time.Hour),
		UpdatedAt: now,
	}

	report := BuildSLAReport([]domain.Ticket{ticket}, domain.DefaultEscalationRules(), nil, now)
	require.Zero(t, report.OverdueTickets)
	require.Equal(t, 1, report.TotalTickets)
}
