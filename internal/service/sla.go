package service

import (
	"time"

	"github.com/spec-kit/crm-realtime/internal/domain"
)

// SLABucket aggregates one priority's tickets.
type SLABucket struct {
	Total               int     `json:"total"`
	Resolved            int     `json:"resolved"`
	MeanResolutionHours float64 `json:"mean_resolution_hours"`
}

// SLAReport is the on-demand aggregate over a ticket set.
type SLAReport struct {
	Buckets                    map[domain.TicketPriority]SLABucket `json:"buckets"`
	TotalTickets               int                                 `json:"total_tickets"`
	ResolvedTickets            int                                 `json:"resolved_tickets"`
	OverallMeanResolutionHours float64                             `json:"overall_mean_resolution_hours"`
	OverdueTickets             int                                 `json:"overdue_tickets"`
	EscalatedTickets           int                                 `json:"escalated_tickets"`
}

// BuildSLAReport computes per-priority counts, mean resolution times, overdue
// counts and escalated-ticket counts. Pure: no mutation, no I/O, safe to
// call at arbitrary frequency. escalated is the ledger's snapshot of ticket
// ids with at least one escalation entry.
func BuildSLAReport(tickets []domain.Ticket, rules domain.EscalationRules, escalated map[string]struct{}, now time.Time) SLAReport {
	report := SLAReport{
		Buckets: make(map[domain.TicketPriority]SLABucket),
	}

	resolutionByPriority := make(map[domain.TicketPriority]time.Duration)
	var totalResolution time.Duration

	for _, ticket := range tickets {
		bucket := report.Buckets[ticket.Priority]
		bucket.Total++
		report.TotalTickets++

		if ticket.Status.Terminal() {
			bucket.Resolved++
			report.ResolvedTickets++
			resolution := ticket.ResolutionTime()
			resolutionByPriority[ticket.Priority] += resolution
			totalResolution += resolution
		} else if rule, ok := rules[ticket.Priority]; ok && ticket.Age(now) > rule.Threshold {
			report.OverdueTickets++
		}
		report.Buckets[ticket.Priority] = bucket

		if _, ok := escalated[ticket.ID]; ok {
			report.EscalatedTickets++
		}
	}

	for priority, bucket := range report.Buckets {
		if bucket.Resolved > 0 {
			bucket.MeanResolutionHours = resolutionByPriority[priority].Hours() / float64(bucket.Resolved)
			report.Buckets[priority] = bucket
		}
	}
	if report.ResolvedTickets > 0 {
		report.OverallMeanResolutionHours = totalResolution.Hours() / float64(report.ResolvedTickets)
	}
	return report
}
