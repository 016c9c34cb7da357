package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/observability"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

// ErrTickInProgress is returned when a sweep is requested while the previous
// one is still running. The due tick is skipped, never queued.
var ErrTickInProgress = errors.New("escalation tick already running")

// TicketSource is the read the sweep performs against the persistence
// collaborator.
type TicketSource interface {
	ListOpen(ctx context.Context) ([]domain.Ticket, error)
}

// NotificationDispatcher is the escalation side-effect sink.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, ticket domain.Ticket, kind domain.NotificationKind, extra map[string]string) (*domain.NotificationEvent, error)
}

// EscalationLedger is the dedup lookup the sweep consults before escalating.
type EscalationLedger interface {
	LastEscalation(ticketID, ruleID string) (time.Time, bool)
	Prune(cutoff time.Time)
}

// Escalation sweeps open tickets on a fixed interval and escalates overdue
// ones at most once per threshold window.
type Escalation struct {
	tickets    TicketSource
	dispatcher NotificationDispatcher
	ledger     EscalationLedger
	rules      domain.EscalationRules
	interval   time.Duration
	retention  time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger

	running sync.Mutex
	now     func() time.Time
}

// Config bundles scheduler construction parameters.
type Config struct {
	Tickets    TicketSource
	Dispatcher NotificationDispatcher
	Ledger     EscalationLedger
	Rules      domain.EscalationRules
	Interval   time.Duration
	Retention  time.Duration
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewEscalation creates the scheduler.
func NewEscalation(cfg Config) *Escalation {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &Escalation{
		tickets:    cfg.Tickets,
		dispatcher: cfg.Dispatcher,
		ledger:     cfg.Ledger,
		rules:      cfg.Rules,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Run ticks until ctx is cancelled. A failed tick is retried on the next
// natural interval; there is no immediate retry loop.
func (e *Escalation) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("escalation scheduler started", zap.Duration("interval", e.interval))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("escalation scheduler stopped")
			return
		case <-ticker.C:
			escalated, err := e.RunTick(ctx)
			switch {
			case errors.Is(err, ErrTickInProgress):
				e.logger.Warn("previous escalation tick still running, skipping")
			case err != nil:
				e.logger.Error("escalation tick failed", zap.Error(err))
			case len(escalated) > 0:
				e.logger.Info("escalated overdue tickets", zap.Int("count", len(escalated)))
			}
		}
	}
}

// RunTick performs one sweep and returns the tickets escalated by it.
// Per-ticket failures are logged and skipped so one bad record never aborts
// the rest of the sweep.
func (e *Escalation) RunTick(ctx context.Context) ([]domain.Ticket, error) {
	if !e.running.TryLock() {
		return nil, ErrTickInProgress
	}
	defer e.running.Unlock()

	start := e.now()
	tickets, err := e.tickets.ListOpen(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceUnavailable(err)
	}

	e.ledger.Prune(start.Add(-e.retention))

	var escalated []domain.Ticket
	for _, ticket := range tickets {
		if ticket.Status.Terminal() {
			continue
		}
		rule, ok := e.rules[ticket.Priority]
		if !ok {
			continue
		}
		if ticket.Age(start) <= rule.Threshold {
			continue
		}
		if last, found := e.ledger.LastEscalation(ticket.ID, rule.ID); found && start.Sub(last) < rule.Threshold {
			continue
		}

		extra := map[string]string{
			"escalated_to": string(rule.TargetRole),
			"reason":       fmt.Sprintf("exceeded %d hour threshold", int(rule.Threshold.Hours())),
		}
		if _, err := e.dispatcher.Dispatch(ctx, ticket, domain.NotificationKindEscalated, extra); err != nil {
			e.logger.Warn("escalation dispatch failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			continue
		}
		// the escalation goes to the target role; the people already on the
		// ticket get an overdue notice at the same cadence
		if _, err := e.dispatcher.Dispatch(ctx, ticket, domain.NotificationKindOverdue, nil); err != nil {
			e.logger.Warn("overdue notice dispatch failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
		escalated = append(escalated, ticket)
	}

	duration := e.now().Sub(start)
	e.metrics.RecordEscalations(len(escalated), duration)
	if duration > 2*e.interval {
		e.logger.Warn("escalation tick exceeded twice the interval",
			zap.Duration("duration", duration),
			zap.Duration("interval", e.interval))
	}
	return escalated, nil
}
