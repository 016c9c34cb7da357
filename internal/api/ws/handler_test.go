package ws

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-realtime/internal/auth"
	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/events"
	"github.com/spec-kit/crm-realtime/internal/notify"
	"github.com/spec-kit/crm-realtime/internal/observability"
	"github.com/spec-kit/crm-realtime/internal/realtime"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

type stubTicketRepo struct {
	ticket *domain.Ticket
	err    error
}

func (s *stubTicketRepo) ListOpen(context.Context) ([]domain.Ticket, error) { return nil, nil }

func (s *stubTicketRepo) ListByOrganization(context.Context, string) ([]domain.Ticket, error) {
	return nil, nil
}

func (s *stubTicketRepo) GetByID(context.Context, string) (*domain.Ticket, error) {
	return s.ticket, s.err
}

type stubRoles struct{}

func (stubRoles) ListActiveByRole(context.Context, string, domain.UserRole) ([]domain.User, error) {
	return nil, nil
}

func newTestHandler(limit int, tickets *stubTicketRepo) (*Handler, *realtime.Registry, *observability.Metrics) {
	registry := realtime.NewRegistry()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	router := realtime.NewRouter(registry, nil, metrics, logger)

	h := NewHandler(Dependencies{
		Registry: registry,
		Limiter:  realtime.NewRateLimiter(limit),
		Router:   router,
		Tickets:  tickets,
		Notifier: notify.NewDispatcher(notify.Dependencies{
			Sender: router,
			Roles:  stubRoles{},
			Ledger: notify.NewLedger(),
			Rules:  domain.DefaultEscalationRules(),
			Logger: logger,
		}),
		Metrics:        metrics,
		Logger:         logger,
		SendBufferSize: 8,
	})
	return h, registry, metrics
}

func admit(t *testing.T, registry *realtime.Registry, userID, orgID string) *realtime.Connection {
	t.Helper()
	conn := realtime.NewConnection(&auth.Identity{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           domain.UserRoleAgent,
	}, 8)
	registry.Admit(conn)
	return conn
}

func nextOutbound(t *testing.T, conn *realtime.Connection) events.Outbound {
	t.Helper()
	select {
	case out := <-conn.Outbox():
		return out
	default:
		t.Fatal("expected an outbound event")
		return events.Outbound{}
	}
}

func requireNoOutbound(t *testing.T, conn *realtime.Connection) {
	t.Helper()
	select {
	case out := <-conn.Outbox():
		t.Fatalf("unexpected outbound event %q", out.Event)
	default:
	}
}

func drainOutbound(conn *realtime.Connection) []events.Outbound {
	var out []events.Outbound
	for {
		select {
		case ev := <-conn.Outbox():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func strPtr(v string) *string { return &v }

func TestBlockedEventsForPlan(t *testing.T) {
	require.Contains(t, blockedEventsForPlan(domain.OrganizationPlanFree), events.InboundUserActivity)
	require.Empty(t, blockedEventsForPlan(domain.OrganizationPlanStarter))
	require.Empty(t, blockedEventsForPlan(domain.OrganizationPlanEnterprise))
}

func TestFreePlanCannotEmitUserActivity(t *testing.T) {
	h, registry, _ := newTestHandler(10, &stubTicketRepo{})
	conn := admit(t, registry, "u1", "org-a")

	activity := events.Inbound{Event: events.InboundUserActivity}
	h.handleInbound(context.Background(), conn, activity, blockedEventsForPlan(domain.OrganizationPlanFree))

	out := nextOutbound(t, conn)
	require.Equal(t, events.OutboundError, out.Event)
	require.Equal(t, apperrors.CodeForbidden, out.Payload["code"])

	// a paid plan passes the same event through without a warning
	h.handleInbound(context.Background(), conn, activity, blockedEventsForPlan(domain.OrganizationPlanEnterprise))
	requireNoOutbound(t, conn)
}

func TestRateLimitedEventWarnsAndKeepsConnection(t *testing.T) {
	h, registry, metrics := newTestHandler(1, &stubTicketRepo{})
	conn := admit(t, registry, "u1", "org-a")

	activity := events.Inbound{Event: events.InboundUserActivity}
	h.handleInbound(context.Background(), conn, activity, nil)
	requireNoOutbound(t, conn)

	h.handleInbound(context.Background(), conn, activity, nil)
	out := nextOutbound(t, conn)
	require.Equal(t, events.OutboundError, out.Event)
	require.Equal(t, apperrors.CodeRateLimitExceeded, out.Payload["code"])
	require.EqualValues(t, 1, metrics.Snapshot()["rate_limited"])

	// only the event is dropped; the connection is neither closed nor removed
	select {
	case <-conn.Done():
		t.Fatal("connection closed by rate limit denial")
	default:
	}
	_, live := registry.Get(conn.ID)
	require.True(t, live)
}

func TestUnknownEventWarns(t *testing.T) {
	h, registry, _ := newTestHandler(10, &stubTicketRepo{})
	conn := admit(t, registry, "u1", "org-a")

	h.handleInbound(context.Background(), conn, events.Inbound{Event: "bogus:event"}, nil)

	out := nextOutbound(t, conn)
	require.Equal(t, events.OutboundError, out.Event)
	require.Equal(t, apperrors.CodeValidationFailed, out.Payload["code"])
}

func TestEntityEventFanOutSkipsOrigin(t *testing.T) {
	h, registry, _ := newTestHandler(10, &stubTicketRepo{})
	origin := admit(t, registry, "u1", "org-a")
	peer := admit(t, registry, "u2", "org-a")
	foreign := admit(t, registry, "u3", "org-b")

	h.handleInbound(context.Background(), origin, events.Inbound{
		Event:   events.InboundEntityCreate,
		Payload: events.Payload{"id": "contact-1"},
	}, nil)

	out := nextOutbound(t, peer)
	require.Equal(t, events.OutboundEntityCreated, out.Event)
	require.Equal(t, "contact-1", out.Payload["id"])
	requireNoOutbound(t, origin)
	requireNoOutbound(t, foreign)
}

func TestTicketAssignNotifiesParticipants(t *testing.T) {
	ticket := &domain.Ticket{
		ID:             "t1",
		OrganizationID: "org-a",
		CreatorID:      "creator",
		AssigneeID:     strPtr("assignee"),
		Title:          "Printer down",
		Status:         domain.TicketStatusOpen,
		Priority:       domain.TicketPriorityHigh,
		CreatedAt:      time.Now().Add(-time.Hour),
		UpdatedAt:      time.Now(),
	}
	h, registry, _ := newTestHandler(10, &stubTicketRepo{ticket: ticket})
	origin := admit(t, registry, "u1", "org-a")
	assignee := admit(t, registry, "assignee", "org-a")

	err := h.handleTicketAssign(context.Background(), origin.ID, events.Inbound{
		Event:   events.InboundTicketAssign,
		Payload: events.Payload{"id": "t1"},
	})
	require.NoError(t, err)

	var names []events.Name
	for _, out := range drainOutbound(assignee) {
		names = append(names, out.Event)
	}
	require.Contains(t, names, events.OutboundTicketAssigned)
	require.Contains(t, names, events.OutboundNotificationNew)
}

func TestTicketAssignUnknownTicket(t *testing.T) {
	h, registry, _ := newTestHandler(10, &stubTicketRepo{err: pgx.ErrNoRows})
	origin := admit(t, registry, "u1", "org-a")

	err := h.handleTicketAssign(context.Background(), origin.ID, events.Inbound{
		Event:   events.InboundTicketAssign,
		Payload: events.Payload{"id": "missing"},
	})
	require.Error(t, err)
	require.Equal(t, apperrors.CodeNotFound, apperrors.ToDomainError(err).Code)
}

func TestTeardownRunsOnce(t *testing.T) {
	h, registry, metrics := newTestHandler(10, &stubTicketRepo{})
	conn := admit(t, registry, "u1", "org-a")
	observer := admit(t, registry, "u2", "org-a")
	metrics.RecordConnection(1)

	h.teardown(conn)
	h.teardown(conn)

	_, live := registry.Get(conn.ID)
	require.False(t, live)
	require.False(t, h.limiter.Tracked(conn.ID))
	require.EqualValues(t, 0, metrics.Snapshot()["connections"])

	// the offline announcement goes out exactly once
	offline := 0
	for _, out := range drainOutbound(observer) {
		if out.Event == events.OutboundUserOffline {
			offline++
		}
	}
	require.Equal(t, 1, offline)
}
