package ws

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-realtime/internal/auth"
	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/events"
	"github.com/spec-kit/crm-realtime/internal/notify"
	"github.com/spec-kit/crm-realtime/internal/observability"
	"github.com/spec-kit/crm-realtime/internal/realtime"
	"github.com/spec-kit/crm-realtime/internal/repository"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

// Handler serves the realtime connection channel: it authenticates the
// handshake, admits the connection into its tenant partition and pumps named
// events in both directions.
type Handler struct {
	verifier   *auth.Verifier
	registry   *realtime.Registry
	limiter    *realtime.RateLimiter
	router     *realtime.Router
	dispatcher events.Dispatcher
	orgs       repository.OrganizationRepository
	tickets    repository.TicketRepository
	notifier   *notify.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	bufferSize int
}

// Dependencies bundles handler collaborators.
type Dependencies struct {
	Verifier       *auth.Verifier
	Registry       *realtime.Registry
	Limiter        *realtime.RateLimiter
	Router         *realtime.Router
	Organizations  repository.OrganizationRepository
	Tickets        repository.TicketRepository
	Notifier       *notify.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	SendBufferSize int
}

// NewHandler creates the handler and wires the inbound dispatch table.
func NewHandler(deps Dependencies) *Handler {
	h := &Handler{
		verifier:   deps.Verifier,
		registry:   deps.Registry,
		limiter:    deps.Limiter,
		router:     deps.Router,
		dispatcher: events.NewDispatcher(),
		orgs:       deps.Organizations,
		tickets:    deps.Tickets,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		bufferSize: deps.SendBufferSize,
	}
	h.registerHandlers()
	return h
}

// Register mounts the websocket route on the app.
func (h *Handler) Register(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(h.serve))
}

func (h *Handler) serve(socket *websocket.Conn) {
	defer socket.Close()

	token := socket.Query("token")
	claimedOrg := socket.Query("org")

	identity, err := h.verifier.Verify(context.Background(), token, claimedOrg)
	if err != nil {
		h.refuse(socket, err)
		return
	}

	org, err := h.orgs.GetByID(context.Background(), identity.OrganizationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.refuse(socket, apperrors.NewAuthError(apperrors.CodeTenantMismatch, "organization not found"))
		} else {
			h.refuse(socket, apperrors.NewPersistenceUnavailable(err))
		}
		return
	}

	conn := realtime.NewConnection(identity, h.bufferSize)
	h.registry.Admit(conn)
	h.metrics.RecordConnection(1)
	h.logger.Info("connection admitted",
		zap.String("connection_id", conn.ID),
		zap.String("user_id", conn.UserID),
		zap.String("organization_id", conn.OrganizationID))

	h.router.BroadcastToTenant(conn.OrganizationID, events.OutboundUserOnline,
		events.Payload{"id": conn.UserID}, conn)

	defer h.teardown(conn)

	writeDone := make(chan struct{})
	go h.writePump(socket, conn, writeDone)

	blocked := blockedEventsForPlan(org.Plan)
	h.readLoop(socket, conn, blocked)

	conn.Close()
	<-writeDone
}

// readLoop pulls inbound events off the socket one at a time, preserving
// per-connection arrival order through dispatch.
func (h *Handler) readLoop(socket *websocket.Conn, conn *realtime.Connection, blocked map[events.Name]struct{}) {
	for {
		var inbound events.Inbound
		if err := socket.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("connection read failed",
					zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}
		h.handleInbound(context.Background(), conn, inbound, blocked)
	}
}

// handleInbound gates one inbound event through the rate limiter, the plan
// gate and the dispatch table. Every denial warns the client on its own
// channel and drops only the offending event; the connection stays open.
func (h *Handler) handleInbound(ctx context.Context, conn *realtime.Connection, inbound events.Inbound, blocked map[events.Name]struct{}) {
	if !h.limiter.Allow(conn.ID) {
		h.metrics.RecordRateLimited()
		h.warn(conn, apperrors.NewRateLimited(conn.ID))
		return
	}

	if _, isBlocked := blocked[inbound.Event]; isBlocked {
		h.warn(conn, apperrors.NewForbidden("event not available on current plan"))
		return
	}

	if !h.dispatcher.Known(inbound.Event) {
		h.warn(conn, apperrors.NewValidationError("unknown event", nil))
		return
	}

	if err := h.dispatcher.Dispatch(ctx, conn.ID, inbound); err != nil {
		h.logger.Warn("inbound event failed",
			zap.String("connection_id", conn.ID),
			zap.String("event", string(inbound.Event)),
			zap.String("payload_id", inbound.Payload.ID()),
			zap.Error(err))
	}
}

// warn sends a non-fatal error event back to the originating connection.
func (h *Handler) warn(conn *realtime.Connection, err error) {
	domainErr := apperrors.ToDomainError(err)
	conn.Enqueue(events.Outbound{
		Event: events.OutboundError,
		Payload: events.Payload{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		},
		Timestamp: time.Now(),
	})
}

func (h *Handler) writePump(socket *websocket.Conn, conn *realtime.Connection, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-conn.Done():
			return
		case outbound := <-conn.Outbox():
			if err := socket.WriteJSON(outbound); err != nil {
				h.logger.Warn("connection write failed",
					zap.String("connection_id", conn.ID), zap.Error(err))
				conn.Close()
				return
			}
		}
	}
}

// teardown is idempotent: only the call that actually removes the connection
// adjusts the gauge and announces the user offline.
func (h *Handler) teardown(conn *realtime.Connection) {
	conn.Close()
	h.limiter.Forget(conn.ID)
	if !h.registry.Remove(conn) {
		return
	}
	h.metrics.RecordConnection(-1)
	h.router.BroadcastToTenant(conn.OrganizationID, events.OutboundUserOffline,
		events.Payload{"id": conn.UserID}, nil)
	h.logger.Info("connection removed", zap.String("connection_id", conn.ID))
}

// refuse sends one terminal event before the transport closes.
func (h *Handler) refuse(socket *websocket.Conn, err error) {
	domainErr := apperrors.ToDomainError(err)
	_ = socket.WriteJSON(events.Outbound{
		Event: events.OutboundUnauthorized,
		Payload: events.Payload{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		},
		Timestamp: time.Now(),
	})
	h.logger.Info("connection refused", zap.String("code", domainErr.Code))
}

// registerHandlers wires the inbound dispatch table. Entity mutations fan
// out to the origin's tenant excluding the origin itself.
func (h *Handler) registerHandlers() {
	h.dispatcher.Register(events.InboundEntityCreate, h.entityHandler(events.OutboundEntityCreated))
	h.dispatcher.Register(events.InboundEntityUpdate, h.entityHandler(events.OutboundEntityUpdated))
	h.dispatcher.Register(events.InboundEntityDelete, h.entityHandler(events.OutboundEntityDeleted))
	h.dispatcher.Register(events.InboundTicketAssign, h.handleTicketAssign)
	h.dispatcher.Register(events.InboundNotificationRead, h.handleNotificationRead)
	h.dispatcher.Register(events.InboundUserActivity, h.handleUserActivity)
}

func (h *Handler) entityHandler(outbound events.Name) events.Handler {
	return func(ctx context.Context, connID string, event events.Inbound) error {
		conn, ok := h.registry.Get(connID)
		if !ok {
			return nil
		}
		h.router.BroadcastToTenant(conn.OrganizationID, outbound, event.Payload, conn)
		return nil
	}
}

func (h *Handler) handleTicketAssign(ctx context.Context, connID string, event events.Inbound) error {
	conn, ok := h.registry.Get(connID)
	if !ok {
		return nil
	}
	h.router.BroadcastToTenant(conn.OrganizationID, events.OutboundTicketAssigned, event.Payload, conn)

	ticketID := event.Payload.ID()
	if ticketID == "" {
		return nil
	}
	ticket, err := h.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.NewPersistenceUnavailable(err)
	}
	_, err = h.notifier.Dispatch(ctx, *ticket, domain.NotificationKindUpdated, nil)
	return err
}

func (h *Handler) handleNotificationRead(ctx context.Context, connID string, event events.Inbound) error {
	h.logger.Debug("notification read",
		zap.String("connection_id", connID),
		zap.String("notification_id", event.Payload.ID()))
	return nil
}

// handleUserActivity is a presence heartbeat; it has no fan-out of its own.
func (h *Handler) handleUserActivity(ctx context.Context, connID string, event events.Inbound) error {
	h.logger.Debug("user activity", zap.String("connection_id", connID))
	return nil
}

// blockedEventsForPlan gates inbound event categories by plan tier.
func blockedEventsForPlan(plan domain.OrganizationPlan) map[events.Name]struct{} {
	if plan == domain.OrganizationPlanFree {
		return map[events.Name]struct{}{
			events.InboundUserActivity: {},
		}
	}
	return nil
}
