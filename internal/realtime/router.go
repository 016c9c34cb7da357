package realtime

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/crm-realtime/internal/events"
	"github.com/spec-kit/crm-realtime/internal/observability"
)

// Publisher relays broadcasts to peer hub instances. Implemented by the
// redis bridge; nil disables cross-instance fan-out.
type Publisher interface {
	Publish(orgID string, event events.Name, payload events.Payload)
}

// Router fans events out to live connections. Delivery is best-effort and
// non-blocking per recipient: a slow or dead connection drops its frame and
// never stalls the rest of the partition. Per-origin ordering holds because
// each connection's inbound events are routed from a single reader goroutine.
type Router struct {
	registry  *Registry
	publisher Publisher
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewRouter constructs a router over the registry. publisher may be nil.
func NewRouter(registry *Registry, publisher Publisher, metrics *observability.Metrics, logger *zap.Logger) *Router {
	return &Router{registry: registry, publisher: publisher, metrics: metrics, logger: logger}
}

// BroadcastToTenant delivers the event to every live connection in the
// organization's partition except exclude, when given.
func (r *Router) BroadcastToTenant(orgID string, event events.Name, payload events.Payload, exclude *Connection) {
	r.deliverLocal(orgID, event, payload, exclude)
	if r.publisher != nil {
		r.publisher.Publish(orgID, event, payload)
	}
}

// DeliverLocal fans out to this instance's connections only. The redis
// bridge uses it to replay remote events without re-publishing them.
func (r *Router) DeliverLocal(orgID string, event events.Name, payload events.Payload) {
	r.deliverLocal(orgID, event, payload, nil)
}

func (r *Router) deliverLocal(orgID string, event events.Name, payload events.Payload, exclude *Connection) {
	outbound := events.Outbound{Event: event, Payload: payload, Timestamp: time.Now()}

	delivered, dropped := 0, 0
	for _, conn := range r.registry.LiveConnections(orgID) {
		if exclude != nil && conn.ID == exclude.ID {
			continue
		}
		if conn.Enqueue(outbound) {
			delivered++
			continue
		}
		dropped++
		r.logger.Warn("dropped frame for slow or closed connection",
			zap.String("connection_id", conn.ID),
			zap.String("organization_id", orgID),
			zap.String("event", string(event)))
	}
	r.metrics.RecordBroadcast(delivered, dropped)
}

// SendToUser delivers the event to every connection owned by userID. Returns
// the number of connections that accepted the frame.
func (r *Router) SendToUser(userID string, event events.Name, payload events.Payload) int {
	outbound := events.Outbound{Event: event, Payload: payload, Timestamp: time.Now()}

	delivered, dropped := 0, 0
	for _, conn := range r.registry.ConnectionsForUser(userID) {
		if conn.Enqueue(outbound) {
			delivered++
			continue
		}
		dropped++
		r.logger.Warn("dropped frame for slow or closed connection",
			zap.String("connection_id", conn.ID),
			zap.String("user_id", userID),
			zap.String("event", string(event)))
	}
	r.metrics.RecordBroadcast(delivered, dropped)
	return delivered
}
