package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/crm-realtime/internal/auth"
	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/events"
)

// Connection is one live, authenticated client channel. The registry owns
// the only long-lived reference; the transport layer drains Outbox into the
// socket and calls Close on disconnect.
type Connection struct {
	ID             string
	UserID         string
	OrganizationID string
	Role           domain.UserRole
	AdmittedAt     time.Time

	send      chan events.Outbound
	closeOnce sync.Once
	done      chan struct{}
}

// NewConnection builds a connection for a verified identity. bufferSize caps
// the outbound queue; a full queue drops frames rather than blocking senders.
func NewConnection(identity *auth.Identity, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Connection{
		ID:             uuid.NewString(),
		UserID:         identity.UserID,
		OrganizationID: identity.OrganizationID,
		Role:           identity.Role,
		AdmittedAt:     time.Now(),
		send:           make(chan events.Outbound, bufferSize),
		done:           make(chan struct{}),
	}
}

// Enqueue offers an event to the connection without blocking. It reports
// false when the connection is closed or its buffer is full; the frame is
// dropped for this recipient only.
func (c *Connection) Enqueue(event events.Outbound) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// Outbox returns the channel the transport drains into the socket.
func (c *Connection) Outbox() <-chan events.Outbound {
	return c.send
}

// Done is closed when the connection is torn down.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down. Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
