package events

import "time"

// Name identifies a named wire event.
type Name string

// Inbound events accepted from clients after admission.
const (
	InboundEntityCreate     Name = "entity:create"
	InboundEntityUpdate     Name = "entity:update"
	InboundEntityDelete     Name = "entity:delete"
	InboundTicketAssign     Name = "ticket:assign"
	InboundNotificationRead Name = "notification:read"
	InboundUserActivity     Name = "user:activity"
)

// Outbound events delivered to clients.
const (
	OutboundEntityCreated   Name = "entity:created"
	OutboundEntityUpdated   Name = "entity:updated"
	OutboundEntityDeleted   Name = "entity:deleted"
	OutboundUserOnline      Name = "user:online"
	OutboundUserOffline     Name = "user:offline"
	OutboundNotificationNew Name = "notification:new"
	OutboundTicketAssigned  Name = "ticket:assigned"
	OutboundError           Name = "error"
	OutboundUnauthorized    Name = "unauthorized"
)

// Payload is an opaque JSON-like map. The hub does not validate
// domain-specific field shapes beyond an id for logging.
type Payload map[string]any

// ID extracts the payload's id field when present.
func (p Payload) ID() string {
	if p == nil {
		return ""
	}
	if id, ok := p["id"].(string); ok {
		return id
	}
	return ""
}

// Inbound is one named event read from a client connection.
type Inbound struct {
	Event   Name    `json:"event"`
	Payload Payload `json:"payload"`
}

// Outbound is one named event written to a client connection.
type Outbound struct {
	Event     Name      `json:"event"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}
