package events

import (
	"context"
	"sync"
)

// Handler processes one inbound event from the origin connection identified
// by connID. Handlers run synchronously: each inbound event is handled to
// completion before the next is read from the same connection, which is what
// preserves per-connection ordering downstream.
type Handler func(ctx context.Context, connID string, event Inbound) error

// Dispatcher routes inbound events to the handler registered for their name.
type Dispatcher interface {
	Dispatch(ctx context.Context, connID string, event Inbound) error
	Register(name Name, handler Handler)
	// Known reports whether a handler is registered for name.
	Known(name Name) bool
}

type tableDispatcher struct {
	mu       sync.RWMutex
	handlers map[Name]Handler
}

// NewDispatcher creates an empty dispatch table.
func NewDispatcher() Dispatcher {
	return &tableDispatcher{handlers: make(map[Name]Handler)}
}

// Dispatch invokes the handler for the event name. Unknown names are ignored
// by returning nil; the caller decides whether to warn the client.
func (d *tableDispatcher) Dispatch(ctx context.Context, connID string, event Inbound) error {
	d.mu.RLock()
	handler := d.handlers[event.Event]
	d.mu.RUnlock()

	if handler == nil {
		return nil
	}
	return handler(ctx, connID, event)
}

// Register installs a handler for the given event name.
func (d *tableDispatcher) Register(name Name, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = handler
}

func (d *tableDispatcher) Known(name Name) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[name]
	return ok
}
