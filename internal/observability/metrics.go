package observability

import (
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the hub.
type Metrics struct {
	mu               sync.Mutex
	connections      int64
	broadcasts       int64
	framesDelivered  int64
	framesDropped    int64
	rateLimited      int64
	escalations      int64
	requestCount     map[string]int64
	errorCount       map[string]int64
	lastTickDuration time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordConnection adjusts the live connection gauge by delta.
func (m *Metrics) RecordConnection(delta int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections += delta
}

// RecordBroadcast counts one fan-out with its delivered/dropped split.
func (m *Metrics) RecordBroadcast(delivered, dropped int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcasts++
	m.framesDelivered += int64(delivered)
	m.framesDropped += int64(dropped)
}

// RecordRateLimited counts a denied inbound event.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

// RecordEscalations counts tickets escalated by a sweep and its duration.
func (m *Metrics) RecordEscalations(count int, tickDuration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations += int64(count)
	m.lastTickDuration = tickDuration
}

// RecordRequest increments counters for HTTP requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[requestKey(path, method, status)]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[path+"|"+method+"|"+code]++
}

// Snapshot returns a copy of the hub counters for reporting.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int64{
		"connections":      m.connections,
		"broadcasts":       m.broadcasts,
		"frames_delivered": m.framesDelivered,
		"frames_dropped":   m.framesDropped,
		"rate_limited":     m.rateLimited,
		"escalations":      m.escalations,
	}
}

func requestKey(path, method string, status int) string {
	return path + "|" + method + "|" + statusLabel(status)
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
