package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-memory counters for HTTP traffic and for match/deal flow
// events. Counters reset on restart; they back ad-hoc inspection, not
// long-term reporting.
type Metrics struct {
	mu         sync.Mutex
	requests   map[string]int64
	errors     map[string]int64
	flowEvents map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests:   make(map[string]int64),
		errors:     make(map[string]int64),
		flowEvents: make(map[string]int64),
	}
}

// RecordRequest increments the counter for a completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
}

// RecordError increments the counter for a request that failed with the
// given error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

// RecordFlowEvent counts a domain event (match confirmed, deal status
// changed, stats refreshed).
func (m *Metrics) RecordFlowEvent(eventType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flowEvents[eventType]++
}

// FlowEvents returns a copy of the domain event counters.
func (m *Metrics) FlowEvents() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[string]int64, len(m.flowEvents))
	for key, count := range m.flowEvents {
		snapshot[key] = count
	}
	return snapshot
}
