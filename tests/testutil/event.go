// Package testutil provides helpers shared by the integration tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/egp/construction-control/internal/domain/shared"
)

// RecordingHandler records the events it receives. It is subscribed next to
// the real handlers to observe what the outbox relay delivers.
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewRecordingHandler creates a handler for eventTypes
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records event and returns the configured error
func (h *RecordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of the recorded events
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// Count returns how many events were recorded
func (h *RecordingHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes subsequent Handle calls fail with err
func (h *RecordingHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// WaitFor polls condition until it holds or timeout elapses
func WaitFor(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return condition()
}

// WaitForEvents waits until h has recorded at least n events
func WaitForEvents(t *testing.T, h *RecordingHandler, n int, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, func() bool { return h.Count() >= n }, timeout, 10*time.Millisecond)
}
