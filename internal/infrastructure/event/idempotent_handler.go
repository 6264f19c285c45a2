package event

import (
	"context"
	"sync/atomic"

	"github.com/egp/construction-control/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyMetrics counts what idempotent handlers did with their events
type IdempotencyMetrics struct {
	Processed atomic.Int64
	Duplicate atomic.Int64
	Failed    atomic.Int64
}

// IdempotencyStats is a snapshot of IdempotencyMetrics
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// Stats returns a snapshot
func (m *IdempotencyMetrics) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: m.Processed.Load(),
		Duplicate: m.Duplicate.Load(),
		Failed:    m.Failed.Load(),
	}
}

// IdempotentHandler runs the wrapped handler at most once per event.
// The outbox relay delivers at least once, so a retry after a partial
// failure would otherwise post the same contract note twice.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	prefix  string
	logger  *zap.Logger
	metrics *IdempotencyMetrics
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the TTL and the enabled flag
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithIdempotencyMetrics shares a metrics instance between handlers
func WithIdempotencyMetrics(metrics *IdempotencyMetrics) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.metrics = metrics
	}
}

// WithKeyPrefix namespaces the stored keys. Two handlers of the same event
// need different prefixes or the second one is skipped.
func WithKeyPrefix(prefix string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.prefix = prefix
	}
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
		metrics: &IdempotencyMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event was already handled
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := h.key(event)
	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		// a store outage must not drop events; run the handler anyway
		h.logger.Warn("idempotency check failed, handling event anyway",
			zap.String("key", key),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.metrics.Duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("key", key),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.metrics.Failed.Add(1)
		// the key stays until its TTL expires
		return err
	}
	h.metrics.Processed.Add(1)
	return nil
}

// Metrics returns the handler's counters
func (h *IdempotentHandler) Metrics() *IdempotencyMetrics {
	return h.metrics
}

func (h *IdempotentHandler) key(event shared.DomainEvent) string {
	if h.prefix == "" {
		return event.EventID().String()
	}
	return h.prefix + ":" + event.EventID().String()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
