package event

import (
	"context"
	"sync"
	"time"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxProcessorConfig holds relay settings
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupRetention time.Duration
}

// DefaultOutboxProcessorConfig returns the relay defaults
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupRetention: 7 * 24 * time.Hour,
	}
}

// OutboxProcessor relays committed outbox entries to the event bus.
// Old sent entries are removed by Cleanup, which the scheduler runs.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	eventBus   shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new OutboxProcessor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	eventBus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOutboxProcessorConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.CleanupRetention <= 0 {
		config.CleanupRetention = defaults.CleanupRetention
	}
	return &OutboxProcessor{
		repo:       repo,
		eventBus:   eventBus,
		serializer: serializer,
		config:     config,
		logger:     logger,
	}
}

// Start polls the outbox in the background until Stop or ctx is done
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.pollLoop(ctx)

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop waits for the current poll to finish or ctx to expire
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce relays one batch of pending entries and one of due retries.
// It returns the number of entries published.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	sent := 0

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending outbox entries", zap.Error(err))
		return sent
	}
	sent += p.relay(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable outbox entries", zap.Error(err))
		return sent
	}
	return sent + p.relay(ctx, retryable)
}

func (p *OutboxProcessor) relay(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim outbox entries", zap.Error(err))
		return 0
	}

	sent := 0
	for _, entry := range claimed {
		if p.relayEntry(ctx, entry) {
			sent++
		}
	}
	return sent
}

func (p *OutboxProcessor) relayEntry(ctx context.Context, entry *shared.OutboxEntry) bool {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.eventBus.Publish(ctx, event)
	}
	if err != nil {
		p.fail(ctx, entry, err)
		return false
	}

	entry.MarkSent()
	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to mark outbox entry as sent",
			zap.String("event_id", entry.EventID.String()),
			zap.Error(err),
		)
		return false
	}
	p.logger.Debug("outbox entry relayed",
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
	)
	return true
}

func (p *OutboxProcessor) fail(ctx context.Context, entry *shared.OutboxEntry, cause error) {
	entry.MarkFailed(cause.Error())

	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_type", entry.AggregateType),
		zap.String("aggregate_id", entry.AggregateID.String()),
		zap.Int("retry_count", entry.RetryCount),
		zap.Error(cause),
	}
	if entry.IsDead() {
		p.logger.Warn("outbox entry is dead, giving up", fields...)
	} else {
		p.logger.Error("failed to relay outbox entry", fields...)
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to update outbox entry", zap.Error(err))
	}
}

// Cleanup removes sent entries older than the retention period
func (p *OutboxProcessor) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		p.logger.Info("cleaned up outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}
