package event

import (
	"context"
	"fmt"

	"github.com/egp/construction-control/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher writes domain events to the outbox inside the caller's
// transaction, so they commit or roll back with the aggregate
type OutboxPublisher struct {
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxPublisher creates a new OutboxPublisher
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// SetMaxRetries overrides the retry budget of new entries
func (p *OutboxPublisher) SetMaxRetries(n int) {
	p.maxRetries = n
}

// PublishWithTx serializes events and inserts them through tx
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, len(events))
	for i, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries[i] = shared.NewOutboxEntry(event, payload)
		if p.maxRetries > 0 {
			entries[i].MaxRetries = p.maxRetries
		}
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// SaveEvents implements shared.OutboxEventSaver. txProvider must be a *gorm.DB.
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider any, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}
	return p.PublishWithTx(ctx, tx, events...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
