package construction

import (
	"context"
	"fmt"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"go.uber.org/zap"
)

// BatchCompletedHandler posts a note on the contract when one of its
// batches is closed
type BatchCompletedHandler struct {
	noteRepo construction.NoteRepository
	logger   *zap.Logger
}

// NewBatchCompletedHandler creates a new BatchCompletedHandler
func NewBatchCompletedHandler(noteRepo construction.NoteRepository, logger *zap.Logger) *BatchCompletedHandler {
	return &BatchCompletedHandler{
		noteRepo: noteRepo,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *BatchCompletedHandler) EventTypes() []string {
	return []string{construction.EventTypeBatchCompleted}
}

// Handle processes a BatchCompletedEvent
func (h *BatchCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*construction.BatchCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			construction.EventTypeBatchCompleted, event.EventType())
	}

	h.logger.Info("processing batch completed event",
		zap.String("batch_id", completed.BatchID.String()),
		zap.String("contract_id", completed.ContractID.String()),
		zap.String("reference", completed.Reference),
	)

	note := construction.NewBatchCompletedNote(completed.TenantID(), completed.ContractID, completed.Kind, completed.Reference)
	if err := h.noteRepo.Append(ctx, note); err != nil {
		return fmt.Errorf("append batch completed note: %w", err)
	}
	return nil
}
