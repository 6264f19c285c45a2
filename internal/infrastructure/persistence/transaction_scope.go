package persistence

import (
	"context"

	appconstruction "github.com/egp/construction-control/internal/application/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to fn shares the same *gorm.DB transaction, so row
// locks taken through one are held until fn returns.
type GormTransactionScope struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope. outboxSaver may
// be nil, in which case domain events are not written to the outbox.
func NewGormTransactionScope(db *gorm.DB, outboxSaver shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outboxSaver: outboxSaver}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appconstruction.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.repositories(tx))
	})
}

func (s *GormTransactionScope) repositories(tx *gorm.DB) appconstruction.TransactionalRepositories {
	contracts := NewGormContractRepository(tx)
	batches := NewGormBatchRepository(tx)
	if s.outboxSaver != nil {
		contracts.SetOutboxEventSaver(s.outboxSaver)
		batches.SetOutboxEventSaver(s.outboxSaver)
	}
	return appconstruction.TransactionalRepositories{
		Contracts:   contracts,
		Batches:     batches,
		Notes:       NewGormNoteRepository(tx),
		Procurement: NewGormProcurementContractReader(tx),
	}
}

// Ensure GormTransactionScope implements TransactionScope
var _ appconstruction.TransactionScope = (*GormTransactionScope)(nil)
