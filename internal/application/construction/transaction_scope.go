package construction

import (
	"context"

	"github.com/egp/construction-control/internal/domain/construction"
)

// TransactionalRepositories are the repositories bound to one transaction.
// Reads made through them use the transaction's connection.
type TransactionalRepositories struct {
	Contracts   construction.ContractRepository
	Batches     construction.BatchRepository
	Notes       construction.NoteRepository
	Procurement construction.ProcurementContractReader
}

// TransactionScope runs fn inside a single database transaction. If fn
// returns an error every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope hands out the given repositories without a
// transaction. It is meant for tests that use in-memory fakes.
type NoOpTransactionScope struct {
	repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn with the configured repositories
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}
