package construction

import (
	"context"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractFilter narrows contract listings
type ContractFilter struct {
	shared.Filter
	State       *ContractState
	WarehouseID *uuid.UUID
}

// ContractRepository persists contracts with their lines, deliveries and board members
type ContractRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
	// FindByIDForUpdate loads the contract and holds an exclusive row lock on
	// it until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ContractFilter) ([]*Contract, int64, error)
	// Save inserts or updates the contract and its children and writes pending
	// domain events to the outbox. Updates check the version.
	Save(ctx context.Context, contract *Contract) error
	// Delete removes the contract with its lines, deliveries and board members
	Delete(ctx context.Context, contract *Contract) error
}

// BatchRepository persists quality and property control batches
type BatchRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Batch, error)
	// FindByContract returns the batches of a contract, of one kind when kind is set
	FindByContract(ctx context.Context, tenantID, contractID uuid.UUID, kind *BatchKind) ([]*Batch, error)
	Save(ctx context.Context, batch *Batch) error
}

// NoteRepository stores the contract activity log
type NoteRepository interface {
	Append(ctx context.Context, note *ContractNote) error
	FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*ContractNote, error)
}
