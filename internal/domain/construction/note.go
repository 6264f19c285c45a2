package construction

import (
	"fmt"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractNote is an append-only message in a contract's activity log
type ContractNote struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	ContractID uuid.UUID
	Body       string
	AuthorID   *uuid.UUID
}

// NewContractNote creates a note authored by authorID, or by the system when
// authorID is nil
func NewContractNote(tenantID, contractID uuid.UUID, body string, authorID uuid.UUID) *ContractNote {
	n := &ContractNote{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ContractID: contractID,
		Body:       body,
	}
	if authorID != uuid.Nil {
		n.AuthorID = &authorID
	}
	return n
}

// NewDispatchNote records that a batch was sent from the contract
func NewDispatchNote(batch *Batch, authorID uuid.UUID) *ContractNote {
	body := fmt.Sprintf("%s created for pending/rejected products. Ref: %s", batch.Kind.ShortLabel(), batch.Reference)
	return NewContractNote(batch.TenantID, batch.ContractID, body, authorID)
}

// NewBatchCompletedNote records that a batch sent from the contract was closed
func NewBatchCompletedNote(tenantID, contractID uuid.UUID, kind BatchKind, reference string) *ContractNote {
	body := fmt.Sprintf("%s %s completed.", kind.Label(), reference)
	return NewContractNote(tenantID, contractID, body, uuid.Nil)
}
