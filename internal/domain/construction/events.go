package construction

import (
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type names
const (
	AggregateTypeContract = "Contract"
	AggregateTypeBatch    = "Batch"
)

// Event types
const (
	EventTypeContractCreated      = "ContractCreated"
	EventTypeContractStateChanged = "ContractStateChanged"
	EventTypeContractDeleted      = "ContractDeleted"
	EventTypeBatchCreated         = "BatchCreated"
	EventTypeBatchLineInspected   = "BatchLineInspected"
	EventTypeBatchCompleted       = "BatchCompleted"
)

// ContractCreatedEvent is recorded when a contract is created
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID     uuid.UUID `json:"contract_id"`
	ContractNumber string    `json:"contract_number"`
}

// NewContractCreatedEvent creates a ContractCreatedEvent
func NewContractCreatedEvent(c *Contract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCreated, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		ContractNumber:  c.ContractNumber,
	}
}

// ContractStateChangedEvent is recorded on every lifecycle transition
type ContractStateChangedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID     `json:"contract_id"`
	From       ContractState `json:"from"`
	To         ContractState `json:"to"`
}

// NewContractStateChangedEvent creates a ContractStateChangedEvent
func NewContractStateChangedEvent(c *Contract, from ContractState) *ContractStateChangedEvent {
	return &ContractStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractStateChanged, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		From:            from,
		To:              c.State,
	}
}

// ContractDeletedEvent is recorded when a contract is deleted
type ContractDeletedEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
}

// NewContractDeletedEvent creates a ContractDeletedEvent
func NewContractDeletedEvent(c *Contract) *ContractDeletedEvent {
	return &ContractDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractDeleted, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
	}
}

// BatchCreatedEvent is recorded when a contract is sent to quality or property control
type BatchCreatedEvent struct {
	shared.BaseDomainEvent
	BatchID      uuid.UUID       `json:"batch_id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	Kind         BatchKind       `json:"kind"`
	Reference    string          `json:"reference"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	LineCount    int             `json:"line_count"`
	RequestedQty decimal.Decimal `json:"requested_qty"`
}

// NewBatchCreatedEvent creates a BatchCreatedEvent
func NewBatchCreatedEvent(b *Batch) *BatchCreatedEvent {
	requested := decimal.Zero
	for i := range b.Lines {
		requested = requested.Add(b.Lines[i].RequestedQty)
	}
	return &BatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCreated, AggregateTypeBatch, b.ID, b.TenantID),
		BatchID:         b.ID,
		ContractID:      b.ContractID,
		Kind:            b.Kind,
		Reference:       b.Reference,
		VendorID:        b.VendorID,
		LineCount:       len(b.Lines),
		RequestedQty:    requested,
	}
}

// BatchLineInspectedEvent is recorded when an inspection result is stored on a line
type BatchLineInspectedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID       `json:"batch_id"`
	ContractID  uuid.UUID       `json:"contract_id"`
	LineID      uuid.UUID       `json:"line_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ApprovedQty decimal.Decimal `json:"approved_qty"`
	Passed      bool            `json:"passed"`
}

// NewBatchLineInspectedEvent creates a BatchLineInspectedEvent
func NewBatchLineInspectedEvent(b *Batch, line *BatchLine) *BatchLineInspectedEvent {
	return &BatchLineInspectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchLineInspected, AggregateTypeBatch, b.ID, b.TenantID),
		BatchID:         b.ID,
		ContractID:      b.ContractID,
		LineID:          line.ID,
		ProductID:       line.ProductID,
		ApprovedQty:     line.ApprovedQty,
		Passed:          line.Passed,
	}
}

// BatchCompletedEvent is recorded when a batch is closed
type BatchCompletedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID       `json:"batch_id"`
	ContractID  uuid.UUID       `json:"contract_id"`
	Kind        BatchKind       `json:"kind"`
	Reference   string          `json:"reference"`
	ApprovedQty decimal.Decimal `json:"approved_qty"`
}

// NewBatchCompletedEvent creates a BatchCompletedEvent
func NewBatchCompletedEvent(b *Batch) *BatchCompletedEvent {
	return &BatchCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCompleted, AggregateTypeBatch, b.ID, b.TenantID),
		BatchID:         b.ID,
		ContractID:      b.ContractID,
		Kind:            b.Kind,
		Reference:       b.Reference,
		ApprovedQty:     b.ApprovedTotal(),
	}
}
