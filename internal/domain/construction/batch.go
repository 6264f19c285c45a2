package construction

import (
	"fmt"
	"strings"
	"time"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchKind tells quality control batches from property control batches
type BatchKind string

const (
	BatchKindQuality  BatchKind = "quality"
	BatchKindProperty BatchKind = "property"
)

// IsValid reports whether k is a known kind
func (k BatchKind) IsValid() bool {
	return k == BatchKindQuality || k == BatchKindProperty
}

// Label is the human name of the kind
func (k BatchKind) Label() string {
	if k == BatchKindProperty {
		return "Property Control"
	}
	return "Quality Control"
}

// ShortLabel is the abbreviation used in messages and references
func (k BatchKind) ShortLabel() string {
	if k == BatchKindProperty {
		return "PC"
	}
	return "QC"
}

// BatchState is the inspection state of a batch
type BatchState string

const (
	BatchStateDraft      BatchState = "draft"
	BatchStateInProgress BatchState = "in_progress"
	BatchStateDone       BatchState = "done"
)

// IsValid reports whether s is a known state
func (s BatchState) IsValid() bool {
	switch s {
	case BatchStateDraft, BatchStateInProgress, BatchStateDone:
		return true
	}
	return false
}

// IsOpen reports whether the batch is still being inspected
func (s BatchState) IsOpen() bool {
	return s != BatchStateDone
}

// BatchLine is one requested quantity inside a batch, annotated with the
// inspection outcome once the batch is inspected.
type BatchLine struct {
	ID           uuid.UUID
	BatchID      uuid.UUID
	ProductID    uuid.UUID
	Name         string
	KeyName      string
	RequestedQty decimal.Decimal
	ApprovedQty  decimal.Decimal
	UnitPrice    decimal.Decimal
	Passed       bool
	SortOrder    int
}

// Key returns the reconciliation key of the line
func (l *BatchLine) Key() LineKey {
	return NewLineKey(l.ProductID, l.KeyName, l.UnitPrice)
}

// UnapprovedQty is the requested quantity not approved
func (l *BatchLine) UnapprovedQty() decimal.Decimal {
	return l.RequestedQty.Sub(l.ApprovedQty)
}

// Batch is a quality control or property control record created from a
// contract. Its lines are fixed at creation; only the state and the per-line
// inspection results change afterwards.
type Batch struct {
	shared.TenantAggregateRoot
	ContractID  uuid.UUID
	Kind        BatchKind
	Reference   string
	Origin      string
	VendorID    uuid.UUID
	WarehouseID uuid.UUID
	State       BatchState
	Lines       []BatchLine
	CompletedAt *time.Time
}

// NewBatch creates a draft batch holding one line per request
func NewBatch(tenantID, contractID uuid.UUID, kind BatchKind, origin string, vendorID, warehouseID uuid.UUID, requests []LineRequest) (*Batch, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid batch kind: "+string(kind))
	}
	if len(requests) == 0 {
		return nil, allQuantitiesSatisfiedError(kind)
	}

	b := &Batch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContractID:          contractID,
		Kind:                kind,
		Origin:              origin,
		VendorID:            vendorID,
		WarehouseID:         warehouseID,
		State:               BatchStateDraft,
		Lines:               make([]BatchLine, 0, len(requests)),
	}
	b.Reference = fmt.Sprintf("%s/%s", kind.ShortLabel(), strings.ToUpper(b.ID.String()[:8]))

	for i, req := range requests {
		b.Lines = append(b.Lines, BatchLine{
			ID:           uuid.New(),
			BatchID:      b.ID,
			ProductID:    req.ProductID,
			Name:         req.Name,
			KeyName:      req.KeyName,
			RequestedQty: req.Quantity,
			ApprovedQty:  decimal.Zero,
			UnitPrice:    req.UnitPrice,
			SortOrder:    i,
		})
	}

	b.AddDomainEvent(NewBatchCreatedEvent(b))
	return b, nil
}

// StartInspection moves a draft batch to in_progress
func (b *Batch) StartInspection() error {
	if b.State != BatchStateDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start inspection of a batch in %s state", b.State))
	}
	b.State = BatchStateInProgress
	b.UpdatedAt = time.Now()
	return nil
}

// RecordLineResult stores the inspection outcome of one line. The approved
// quantity must lie between zero and the requested quantity.
func (b *Batch) RecordLineResult(lineID uuid.UUID, approvedQty decimal.Decimal, passed bool) error {
	if b.State == BatchStateDone {
		return ErrBatchClosed
	}
	line := b.findLine(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	if approvedQty.IsNegative() || approvedQty.GreaterThan(line.RequestedQty) {
		return shared.NewDomainError(CodeInvalidQuantity, fmt.Sprintf(
			"Approved quantity must be between 0 and %s", line.RequestedQty.String()))
	}
	if exceedsScale(approvedQty) {
		return ErrQuantityPrecision
	}

	line.ApprovedQty = approvedQty
	line.Passed = passed
	b.UpdatedAt = time.Now()
	b.AddDomainEvent(NewBatchLineInspectedEvent(b, line))
	return nil
}

// Complete closes the batch
func (b *Batch) Complete() error {
	if b.State == BatchStateDone {
		return ErrBatchClosed
	}
	now := time.Now()
	b.State = BatchStateDone
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.AddDomainEvent(NewBatchCompletedEvent(b))
	return nil
}

// ApprovedTotal sums the approved quantity of all lines
func (b *Batch) ApprovedTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range b.Lines {
		total = total.Add(b.Lines[i].ApprovedQty)
	}
	return total
}

func (b *Batch) findLine(lineID uuid.UUID) *BatchLine {
	for i := range b.Lines {
		if b.Lines[i].ID == lineID {
			return &b.Lines[i]
		}
	}
	return nil
}
