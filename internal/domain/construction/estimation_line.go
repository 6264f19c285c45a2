package construction

import (
	"time"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstimationLine is the contracted quantity and price of one product on a contract.
// Subtotal, difference, completion and delivered quantity are computed from the
// stored inputs on every call and never cached.
type EstimationLine struct {
	shared.BaseEntity
	ContractID          uuid.UUID
	ProductID           *uuid.UUID
	ProductName         string
	Description         string
	UnitMeasure         string
	Details             string
	UnitPrice           decimal.Decimal
	MaxQty              decimal.Decimal
	FirstEstimationQty  decimal.Decimal
	SecondEstimationQty decimal.Decimal
	SortOrder           int
	Deliveries          []LineDelivery
}

// LineInput carries the editable fields of an estimation line
type LineInput struct {
	ProductID           *uuid.UUID
	ProductName         string
	Description         string
	UnitMeasure         string
	Details             string
	UnitPrice           decimal.Decimal
	MaxQty              decimal.Decimal
	FirstEstimationQty  decimal.Decimal
	SecondEstimationQty decimal.Decimal
}

// QuantityScale is the number of fractional digits stored for quantities
// and prices
const QuantityScale = 4

// exceedsScale reports whether v would lose digits when stored
func exceedsScale(v decimal.Decimal) bool {
	return !v.Equal(v.Round(QuantityScale))
}

// Validate rejects negative quantities and prices, and values with more
// fractional digits than can be stored
func (in LineInput) Validate() error {
	for _, v := range []decimal.Decimal{in.UnitPrice, in.MaxQty, in.FirstEstimationQty, in.SecondEstimationQty} {
		if v.IsNegative() {
			return ErrInvalidQuantity
		}
		if exceedsScale(v) {
			return ErrQuantityPrecision
		}
	}
	return nil
}

func newEstimationLine(contractID uuid.UUID, sortOrder int, in LineInput) (*EstimationLine, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	line := &EstimationLine{
		BaseEntity: shared.NewBaseEntity(),
		ContractID: contractID,
		SortOrder:  sortOrder,
	}
	line.apply(in)
	return line, nil
}

func (l *EstimationLine) apply(in LineInput) {
	l.ProductID = in.ProductID
	l.ProductName = in.ProductName
	l.Description = in.Description
	l.UnitMeasure = in.UnitMeasure
	l.Details = in.Details
	l.UnitPrice = in.UnitPrice
	l.MaxQty = in.MaxQty
	l.FirstEstimationQty = in.FirstEstimationQty
	l.SecondEstimationQty = in.SecondEstimationQty
	l.UpdatedAt = time.Now()
}

// HasProduct reports whether a product is set on the line
func (l *EstimationLine) HasProduct() bool {
	return l.ProductID != nil && *l.ProductID != uuid.Nil
}

// Subtotal is first estimation times unit price, or zero when either is zero
func (l *EstimationLine) Subtotal() decimal.Decimal {
	if l.FirstEstimationQty.IsZero() || l.UnitPrice.IsZero() {
		return decimal.Zero
	}
	return l.FirstEstimationQty.Mul(l.UnitPrice)
}

// EstimationDifference is first minus second estimation
func (l *EstimationLine) EstimationDifference() decimal.Decimal {
	return l.FirstEstimationQty.Sub(l.SecondEstimationQty)
}

// Completed reports whether both estimations agree exactly
func (l *EstimationLine) Completed() bool {
	return l.EstimationDifference().IsZero()
}

// DeliveredQty sums the partial deliveries recorded against the line
func (l *EstimationLine) DeliveredQty() decimal.Decimal {
	total := decimal.Zero
	for _, d := range l.Deliveries {
		total = total.Add(d.Qty)
	}
	return total
}

// Key returns the reconciliation key of the line
func (l *EstimationLine) Key() LineKey {
	var productID uuid.UUID
	if l.ProductID != nil {
		productID = *l.ProductID
	}
	return NewLineKey(productID, l.Description, l.UnitPrice)
}

// DisplayName is the description, falling back to the product name
func (l *EstimationLine) DisplayName() string {
	if l.Description != "" {
		return l.Description
	}
	return l.ProductName
}

// LineDelivery is one partial delivery of an estimation line
type LineDelivery struct {
	shared.BaseEntity
	LineID       uuid.UUID
	Qty          decimal.Decimal
	DeliveryDate time.Time
	Notes        string
}

func newLineDelivery(lineID uuid.UUID, qty decimal.Decimal, date *time.Time, notes string) (*LineDelivery, error) {
	if !qty.IsPositive() {
		return nil, shared.NewDomainError(CodeInvalidQuantity, "Delivered quantity must be greater than zero")
	}
	if exceedsScale(qty) {
		return nil, ErrQuantityPrecision
	}
	d := &LineDelivery{
		BaseEntity: shared.NewBaseEntity(),
		LineID:     lineID,
		Qty:        qty,
		Notes:      notes,
	}
	if date != nil {
		d.DeliveryDate = *date
	} else {
		d.DeliveryDate = today()
	}
	return d, nil
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
