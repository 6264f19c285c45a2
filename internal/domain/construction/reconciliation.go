package construction

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is one line of a batch about to be created
type LineRequest struct {
	EstimationLineID uuid.UUID
	ProductID        uuid.UUID
	// Name is shown on the batch line: the description, else the product name
	Name string
	// KeyName is the description used for matching against later batches
	KeyName   string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Key returns the reconciliation key of the request
func (r LineRequest) Key() LineKey {
	return NewLineKey(r.ProductID, r.KeyName, r.UnitPrice)
}

// countsTowardsApproval reports whether a line of a batch of the given kind
// has its approved quantity subtracted from what is still sendable. Quality
// control approves line by line, property control accepts every line of the
// batch.
func countsTowardsApproval(kind BatchKind, line *BatchLine) bool {
	if kind == BatchKindProperty {
		return true
	}
	return line.Passed
}

// ApprovedQuantities sums approved quantity per key over the batches of kind
func ApprovedQuantities(batches []*Batch, kind BatchKind) map[LineKey]decimal.Decimal {
	approved := make(map[LineKey]decimal.Decimal)
	for _, b := range batches {
		if b == nil || b.Kind != kind {
			continue
		}
		for i := range b.Lines {
			line := &b.Lines[i]
			if !countsTowardsApproval(kind, line) {
				continue
			}
			key := line.Key()
			approved[key] = approved[key].Add(line.ApprovedQty)
		}
	}
	return approved
}

// ComputeRemaining returns, in estimation line order, the quantity of each
// line still to be sent to a batch of the given kind. Lines without a product
// or with no first estimation are skipped, and lines already fully approved
// are dropped. When nothing remains it fails with ErrAllQuantitiesSatisfied.
// The comparison against zero is exact.
func ComputeRemaining(lines []EstimationLine, batches []*Batch, kind BatchKind) ([]LineRequest, error) {
	approved := ApprovedQuantities(batches, kind)

	requests := make([]LineRequest, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		if !line.HasProduct() || !line.FirstEstimationQty.IsPositive() {
			continue
		}

		remaining := line.FirstEstimationQty.Sub(approved[line.Key()])
		if !remaining.IsPositive() {
			continue
		}

		requests = append(requests, LineRequest{
			EstimationLineID: line.ID,
			ProductID:        *line.ProductID,
			Name:             line.DisplayName(),
			KeyName:          line.Description,
			Quantity:         remaining,
			UnitPrice:        line.UnitPrice,
		})
	}

	if len(requests) == 0 {
		return nil, allQuantitiesSatisfiedError(kind)
	}
	return requests, nil
}
