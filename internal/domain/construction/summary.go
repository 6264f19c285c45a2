package construction

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSummary is the approval rollup of one product across batches
type ProductSummary struct {
	ProductID     uuid.UUID
	Name          string
	ApprovedQty   decimal.Decimal
	UnapprovedQty decimal.Decimal
	AveragePrice  decimal.Decimal
	LineCount     int
}

// Summarize groups the approved lines of the given batches by product.
// Quality lines contribute when passed, property lines when their batch is
// done. Products appear in the order they are first met.
func Summarize(batches []*Batch) []ProductSummary {
	index := make(map[uuid.UUID]int)
	priceTotals := make(map[uuid.UUID]decimal.Decimal)
	summaries := make([]ProductSummary, 0)

	for _, b := range batches {
		if b == nil {
			continue
		}
		for i := range b.Lines {
			line := &b.Lines[i]
			if !contributesToSummary(b, line) {
				continue
			}

			pos, ok := index[line.ProductID]
			if !ok {
				pos = len(summaries)
				index[line.ProductID] = pos
				summaries = append(summaries, ProductSummary{
					ProductID:     line.ProductID,
					Name:          line.Name,
					ApprovedQty:   decimal.Zero,
					UnapprovedQty: decimal.Zero,
				})
			}

			s := &summaries[pos]
			s.ApprovedQty = s.ApprovedQty.Add(line.ApprovedQty)
			s.UnapprovedQty = s.UnapprovedQty.Add(line.UnapprovedQty())
			s.LineCount++
			priceTotals[line.ProductID] = priceTotals[line.ProductID].Add(line.UnitPrice)
		}
	}

	for i := range summaries {
		s := &summaries[i]
		s.AveragePrice = priceTotals[s.ProductID].DivRound(decimal.NewFromInt(int64(s.LineCount)), 4)
	}
	return summaries
}

func contributesToSummary(b *Batch, line *BatchLine) bool {
	if b.Kind == BatchKindProperty {
		return b.State == BatchStateDone
	}
	return line.Passed
}
