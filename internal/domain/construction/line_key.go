package construction

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKey identifies an item class across batches: the same product with the
// same description at the same unit price. It is comparable and used as a map
// key.
type LineKey struct {
	ProductID uuid.UUID
	Name      string
	// UnitPrice holds the canonical decimal string, so 5 and 5.0000 compare equal
	UnitPrice string
}

// NewLineKey builds a key from its parts
func NewLineKey(productID uuid.UUID, name string, unitPrice decimal.Decimal) LineKey {
	return LineKey{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice.String(),
	}
}
