package construction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProcurementContract is the upstream procurement agreement a construction
// contract is created from. It is owned by the procurement module and only
// read here.
type ProcurementContract struct {
	ID               uuid.UUID
	ContractNumber   string
	ContractDate     *time.Time
	StartDate        *time.Time
	EndDate          *time.Time
	ProjectManagerID *uuid.UUID
	AcceptedOffer    *ProcurementOffer
}

// ProcurementOffer is the winning offer of a procurement contract
type ProcurementOffer struct {
	ID       uuid.UUID
	VendorID *uuid.UUID
}

// Vendor returns the vendor of the accepted offer, if any
func (p *ProcurementContract) Vendor() (uuid.UUID, bool) {
	if p == nil || p.AcceptedOffer == nil || p.AcceptedOffer.VendorID == nil {
		return uuid.Nil, false
	}
	if *p.AcceptedOffer.VendorID == uuid.Nil {
		return uuid.Nil, false
	}
	return *p.AcceptedOffer.VendorID, true
}

// ProcurementContractReader reads procurement contracts
type ProcurementContractReader interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ProcurementContract, error)
}
