package construction

import (
	"fmt"
	"time"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contract is a construction contract under quality and property control.
// It owns its estimation lines and board members; batches sent from it are
// separate aggregates that reference it.
type Contract struct {
	shared.TenantAggregateRoot
	ProcurementContractID *uuid.UUID
	WarehouseID           *uuid.UUID
	ContractNumber        string
	ContractDate          *time.Time
	StartDate             *time.Time
	EndDate               *time.Time
	ProjectManagerID      *uuid.UUID
	Description           string
	State                 ContractState
	Lines                 []EstimationLine
	BoardMembers          []BoardMember
}

// ContractHeader carries the editable header fields of a contract
type ContractHeader struct {
	WarehouseID      *uuid.UUID
	ContractNumber   string
	ContractDate     *time.Time
	StartDate        *time.Time
	EndDate          *time.Time
	ProjectManagerID *uuid.UUID
	Description      string
}

// Validate checks the date range
func (h ContractHeader) Validate() error {
	if h.StartDate != nil && h.EndDate != nil && h.EndDate.Before(*h.StartDate) {
		return shared.NewDomainError("INVALID_INPUT", "Contract end date cannot be before its start date")
	}
	return nil
}

// NewContract creates a draft contract
func NewContract(tenantID uuid.UUID, header ContractHeader) (*Contract, error) {
	if err := header.Validate(); err != nil {
		return nil, err
	}
	c := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		State:               ContractStateDraft,
		Lines:               make([]EstimationLine, 0),
		BoardMembers:        make([]BoardMember, 0),
	}
	c.applyHeader(header)
	c.AddDomainEvent(NewContractCreatedEvent(c))
	return c, nil
}

// Update replaces the header fields
func (c *Contract) Update(header ContractHeader) error {
	if err := header.Validate(); err != nil {
		return err
	}
	c.applyHeader(header)
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Contract) applyHeader(h ContractHeader) {
	c.WarehouseID = h.WarehouseID
	c.ContractNumber = h.ContractNumber
	c.ContractDate = h.ContractDate
	c.StartDate = h.StartDate
	c.EndDate = h.EndDate
	c.ProjectManagerID = h.ProjectManagerID
	c.Description = h.Description
}

// LinkProcurementContract points the contract at an upstream procurement
// contract. When the reference changes, the number, dates and project manager
// are copied down from it. Linking the same contract again changes nothing and
// returns false.
func (c *Contract) LinkProcurementContract(pc *ProcurementContract) bool {
	if pc == nil {
		if c.ProcurementContractID == nil {
			return false
		}
		c.ProcurementContractID = nil
		c.UpdatedAt = time.Now()
		return true
	}
	if c.ProcurementContractID != nil && *c.ProcurementContractID == pc.ID {
		return false
	}

	id := pc.ID
	c.ProcurementContractID = &id
	c.ContractNumber = pc.ContractNumber
	c.ContractDate = pc.ContractDate
	c.StartDate = pc.StartDate
	c.EndDate = pc.EndDate
	c.ProjectManagerID = pc.ProjectManagerID
	c.UpdatedAt = time.Now()
	return true
}

// Origin is the reference stamped on batches sent from the contract
func (c *Contract) Origin() string {
	if c.ContractNumber != "" {
		return c.ContractNumber
	}
	return fmt.Sprintf("Contract-%s", c.ID)
}

// AddLine appends an estimation line
func (c *Contract) AddLine(in LineInput) (*EstimationLine, error) {
	line, err := newEstimationLine(c.ID, len(c.Lines), in)
	if err != nil {
		return nil, err
	}
	c.Lines = append(c.Lines, *line)
	c.UpdatedAt = time.Now()
	return &c.Lines[len(c.Lines)-1], nil
}

// UpdateLine replaces the editable fields of a line
func (c *Contract) UpdateLine(lineID uuid.UUID, in LineInput) (*EstimationLine, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	line := c.FindLine(lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}
	line.apply(in)
	c.UpdatedAt = time.Now()
	return line, nil
}

// RemoveLine drops a line together with its deliveries
func (c *Contract) RemoveLine(lineID uuid.UUID) error {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrLineNotFound
}

// FindLine returns the line with the given ID, or nil
func (c *Contract) FindLine(lineID uuid.UUID) *EstimationLine {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// RecordDelivery registers a partial delivery against a line. A nil date
// means today.
func (c *Contract) RecordDelivery(lineID uuid.UUID, qty decimal.Decimal, date *time.Time, notes string) (*LineDelivery, error) {
	line := c.FindLine(lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}
	delivery, err := newLineDelivery(lineID, qty, date, notes)
	if err != nil {
		return nil, err
	}
	line.Deliveries = append(line.Deliveries, *delivery)
	line.UpdatedAt = time.Now()
	c.UpdatedAt = time.Now()
	return delivery, nil
}

// AddBoardMember assigns an employee to one of the contract committees
func (c *Contract) AddBoardMember(in BoardMemberInput) (*BoardMember, error) {
	member, err := newBoardMember(c.ID, in)
	if err != nil {
		return nil, err
	}
	c.BoardMembers = append(c.BoardMembers, *member)
	c.UpdatedAt = time.Now()
	return &c.BoardMembers[len(c.BoardMembers)-1], nil
}

// RemoveBoardMember removes a board member
func (c *Contract) RemoveBoardMember(memberID uuid.UUID) error {
	for i := range c.BoardMembers {
		if c.BoardMembers[i].ID == memberID {
			c.BoardMembers = append(c.BoardMembers[:i], c.BoardMembers[i+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrBoardMemberNotFound
}

// StartProgress moves a draft contract to in_progress
func (c *Contract) StartProgress() error {
	return c.transitionTo(ContractStateInProgress)
}

// Complete moves an in_progress contract to done
func (c *Contract) Complete() error {
	return c.transitionTo(ContractStateDone)
}

// ResetToDraft moves an in_progress or done contract back to draft
func (c *Contract) ResetToDraft() error {
	return c.transitionTo(ContractStateDraft)
}

func (c *Contract) transitionTo(target ContractState) error {
	if !c.State.CanTransitionTo(target) {
		return invalidTransitionError(c.State, target)
	}
	from := c.State
	c.State = target
	c.UpdatedAt = time.Now()
	c.AddDomainEvent(NewContractStateChangedEvent(c, from))
	return nil
}

// EnsureDeletable fails for done contracts, whatever else holds
func (c *Contract) EnsureDeletable() error {
	if c.State == ContractStateDone {
		return ErrDeleteOfFinalizedContract
	}
	return nil
}

// MarkDeleted checks the deletion guard and records the deletion event
func (c *Contract) MarkDeleted() error {
	if err := c.EnsureDeletable(); err != nil {
		return err
	}
	c.AddDomainEvent(NewContractDeletedEvent(c))
	return nil
}

// PrepareDispatch builds the next batch of kind from the contract. It checks,
// in order, that the actor may dispatch, that a warehouse is set, that the
// procurement contract has a vendor on its accepted offer and that no batch of
// kind is still open, then reconciles the estimation lines against existing.
// The returned batch is not stored; the caller persists it in the same
// transaction that holds the contract lock.
func (c *Contract) PrepareDispatch(kind BatchKind, existing []*Batch, procurement *ProcurementContract, privileges ActorPrivileges) (*Batch, error) {
	if !privileges.CanDispatch {
		return nil, ErrDispatchNotPermitted
	}
	if c.WarehouseID == nil || *c.WarehouseID == uuid.Nil {
		return nil, ErrMissingWarehouse
	}
	if c.ProcurementContractID == nil {
		return nil, ErrMissingVendor
	}
	vendorID, ok := procurement.Vendor()
	if !ok {
		return nil, ErrMissingVendor
	}

	if err := AssertCanOpen(existing, kind); err != nil {
		return nil, err
	}

	requests, err := ComputeRemaining(c.Lines, existing, kind)
	if err != nil {
		return nil, err
	}

	batch, err := NewBatch(c.TenantID, c.ID, kind, c.Origin(), vendorID, *c.WarehouseID, requests)
	if err != nil {
		return nil, err
	}
	batch.SetCreatedBy(privileges.ActorID)
	return batch, nil
}
