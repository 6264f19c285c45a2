package models

import (
	"time"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for the construction Contract aggregate root.
type ContractModel struct {
	TenantAggregateModel
	ProcurementContractID *uuid.UUID                 `gorm:"type:uuid;index"`
	WarehouseID           *uuid.UUID                 `gorm:"type:uuid;index"`
	ContractNumber        string                     `gorm:"type:varchar(100);index"`
	ContractDate          *time.Time                 `gorm:"type:date"`
	StartDate             *time.Time                 `gorm:"type:date"`
	EndDate               *time.Time                 `gorm:"type:date"`
	ProjectManagerID      *uuid.UUID                 `gorm:"type:uuid"`
	Description           string                     `gorm:"type:text"`
	State                 construction.ContractState `gorm:"type:varchar(20);not null;default:'draft';index"`
	Lines                 []EstimationLineModel      `gorm:"foreignKey:ContractID;references:ID"`
	BoardMembers          []BoardMemberModel         `gorm:"foreignKey:ContractID;references:ID"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "construction_contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *construction.Contract {
	c := &construction.Contract{
		ProcurementContractID: m.ProcurementContractID,
		WarehouseID:           m.WarehouseID,
		ContractNumber:        m.ContractNumber,
		ContractDate:          m.ContractDate,
		StartDate:             m.StartDate,
		EndDate:               m.EndDate,
		ProjectManagerID:      m.ProjectManagerID,
		Description:           m.Description,
		State:                 m.State,
		Lines:                 make([]construction.EstimationLine, len(m.Lines)),
		BoardMembers:          make([]construction.BoardMember, len(m.BoardMembers)),
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	for i := range m.Lines {
		c.Lines[i] = *m.Lines[i].ToDomain()
	}
	for i := range m.BoardMembers {
		c.BoardMembers[i] = *m.BoardMembers[i].ToDomain()
	}
	return c
}

// FromDomain populates the header columns from a domain Contract. Children
// are converted separately by the repository.
func (m *ContractModel) FromDomain(c *construction.Contract) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.ProcurementContractID = c.ProcurementContractID
	m.WarehouseID = c.WarehouseID
	m.ContractNumber = c.ContractNumber
	m.ContractDate = c.ContractDate
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.ProjectManagerID = c.ProjectManagerID
	m.Description = c.Description
	m.State = c.State
}

// ContractModelFromDomain creates a persistence model from a domain Contract
func ContractModelFromDomain(c *construction.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// EstimationLineModel is the persistence model for estimation lines.
type EstimationLineModel struct {
	BaseModel
	ContractID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID           *uuid.UUID          `gorm:"type:uuid;index"`
	ProductName         string              `gorm:"type:varchar(200)"`
	Description         string              `gorm:"type:text"`
	UnitMeasure         string              `gorm:"type:varchar(50)"`
	Details             string              `gorm:"type:text"`
	UnitPrice           decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	MaxQty              decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	FirstEstimationQty  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	SecondEstimationQty decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	SortOrder           int                 `gorm:"not null;default:0"`
	Deliveries          []LineDeliveryModel `gorm:"foreignKey:LineID;references:ID"`
}

// TableName returns the table name for GORM
func (EstimationLineModel) TableName() string {
	return "construction_estimation_lines"
}

// ToDomain converts the persistence model to a domain EstimationLine.
func (m *EstimationLineModel) ToDomain() *construction.EstimationLine {
	line := &construction.EstimationLine{
		BaseEntity:          m.BaseModel.ToDomain(),
		ContractID:          m.ContractID,
		ProductID:           m.ProductID,
		ProductName:         m.ProductName,
		Description:         m.Description,
		UnitMeasure:         m.UnitMeasure,
		Details:             m.Details,
		UnitPrice:           m.UnitPrice,
		MaxQty:              m.MaxQty,
		FirstEstimationQty:  m.FirstEstimationQty,
		SecondEstimationQty: m.SecondEstimationQty,
		SortOrder:           m.SortOrder,
		Deliveries:          make([]construction.LineDelivery, len(m.Deliveries)),
	}
	for i := range m.Deliveries {
		line.Deliveries[i] = *m.Deliveries[i].ToDomain()
	}
	return line
}

// EstimationLineModelFromDomain creates a persistence model from a domain EstimationLine
func EstimationLineModelFromDomain(l *construction.EstimationLine) *EstimationLineModel {
	m := &EstimationLineModel{
		ContractID:          l.ContractID,
		ProductID:           l.ProductID,
		ProductName:         l.ProductName,
		Description:         l.Description,
		UnitMeasure:         l.UnitMeasure,
		Details:             l.Details,
		UnitPrice:           l.UnitPrice,
		MaxQty:              l.MaxQty,
		FirstEstimationQty:  l.FirstEstimationQty,
		SecondEstimationQty: l.SecondEstimationQty,
		SortOrder:           l.SortOrder,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// LineDeliveryModel is the persistence model for partial deliveries.
type LineDeliveryModel struct {
	BaseModel
	LineID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Qty          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DeliveryDate time.Time       `gorm:"type:date;not null"`
	Notes        string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LineDeliveryModel) TableName() string {
	return "construction_line_deliveries"
}

// ToDomain converts the persistence model to a domain LineDelivery.
func (m *LineDeliveryModel) ToDomain() *construction.LineDelivery {
	return &construction.LineDelivery{
		BaseEntity:   m.BaseModel.ToDomain(),
		LineID:       m.LineID,
		Qty:          m.Qty,
		DeliveryDate: m.DeliveryDate,
		Notes:        m.Notes,
	}
}

// LineDeliveryModelFromDomain creates a persistence model from a domain LineDelivery
func LineDeliveryModelFromDomain(d *construction.LineDelivery) *LineDeliveryModel {
	m := &LineDeliveryModel{
		LineID:       d.LineID,
		Qty:          d.Qty,
		DeliveryDate: d.DeliveryDate,
		Notes:        d.Notes,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}

// BoardMemberModel is the persistence model for contract board members.
type BoardMemberModel struct {
	BaseModel
	ContractID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID              `gorm:"type:uuid;not null"`
	Name          string                 `gorm:"type:varchar(200)"`
	PositionTitle string                 `gorm:"type:varchar(200)"`
	Phone         string                 `gorm:"type:varchar(50)"`
	Email         string                 `gorm:"type:varchar(200)"`
	Role          construction.BoardRole `gorm:"type:varchar(30);not null"`
}

// TableName returns the table name for GORM
func (BoardMemberModel) TableName() string {
	return "construction_board_members"
}

// ToDomain converts the persistence model to a domain BoardMember.
func (m *BoardMemberModel) ToDomain() *construction.BoardMember {
	return &construction.BoardMember{
		BaseEntity:    m.BaseModel.ToDomain(),
		ContractID:    m.ContractID,
		EmployeeID:    m.EmployeeID,
		Name:          m.Name,
		PositionTitle: m.PositionTitle,
		Phone:         m.Phone,
		Email:         m.Email,
		Role:          m.Role,
	}
}

// BoardMemberModelFromDomain creates a persistence model from a domain BoardMember
func BoardMemberModelFromDomain(b *construction.BoardMember) *BoardMemberModel {
	m := &BoardMemberModel{
		ContractID:    b.ContractID,
		EmployeeID:    b.EmployeeID,
		Name:          b.Name,
		PositionTitle: b.PositionTitle,
		Phone:         b.Phone,
		Email:         b.Email,
		Role:          b.Role,
	}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// BatchModel is the persistence model for quality and property control batches.
type BatchModel struct {
	TenantAggregateModel
	ContractID  uuid.UUID               `gorm:"type:uuid;not null;index:idx_batch_contract_kind,priority:1"`
	Kind        construction.BatchKind  `gorm:"type:varchar(20);not null;index:idx_batch_contract_kind,priority:2"`
	Reference   string                  `gorm:"type:varchar(50);not null"`
	Origin      string                  `gorm:"type:varchar(200)"`
	VendorID    uuid.UUID               `gorm:"type:uuid;not null"`
	WarehouseID uuid.UUID               `gorm:"type:uuid;not null"`
	State       construction.BatchState `gorm:"type:varchar(20);not null;default:'draft'"`
	CompletedAt *time.Time
	Lines       []BatchLineModel `gorm:"foreignKey:BatchID;references:ID"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "control_batches"
}

// ToDomain converts the persistence model to a domain Batch.
func (m *BatchModel) ToDomain() *construction.Batch {
	b := &construction.Batch{
		ContractID:  m.ContractID,
		Kind:        m.Kind,
		Reference:   m.Reference,
		Origin:      m.Origin,
		VendorID:    m.VendorID,
		WarehouseID: m.WarehouseID,
		State:       m.State,
		CompletedAt: m.CompletedAt,
		Lines:       make([]construction.BatchLine, len(m.Lines)),
	}
	m.PopulateTenantAggregateRoot(&b.TenantAggregateRoot)
	for i := range m.Lines {
		b.Lines[i] = *m.Lines[i].ToDomain()
	}
	return b
}

// FromDomain populates the header columns from a domain Batch.
func (m *BatchModel) FromDomain(b *construction.Batch) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.ContractID = b.ContractID
	m.Kind = b.Kind
	m.Reference = b.Reference
	m.Origin = b.Origin
	m.VendorID = b.VendorID
	m.WarehouseID = b.WarehouseID
	m.State = b.State
	m.CompletedAt = b.CompletedAt
}

// BatchModelFromDomain creates a persistence model from a domain Batch
func BatchModelFromDomain(b *construction.Batch) *BatchModel {
	m := &BatchModel{}
	m.FromDomain(b)
	return m
}

// BatchLineModel is the persistence model for batch lines. KeyName is kept
// apart from Name because reconciliation matches on the estimation line
// description, which may be empty while the display name is not.
type BatchLineModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BatchID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:varchar(500)"`
	KeyName      string          `gorm:"type:text"`
	RequestedQty decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ApprovedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Passed       bool            `gorm:"not null;default:false"`
	SortOrder    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (BatchLineModel) TableName() string {
	return "control_batch_lines"
}

// ToDomain converts the persistence model to a domain BatchLine.
func (m *BatchLineModel) ToDomain() *construction.BatchLine {
	return &construction.BatchLine{
		ID:           m.ID,
		BatchID:      m.BatchID,
		ProductID:    m.ProductID,
		Name:         m.Name,
		KeyName:      m.KeyName,
		RequestedQty: m.RequestedQty,
		ApprovedQty:  m.ApprovedQty,
		UnitPrice:    m.UnitPrice,
		Passed:       m.Passed,
		SortOrder:    m.SortOrder,
	}
}

// BatchLineModelFromDomain creates a persistence model from a domain BatchLine
func BatchLineModelFromDomain(l *construction.BatchLine) *BatchLineModel {
	return &BatchLineModel{
		ID:           l.ID,
		BatchID:      l.BatchID,
		ProductID:    l.ProductID,
		Name:         l.Name,
		KeyName:      l.KeyName,
		RequestedQty: l.RequestedQty,
		ApprovedQty:  l.ApprovedQty,
		UnitPrice:    l.UnitPrice,
		Passed:       l.Passed,
		SortOrder:    l.SortOrder,
	}
}

// ContractNoteModel is the persistence model for the contract activity log.
type ContractNoteModel struct {
	BaseModel
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_note_tenant_contract,priority:1"`
	ContractID uuid.UUID  `gorm:"type:uuid;not null;index:idx_note_tenant_contract,priority:2"`
	Body       string     `gorm:"type:text;not null"`
	AuthorID   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ContractNoteModel) TableName() string {
	return "construction_contract_notes"
}

// ToDomain converts the persistence model to a domain ContractNote.
func (m *ContractNoteModel) ToDomain() *construction.ContractNote {
	return &construction.ContractNote{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		ContractID: m.ContractID,
		Body:       m.Body,
		AuthorID:   m.AuthorID,
	}
}

// ContractNoteModelFromDomain creates a persistence model from a domain ContractNote
func ContractNoteModelFromDomain(n *construction.ContractNote) *ContractNoteModel {
	m := &ContractNoteModel{
		TenantID:   n.TenantID,
		ContractID: n.ContractID,
		Body:       n.Body,
		AuthorID:   n.AuthorID,
	}
	m.FromDomainBaseEntity(n.BaseEntity)
	return m
}

// ProcurementContractModel maps the procurement module's contract table.
// This service only reads it.
type ProcurementContractModel struct {
	ID               uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID              `gorm:"type:uuid;not null;index"`
	ContractNumber   string                 `gorm:"type:varchar(100)"`
	ContractDate     *time.Time             `gorm:"type:date"`
	StartDate        *time.Time             `gorm:"type:date"`
	EndDate          *time.Time             `gorm:"type:date"`
	ProjectManagerID *uuid.UUID             `gorm:"type:uuid"`
	AcceptedOfferID  *uuid.UUID             `gorm:"type:uuid"`
	AcceptedOffer    *ProcurementOfferModel `gorm:"foreignKey:AcceptedOfferID;references:ID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (ProcurementContractModel) TableName() string {
	return "procurement_contracts"
}

// ToDomain converts the persistence model to a domain ProcurementContract.
func (m *ProcurementContractModel) ToDomain() *construction.ProcurementContract {
	pc := &construction.ProcurementContract{
		ID:               m.ID,
		ContractNumber:   m.ContractNumber,
		ContractDate:     m.ContractDate,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		ProjectManagerID: m.ProjectManagerID,
	}
	if m.AcceptedOffer != nil {
		pc.AcceptedOffer = &construction.ProcurementOffer{
			ID:       m.AcceptedOffer.ID,
			VendorID: m.AcceptedOffer.VendorID,
		}
	}
	return pc
}

// ProcurementOfferModel maps the procurement module's offer table.
type ProcurementOfferModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ContractID uuid.UUID  `gorm:"type:uuid;not null;index"`
	VendorID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (ProcurementOfferModel) TableName() string {
	return "procurement_offers"
}

// ConstructionModels lists the models owned by this service, in creation order
func ConstructionModels() []any {
	return []any{
		&ContractModel{},
		&EstimationLineModel{},
		&LineDeliveryModel{},
		&BoardMemberModel{},
		&BatchModel{},
		&BatchLineModel{},
		&ContractNoteModel{},
		&OutboxEntryModel{},
	}
}
