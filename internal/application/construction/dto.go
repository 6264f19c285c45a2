package construction

import (
	"time"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Contract DTOs ====================

// CreateContractRequest represents a request to create a contract
type CreateContractRequest struct {
	ProcurementContractID *uuid.UUID         `json:"procurement_contract_id"`
	WarehouseID           *uuid.UUID         `json:"warehouse_id"`
	ContractNumber        string             `json:"contract_number" binding:"max=64"`
	ContractDate          *time.Time         `json:"contract_date"`
	StartDate             *time.Time         `json:"start_date"`
	EndDate               *time.Time         `json:"end_date"`
	ProjectManagerID      *uuid.UUID         `json:"project_manager_id"`
	Description           string             `json:"description"`
	Lines                 []LineRequestInput `json:"lines" binding:"dive"`
	CreatedBy             *uuid.UUID         `json:"-"`
}

// UpdateContractRequest replaces the header of a contract. Changing
// procurement_contract_id copies the upstream number, dates and project
// manager over the values sent here.
type UpdateContractRequest struct {
	ProcurementContractID *uuid.UUID `json:"procurement_contract_id"`
	WarehouseID           *uuid.UUID `json:"warehouse_id"`
	ContractNumber        string     `json:"contract_number" binding:"max=64"`
	ContractDate          *time.Time `json:"contract_date"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
	ProjectManagerID      *uuid.UUID `json:"project_manager_id"`
	Description           string     `json:"description"`
}

// LineRequestInput is an estimation line in create and update requests
type LineRequestInput struct {
	ProductID           *uuid.UUID      `json:"product_id"`
	ProductName         string          `json:"product_name" binding:"max=200"`
	Description         string          `json:"description"`
	UnitMeasure         string          `json:"unit_measure" binding:"max=20"`
	Details             string          `json:"details"`
	UnitPrice           decimal.Decimal `json:"unit_price" binding:"gte=0"`
	MaxQty              decimal.Decimal `json:"max_qty" binding:"gte=0"`
	FirstEstimationQty  decimal.Decimal `json:"first_estimation_qty" binding:"gte=0"`
	SecondEstimationQty decimal.Decimal `json:"second_estimation_qty" binding:"gte=0"`
}

func (in LineRequestInput) toDomain() construction.LineInput {
	return construction.LineInput{
		ProductID:           in.ProductID,
		ProductName:         in.ProductName,
		Description:         in.Description,
		UnitMeasure:         in.UnitMeasure,
		Details:             in.Details,
		UnitPrice:           in.UnitPrice,
		MaxQty:              in.MaxQty,
		FirstEstimationQty:  in.FirstEstimationQty,
		SecondEstimationQty: in.SecondEstimationQty,
	}
}

// RecordDeliveryRequest registers a partial delivery of a line
type RecordDeliveryRequest struct {
	Qty          decimal.Decimal `json:"qty" binding:"required"`
	DeliveryDate *time.Time      `json:"delivery_date"`
	Notes        string          `json:"notes"`
}

// AddBoardMemberRequest assigns an employee to a contract committee
type AddBoardMemberRequest struct {
	EmployeeID    uuid.UUID `json:"employee_id" binding:"required"`
	Name          string    `json:"name" binding:"max=200"`
	PositionTitle string    `json:"position_title" binding:"max=200"`
	Phone         string    `json:"phone" binding:"max=50"`
	Email         string    `json:"email" binding:"omitempty,email"`
	Role          string    `json:"role" binding:"required,oneof=pre_offer_opening offer_opening evaluation examination purchase complaint inspection"`
}

// ContractListFilter filters contract listings
type ContractListFilter struct {
	Search      string     `form:"search"`
	State       string     `form:"state" binding:"omitempty,oneof=draft in_progress done"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at contract_number start_date"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ContractResponse is the full view of a contract
type ContractResponse struct {
	ID                    uuid.UUID                `json:"id"`
	TenantID              uuid.UUID                `json:"tenant_id"`
	ProcurementContractID *uuid.UUID               `json:"procurement_contract_id,omitempty"`
	WarehouseID           *uuid.UUID               `json:"warehouse_id,omitempty"`
	ContractNumber        string                   `json:"contract_number"`
	ContractDate          *time.Time               `json:"contract_date,omitempty"`
	StartDate             *time.Time               `json:"start_date,omitempty"`
	EndDate               *time.Time               `json:"end_date,omitempty"`
	ProjectManagerID      *uuid.UUID               `json:"project_manager_id,omitempty"`
	Description           string                   `json:"description"`
	State                 string                   `json:"state"`
	Lines                 []EstimationLineResponse `json:"lines"`
	BoardMembers          []BoardMemberResponse    `json:"board_members"`
	TotalAmount           decimal.Decimal          `json:"total_amount"`
	PrivilegedOfficer     bool                     `json:"is_privileged_officer"`
	Version               int                      `json:"version"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// ContractListItemResponse is the list view of a contract
type ContractListItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ContractNumber string          `json:"contract_number"`
	WarehouseID    *uuid.UUID      `json:"warehouse_id,omitempty"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	State          string          `json:"state"`
	LineCount      int             `json:"line_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// EstimationLineResponse is an estimation line with its derived values
type EstimationLineResponse struct {
	ID                   uuid.UUID              `json:"id"`
	ProductID            *uuid.UUID             `json:"product_id,omitempty"`
	ProductName          string                 `json:"product_name"`
	Description          string                 `json:"description"`
	UnitMeasure          string                 `json:"unit_measure"`
	Details              string                 `json:"details"`
	UnitPrice            decimal.Decimal        `json:"unit_price"`
	MaxQty               decimal.Decimal        `json:"max_qty"`
	FirstEstimationQty   decimal.Decimal        `json:"first_estimation_qty"`
	SecondEstimationQty  decimal.Decimal        `json:"second_estimation_qty"`
	Subtotal             decimal.Decimal        `json:"sub_total"`
	EstimationDifference decimal.Decimal        `json:"estimation_difference"`
	Completed            bool                   `json:"completed"`
	DeliveredQty         decimal.Decimal        `json:"delivered_qty"`
	Deliveries           []LineDeliveryResponse `json:"deliveries"`
}

// LineDeliveryResponse is one partial delivery
type LineDeliveryResponse struct {
	ID           uuid.UUID       `json:"id"`
	Qty          decimal.Decimal `json:"qty"`
	DeliveryDate time.Time       `json:"delivery_date"`
	Notes        string          `json:"notes"`
}

// BoardMemberResponse is a board member
type BoardMemberResponse struct {
	ID            uuid.UUID `json:"id"`
	EmployeeID    uuid.UUID `json:"employee_id"`
	Name          string    `json:"name"`
	PositionTitle string    `json:"position_title"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
}

// NoteResponse is an entry of the contract activity log
type NoteResponse struct {
	ID        uuid.UUID  `json:"id"`
	Body      string     `json:"body"`
	AuthorID  *uuid.UUID `json:"author_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ==================== Batch DTOs ====================

// DispatchRequest carries the optional client idempotency key of a dispatch
type DispatchRequest struct {
	IdempotencyKey string
}

// DispatchResponse identifies the batch created by a dispatch
type DispatchResponse struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Kind      string    `json:"kind"`
	Reference string    `json:"reference"`
	LineCount int       `json:"line_count"`
}

// RecordLineResultRequest stores an inspection result on a batch line
type RecordLineResultRequest struct {
	ApprovedQty decimal.Decimal `json:"approved_qty" binding:"gte=0"`
	Passed      bool            `json:"passed"`
}

// BatchResponse is the full view of a batch
type BatchResponse struct {
	ID          uuid.UUID           `json:"id"`
	ContractID  uuid.UUID           `json:"contract_id"`
	Kind        string              `json:"kind"`
	Reference   string              `json:"reference"`
	Origin      string              `json:"origin"`
	VendorID    uuid.UUID           `json:"vendor_id"`
	WarehouseID uuid.UUID           `json:"warehouse_id"`
	State       string              `json:"state"`
	Lines       []BatchLineResponse `json:"lines"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// BatchLineResponse is one line of a batch
type BatchLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	RequestedQty  decimal.Decimal `json:"requested_qty"`
	ApprovedQty   decimal.Decimal `json:"approved_qty"`
	UnapprovedQty decimal.Decimal `json:"unapproved_qty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Passed        bool            `json:"passed"`
}

// ProductSummaryResponse is the approval rollup of one product
type ProductSummaryResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	ApprovedQty   decimal.Decimal `json:"approved_qty"`
	UnapprovedQty decimal.Decimal `json:"unapproved_qty"`
	AveragePrice  decimal.Decimal `json:"average_price"`
	LineCount     int             `json:"line_count"`
}

// ContractSummaryResponse is the rollup of all batches of a contract
type ContractSummaryResponse struct {
	ContractID uuid.UUID                `json:"contract_id"`
	Products   []ProductSummaryResponse `json:"products"`
}

// ==================== Mappers ====================

// ToContractResponse maps a contract to its full view
func ToContractResponse(c *construction.Contract) ContractResponse {
	lines := make([]EstimationLineResponse, 0, len(c.Lines))
	total := decimal.Zero
	for i := range c.Lines {
		line := &c.Lines[i]
		lines = append(lines, ToEstimationLineResponse(line))
		total = total.Add(line.Subtotal())
	}
	members := make([]BoardMemberResponse, 0, len(c.BoardMembers))
	for _, m := range c.BoardMembers {
		members = append(members, BoardMemberResponse{
			ID:            m.ID,
			EmployeeID:    m.EmployeeID,
			Name:          m.Name,
			PositionTitle: m.PositionTitle,
			Phone:         m.Phone,
			Email:         m.Email,
			Role:          string(m.Role),
		})
	}

	return ContractResponse{
		ID:                    c.ID,
		TenantID:              c.TenantID,
		ProcurementContractID: c.ProcurementContractID,
		WarehouseID:           c.WarehouseID,
		ContractNumber:        c.ContractNumber,
		ContractDate:          c.ContractDate,
		StartDate:             c.StartDate,
		EndDate:               c.EndDate,
		ProjectManagerID:      c.ProjectManagerID,
		Description:           c.Description,
		State:                 string(c.State),
		Lines:                 lines,
		BoardMembers:          members,
		TotalAmount:           total,
		Version:               c.Version,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

// ToContractListItemResponse maps a contract to its list view
func ToContractListItemResponse(c *construction.Contract) ContractListItemResponse {
	total := decimal.Zero
	for i := range c.Lines {
		total = total.Add(c.Lines[i].Subtotal())
	}
	return ContractListItemResponse{
		ID:             c.ID,
		ContractNumber: c.ContractNumber,
		WarehouseID:    c.WarehouseID,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		State:          string(c.State),
		LineCount:      len(c.Lines),
		TotalAmount:    total,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToEstimationLineResponse maps an estimation line including derived values
func ToEstimationLineResponse(l *construction.EstimationLine) EstimationLineResponse {
	deliveries := make([]LineDeliveryResponse, 0, len(l.Deliveries))
	for _, d := range l.Deliveries {
		deliveries = append(deliveries, LineDeliveryResponse{
			ID:           d.ID,
			Qty:          d.Qty,
			DeliveryDate: d.DeliveryDate,
			Notes:        d.Notes,
		})
	}
	return EstimationLineResponse{
		ID:                   l.ID,
		ProductID:            l.ProductID,
		ProductName:          l.ProductName,
		Description:          l.Description,
		UnitMeasure:          l.UnitMeasure,
		Details:              l.Details,
		UnitPrice:            l.UnitPrice,
		MaxQty:               l.MaxQty,
		FirstEstimationQty:   l.FirstEstimationQty,
		SecondEstimationQty:  l.SecondEstimationQty,
		Subtotal:             l.Subtotal(),
		EstimationDifference: l.EstimationDifference(),
		Completed:            l.Completed(),
		DeliveredQty:         l.DeliveredQty(),
		Deliveries:           deliveries,
	}
}

// ToBatchResponse maps a batch to its full view
func ToBatchResponse(b *construction.Batch) BatchResponse {
	lines := make([]BatchLineResponse, 0, len(b.Lines))
	for i := range b.Lines {
		l := &b.Lines[i]
		lines = append(lines, BatchLineResponse{
			ID:            l.ID,
			ProductID:     l.ProductID,
			Name:          l.Name,
			RequestedQty:  l.RequestedQty,
			ApprovedQty:   l.ApprovedQty,
			UnapprovedQty: l.UnapprovedQty(),
			UnitPrice:     l.UnitPrice,
			Passed:        l.Passed,
		})
	}
	return BatchResponse{
		ID:          b.ID,
		ContractID:  b.ContractID,
		Kind:        string(b.Kind),
		Reference:   b.Reference,
		Origin:      b.Origin,
		VendorID:    b.VendorID,
		WarehouseID: b.WarehouseID,
		State:       string(b.State),
		Lines:       lines,
		CompletedAt: b.CompletedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ToNoteResponse maps a contract note
func ToNoteResponse(n *construction.ContractNote) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Body:      n.Body,
		AuthorID:  n.AuthorID,
		CreatedAt: n.CreatedAt,
	}
}

// ToProductSummaryResponses maps a rollup
func ToProductSummaryResponses(summaries []construction.ProductSummary) []ProductSummaryResponse {
	out := make([]ProductSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, ProductSummaryResponse{
			ProductID:     s.ProductID,
			Name:          s.Name,
			ApprovedQty:   s.ApprovedQty,
			UnapprovedQty: s.UnapprovedQty,
			AveragePrice:  s.AveragePrice,
			LineCount:     s.LineCount,
		})
	}
	return out
}
