package construction

import (
	"context"
	"errors"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractService handles contract maintenance: header, lines, deliveries,
// board members and the lifecycle
type ContractService struct {
	contractRepo construction.ContractRepository
	noteRepo     construction.NoteRepository
	procurement  construction.ProcurementContractReader
}

// NewContractService creates a new ContractService
func NewContractService(
	contractRepo construction.ContractRepository,
	noteRepo construction.NoteRepository,
	procurement construction.ProcurementContractReader,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		noteRepo:     noteRepo,
		procurement:  procurement,
	}
}

// Create creates a draft contract, optionally linked to a procurement contract
func (s *ContractService) Create(ctx context.Context, tenantID uuid.UUID, req CreateContractRequest) (*ContractResponse, error) {
	contract, err := construction.NewContract(tenantID, construction.ContractHeader{
		WarehouseID:      req.WarehouseID,
		ContractNumber:   req.ContractNumber,
		ContractDate:     req.ContractDate,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		ProjectManagerID: req.ProjectManagerID,
		Description:      req.Description,
	})
	if err != nil {
		return nil, err
	}

	if req.ProcurementContractID != nil {
		if err := s.linkProcurement(ctx, tenantID, contract, req.ProcurementContractID); err != nil {
			return nil, err
		}
	}

	for _, line := range req.Lines {
		if _, err := contract.AddLine(line.toDomain()); err != nil {
			return nil, err
		}
	}

	if req.CreatedBy != nil {
		contract.SetCreatedBy(*req.CreatedBy)
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}

	response := ToContractResponse(contract)
	return &response, nil
}

// GetByID returns a contract. The privileged officer flag reflects the caller.
func (s *ContractService) GetByID(ctx context.Context, tenantID, contractID uuid.UUID, privileges construction.ActorPrivileges) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	response := ToContractResponse(contract)
	response.PrivilegedOfficer = privileges.PrivilegedOfficer
	return &response, nil
}

// List returns a page of contracts
func (s *ContractService) List(ctx context.Context, tenantID uuid.UUID, filter ContractListFilter) ([]ContractListItemResponse, int64, error) {
	domainFilter := construction.ContractFilter{Filter: shared.DefaultFilter()}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	domainFilter.WarehouseID = filter.WarehouseID
	if filter.State != "" {
		state := construction.ContractState(filter.State)
		if !state.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Invalid contract state: "+filter.State)
		}
		domainFilter.State = &state
	}

	contracts, total, err := s.contractRepo.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ContractListItemResponse, 0, len(contracts))
	for _, c := range contracts {
		items = append(items, ToContractListItemResponse(c))
	}
	return items, total, nil
}

// Update replaces the contract header. A changed procurement reference
// copies the upstream values down after the submitted ones are applied.
func (s *ContractService) Update(ctx context.Context, tenantID, contractID uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, func(contract *construction.Contract) error {
		if err := contract.Update(construction.ContractHeader{
			WarehouseID:      req.WarehouseID,
			ContractNumber:   req.ContractNumber,
			ContractDate:     req.ContractDate,
			StartDate:        req.StartDate,
			EndDate:          req.EndDate,
			ProjectManagerID: req.ProjectManagerID,
			Description:      req.Description,
		}); err != nil {
			return err
		}
		return s.linkProcurement(ctx, tenantID, contract, req.ProcurementContractID)
	})
}

// Delete deletes a contract that is not done, with its lines
func (s *ContractService) Delete(ctx context.Context, tenantID, contractID uuid.UUID) error {
	contract, err := s.contractRepo.FindByID(ctx, tenantID, contractID)
	if err != nil {
		return err
	}
	if err := contract.MarkDeleted(); err != nil {
		return err
	}
	return s.contractRepo.Delete(ctx, contract)
}

// AddLine appends an estimation line
func (s *ContractService) AddLine(ctx context.Context, tenantID, contractID uuid.UUID, req LineRequestInput) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, func(contract *construction.Contract) error {
		_, err := contract.AddLine(req.toDomain())
		return err
	})
}

// UpdateLine replaces an estimation line
func (s *ContractService) UpdateLine(ctx context.Context, tenantID, contractID, lineID uuid.UUID, req LineRequestInput) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, func(contract *construction.Contract) error {
		_, err := contract.UpdateLine(lineID, req.toDomain())
		return err
	})
}

// RemoveLine removes an estimation line and its deliveries
func (s *ContractService) RemoveLine(ctx context.Context, tenantID, contractID, lineID uuid.UUID) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, func(contract *construction.Contract) error {
		return contract.RemoveLine(lineID)
	})
}

// RecordDelivery registers a partial delivery against an estimation line
func (s *ContractService) RecordDelivery(ctx context.Context, tenantID, contractID, lineID uuid.UUID, req RecordDeliveryRequest) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, func(contract *construction.Contract) error {
		_, err := contract.RecordDelivery(lineID, req.Qty, req.DeliveryDate, req.Notes)
		return err
	})
}

// AddBoardMember assigns an employee to a contract committee
func (s *ContractService) AddBoardMember(ctx context.Context, tenantID, contractID uuid.UUID, req AddBoardMemberRequest) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, func(contract *construction.Contract) error {
		_, err := contract.AddBoardMember(construction.BoardMemberInput{
			EmployeeID:    req.EmployeeID,
			Name:          req.Name,
			PositionTitle: req.PositionTitle,
			Phone:         req.Phone,
			Email:         req.Email,
			Role:          construction.BoardRole(req.Role),
		})
		return err
	})
}

// RemoveBoardMember removes a board member
func (s *ContractService) RemoveBoardMember(ctx context.Context, tenantID, contractID, memberID uuid.UUID) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, func(contract *construction.Contract) error {
		return contract.RemoveBoardMember(memberID)
	})
}

// StartProgress moves the contract to in_progress
func (s *ContractService) StartProgress(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, (*construction.Contract).StartProgress)
}

// Complete moves the contract to done
func (s *ContractService) Complete(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, (*construction.Contract).Complete)
}

// ResetToDraft moves the contract back to draft
func (s *ContractService) ResetToDraft(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	return s.mutate(ctx, tenantID, contractID, (*construction.Contract).ResetToDraft)
}

// ListNotes returns the activity log of a contract, oldest first
func (s *ContractService) ListNotes(ctx context.Context, tenantID, contractID uuid.UUID) ([]NoteResponse, error) {
	if _, err := s.contractRepo.FindByID(ctx, tenantID, contractID); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.FindByContract(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, ToNoteResponse(n))
	}
	return out, nil
}

func (s *ContractService) mutate(ctx context.Context, tenantID, contractID uuid.UUID, fn func(*construction.Contract) error) (*ContractResponse, error) {
	contract, err := s.contractRepo.FindByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if err := fn(contract); err != nil {
		return nil, err
	}
	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}
	response := ToContractResponse(contract)
	return &response, nil
}

// linkProcurement resolves the procurement contract and links it. A nil id
// unlinks.
func (s *ContractService) linkProcurement(ctx context.Context, tenantID uuid.UUID, contract *construction.Contract, procurementID *uuid.UUID) error {
	if procurementID == nil {
		contract.LinkProcurementContract(nil)
		return nil
	}
	if contract.ProcurementContractID != nil && *contract.ProcurementContractID == *procurementID {
		return nil
	}

	pc, err := s.procurement.FindByID(ctx, tenantID, *procurementID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_INPUT", "Procurement contract not found")
		}
		return err
	}
	contract.LinkProcurementContract(pc)
	return nil
}
