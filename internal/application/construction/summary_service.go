package construction

import (
	"context"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/google/uuid"
)

// SummaryService reports approved and unapproved quantities per product
type SummaryService struct {
	contractRepo construction.ContractRepository
	batchRepo    construction.BatchRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(contractRepo construction.ContractRepository, batchRepo construction.BatchRepository) *SummaryService {
	return &SummaryService{
		contractRepo: contractRepo,
		batchRepo:    batchRepo,
	}
}

// GetSummary folds every batch of the contract into a per-product rollup
func (s *SummaryService) GetSummary(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractSummaryResponse, error) {
	if _, err := s.contractRepo.FindByID(ctx, tenantID, contractID); err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindByContract(ctx, tenantID, contractID, nil)
	if err != nil {
		return nil, err
	}
	return &ContractSummaryResponse{
		ContractID: contractID,
		Products:   ToProductSummaryResponses(construction.Summarize(batches)),
	}, nil
}
