package construction

import (
	"context"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// InspectionService drives the inspection of batches: starting it, storing
// per-line results and closing the batch
type InspectionService struct {
	batchRepo       construction.BatchRepository
	contractRepo    construction.ContractRepository
	businessMetrics *telemetry.BusinessMetrics
}

// NewInspectionService creates a new InspectionService
func NewInspectionService(batchRepo construction.BatchRepository, contractRepo construction.ContractRepository) *InspectionService {
	return &InspectionService{
		batchRepo:    batchRepo,
		contractRepo: contractRepo,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *InspectionService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// GetBatch returns one batch
func (s *InspectionService) GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// ListBatches returns the batches created from a contract, optionally of one kind
func (s *InspectionService) ListBatches(ctx context.Context, tenantID, contractID uuid.UUID, kind *construction.BatchKind) ([]BatchResponse, error) {
	if _, err := s.contractRepo.FindByID(ctx, tenantID, contractID); err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindByContract(ctx, tenantID, contractID, kind)
	if err != nil {
		return nil, err
	}
	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, ToBatchResponse(b))
	}
	return out, nil
}

// StartInspection moves a draft batch to in_progress
func (s *InspectionService) StartInspection(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchResponse, error) {
	return s.mutate(ctx, tenantID, batchID, (*construction.Batch).StartInspection)
}

// RecordLineResult stores the approved quantity and pass flag of a line
func (s *InspectionService) RecordLineResult(ctx context.Context, tenantID, batchID, lineID uuid.UUID, req RecordLineResultRequest) (*BatchResponse, error) {
	return s.mutate(ctx, tenantID, batchID, func(b *construction.Batch) error {
		return b.RecordLineResult(lineID, req.ApprovedQty, req.Passed)
	})
}

// CompleteBatch closes a batch
func (s *InspectionService) CompleteBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchResponse, error) {
	response, err := s.mutate(ctx, tenantID, batchID, (*construction.Batch).Complete)
	if err != nil {
		return nil, err
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordBatchCompleted(ctx, tenantID, response.Kind)
	}
	return response, nil
}

func (s *InspectionService) mutate(ctx context.Context, tenantID, batchID uuid.UUID, fn func(*construction.Batch) error) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	if err := fn(batch); err != nil {
		return nil, err
	}
	if err := s.batchRepo.Save(ctx, batch); err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}
