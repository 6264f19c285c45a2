package construction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDuplicateDispatch is returned when an idempotency key is reused
var ErrDuplicateDispatch = shared.NewDomainError("DUPLICATE_REQUEST", "This dispatch request was already processed")

// DefaultDispatchKeyTTL is how long a dispatch idempotency key is remembered
const DefaultDispatchKeyTTL = 24 * time.Hour

// DispatchService sends contracts to quality control and property control.
// Each dispatch runs in one transaction that locks the contract row, so the
// open-batch check and the batch insert cannot interleave with another
// dispatch of the same contract.
type DispatchService struct {
	txScope         TransactionScope
	idempotency     shared.IdempotencyStore
	keyTTL          time.Duration
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewDispatchService creates a new DispatchService. Everything a dispatch
// reads comes from the repositories of its transaction scope.
func NewDispatchService(txScope TransactionScope, logger *zap.Logger) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		txScope: txScope,
		keyTTL:  DefaultDispatchKeyTTL,
		logger:  logger,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling
func (s *DispatchService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.keyTTL = ttl
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *DispatchService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SendToQualityControl creates a quality control batch for everything not yet approved
func (s *DispatchService) SendToQualityControl(ctx context.Context, tenantID, contractID uuid.UUID, privileges construction.ActorPrivileges, req DispatchRequest) (*DispatchResponse, error) {
	return s.dispatch(ctx, tenantID, contractID, construction.BatchKindQuality, privileges, req)
}

// SendToPropertyControl creates a property control batch for everything not yet handed over
func (s *DispatchService) SendToPropertyControl(ctx context.Context, tenantID, contractID uuid.UUID, privileges construction.ActorPrivileges, req DispatchRequest) (*DispatchResponse, error) {
	return s.dispatch(ctx, tenantID, contractID, construction.BatchKindProperty, privileges, req)
}

func (s *DispatchService) dispatch(
	ctx context.Context,
	tenantID, contractID uuid.UUID,
	kind construction.BatchKind,
	privileges construction.ActorPrivileges,
	req DispatchRequest,
) (*DispatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dispatch", string(kind),
		telemetry.SpanAttrContractID, contractID,
		telemetry.SpanAttrBatchKind, string(kind),
	)
	defer span.End()

	key := s.idempotencyKey(tenantID, contractID, kind, req.IdempotencyKey)
	if key != "" {
		seen, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			s.logger.Warn("idempotency lookup failed, dispatching anyway", zap.String("key", key), zap.Error(err))
		} else if seen {
			return nil, ErrDuplicateDispatch
		}
	}

	var batch *construction.Batch
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		contract, err := repos.Contracts.FindByIDForUpdate(ctx, tenantID, contractID)
		if err != nil {
			return err
		}

		existing, err := repos.Batches.FindByContract(ctx, tenantID, contractID, &kind)
		if err != nil {
			return err
		}

		procurement, err := loadProcurement(ctx, repos.Procurement, tenantID, contract)
		if err != nil {
			return err
		}

		batch, err = contract.PrepareDispatch(kind, existing, procurement, privileges)
		if err != nil {
			return err
		}

		if err := repos.Batches.Save(ctx, batch); err != nil {
			return err
		}
		return repos.Notes.Append(ctx, construction.NewDispatchNote(batch, privileges.ActorID))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordRejection(ctx, tenantID, kind, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrBatchID, batch.ID,
		telemetry.SpanAttrLineCount, len(batch.Lines),
	)

	if key != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, key, s.keyTTL); err != nil {
			s.logger.Warn("failed to remember idempotency key", zap.String("key", key), zap.Error(err))
		}
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordBatchDispatched(ctx, tenantID, string(kind), len(batch.Lines))
	}
	s.logger.Info("batch dispatched",
		zap.String("tenant_id", tenantID.String()),
		zap.String("contract_id", contractID.String()),
		zap.String("kind", string(kind)),
		zap.String("batch_id", batch.ID.String()),
		zap.String("reference", batch.Reference),
		zap.Int("line_count", len(batch.Lines)),
	)

	return &DispatchResponse{
		BatchID:   batch.ID,
		Kind:      string(batch.Kind),
		Reference: batch.Reference,
		LineCount: len(batch.Lines),
	}, nil
}

// loadProcurement returns the linked procurement contract, or nil when the
// contract has none or it no longer exists. A missing procurement contract
// surfaces as a missing vendor.
func loadProcurement(ctx context.Context, reader construction.ProcurementContractReader, tenantID uuid.UUID, contract *construction.Contract) (*construction.ProcurementContract, error) {
	if contract.ProcurementContractID == nil {
		return nil, nil
	}
	pc, err := reader.FindByID(ctx, tenantID, *contract.ProcurementContractID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load procurement contract: %w", err)
	}
	return pc, nil
}

func (s *DispatchService) idempotencyKey(tenantID, contractID uuid.UUID, kind construction.BatchKind, clientKey string) string {
	if s.idempotency == nil || clientKey == "" {
		return ""
	}
	return fmt.Sprintf("dispatch:%s:%s:%s:%s", tenantID, contractID, kind, clientKey)
}

func (s *DispatchService) recordRejection(ctx context.Context, tenantID uuid.UUID, kind construction.BatchKind, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		s.logger.Error("dispatch failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordDispatchRejected(ctx, tenantID, string(kind), domainErr.Code)
	}
}
