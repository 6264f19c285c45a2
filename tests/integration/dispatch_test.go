//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appconstruction "github.com/egp/construction-control/internal/application/construction"
	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/event"
	"github.com/egp/construction-control/internal/infrastructure/persistence"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/egp/construction-control/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stack is the service graph of cmd/server on a real database
type stack struct {
	db         *TestDB
	contracts  *appconstruction.ContractService
	dispatch   *appconstruction.DispatchService
	inspection *appconstruction.InspectionService
	summary    *appconstruction.SummaryService
	outbox     *event.GormOutboxRepository
	processor  *event.OutboxProcessor
	recorder   *testutil.RecordingHandler
}

func newStack(t *testing.T) *stack {
	t.Helper()
	tdb := NewTestDB(t)
	log := zap.NewNop()

	serializer := event.NewEventSerializer()
	event.RegisterConstructionEvents(serializer)
	publisher := event.NewOutboxPublisher(serializer)
	outboxRepo := event.NewGormOutboxRepository(tdb.DB)

	contractRepo := persistence.NewGormContractRepository(tdb.DB)
	contractRepo.SetOutboxEventSaver(publisher)
	batchRepo := persistence.NewGormBatchRepository(tdb.DB)
	batchRepo.SetOutboxEventSaver(publisher)
	noteRepo := persistence.NewGormNoteRepository(tdb.DB)
	procurement := persistence.NewGormProcurementContractReader(tdb.DB)
	txScope := persistence.NewGormTransactionScope(tdb.DB, publisher)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appconstruction.NewBatchCompletedHandler(noteRepo, log))
	recorder := testutil.NewRecordingHandler(construction.EventTypeBatchCreated, construction.EventTypeBatchCompleted)
	bus.Subscribe(recorder)
	require.NoError(t, bus.Start(context.Background()))

	return &stack{
		db:         tdb,
		contracts:  appconstruction.NewContractService(contractRepo, noteRepo, procurement),
		dispatch:   appconstruction.NewDispatchService(txScope, log),
		inspection: appconstruction.NewInspectionService(batchRepo, contractRepo),
		summary:    appconstruction.NewSummaryService(contractRepo, batchRepo),
		outbox:     outboxRepo,
		processor: event.NewOutboxProcessor(outboxRepo, bus, serializer, event.OutboxProcessorConfig{
			BatchSize:        50,
			PollInterval:     50 * time.Millisecond,
			CleanupRetention: time.Hour,
		}, log),
		recorder: recorder,
	}
}

// seedContract stores a procurement contract with an accepted offer and a
// construction contract linked to it with one line of 10 estimated units
func (s *stack) seedContract(t *testing.T, tenantID uuid.UUID) *appconstruction.ContractResponse {
	t.Helper()
	vendorID := uuid.New()
	offer := models.ProcurementOfferModel{ID: uuid.New(), TenantID: tenantID, ContractID: uuid.New(), VendorID: &vendorID}
	require.NoError(t, s.db.DB.Create(&offer).Error)
	pc := models.ProcurementContractModel{ID: uuid.New(), TenantID: tenantID, ContractNumber: "PROC-INT-1", AcceptedOfferID: &offer.ID}
	require.NoError(t, s.db.DB.Create(&pc).Error)

	warehouseID := uuid.New()
	productID := uuid.New()
	contract, err := s.contracts.Create(context.Background(), tenantID, appconstruction.CreateContractRequest{
		ProcurementContractID: &pc.ID,
		WarehouseID:           &warehouseID,
		Description:           "Road resurfacing",
		Lines: []appconstruction.LineRequestInput{{
			ProductID:          &productID,
			ProductName:        "Asphalt",
			UnitMeasure:        "t",
			UnitPrice:          decimal.NewFromInt(80),
			MaxQty:             decimal.NewFromInt(12),
			FirstEstimationQty: decimal.NewFromInt(10),
		}},
	})
	require.NoError(t, err)
	return contract
}

func domainCode(err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func TestDispatch_ConcurrentRequestsCreateOneBatch(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	tenantID := uuid.New()
	contract := s.seedContract(t, tenantID)
	privileges := construction.ActorPrivileges{ActorID: uuid.New(), CanDispatch: true}

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		codes     []string
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.dispatch.SendToQualityControl(ctx, tenantID, contract.ID, privileges, appconstruction.DispatchRequest{})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			codes = append(codes, domainCode(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	require.Len(t, codes, workers-1)
	for _, code := range codes {
		assert.Equal(t, construction.CodeOpenBatchExists, code)
	}

	batches, err := s.inspection.ListBatches(ctx, tenantID, contract.ID, nil)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, string(construction.BatchKindQuality), batches[0].Kind)
	require.Len(t, batches[0].Lines, 1)
	assert.True(t, batches[0].Lines[0].RequestedQty.Equal(decimal.NewFromInt(10)))
}

func TestDispatch_CompletionFlowsThroughOutbox(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	tenantID := uuid.New()
	contract := s.seedContract(t, tenantID)
	actor := uuid.New()
	privileges := construction.ActorPrivileges{ActorID: actor, CanDispatch: true}

	dispatched, err := s.dispatch.SendToQualityControl(ctx, tenantID, contract.ID, privileges, appconstruction.DispatchRequest{})
	require.NoError(t, err)

	var pending int64
	require.NoError(t, s.db.DB.Model(&models.OutboxEntryModel{}).
		Where("tenant_id = ? AND event_type = ?", tenantID, construction.EventTypeBatchCreated).
		Count(&pending).Error)
	assert.Equal(t, int64(1), pending)

	batch, err := s.inspection.StartInspection(ctx, tenantID, dispatched.BatchID)
	require.NoError(t, err)
	_, err = s.inspection.RecordLineResult(ctx, tenantID, batch.ID, batch.Lines[0].ID, appconstruction.RecordLineResultRequest{
		ApprovedQty: decimal.NewFromInt(6),
		Passed:      true,
	})
	require.NoError(t, err)
	_, err = s.inspection.CompleteBatch(ctx, tenantID, batch.ID)
	require.NoError(t, err)

	require.NoError(t, s.processor.Start(ctx))
	t.Cleanup(func() { _ = s.processor.Stop(context.Background()) })
	require.True(t, testutil.WaitForEvents(t, s.recorder, 2, 5*time.Second), "outbox relay did not deliver")

	types := make([]string, 0, 2)
	for _, e := range s.recorder.Handled() {
		types = append(types, e.EventType())
	}
	assert.ElementsMatch(t, []string{construction.EventTypeBatchCreated, construction.EventTypeBatchCompleted}, types)

	notes, err := s.contracts.ListNotes(ctx, tenantID, contract.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	var authored int
	for _, n := range notes {
		if n.AuthorID != nil && *n.AuthorID == actor {
			authored++
		}
	}
	assert.Equal(t, 1, authored, "only the dispatch note carries an author")

	t.Run("a second dispatch covers the remainder", func(t *testing.T) {
		next, err := s.dispatch.SendToQualityControl(ctx, tenantID, contract.ID, privileges, appconstruction.DispatchRequest{})
		require.NoError(t, err)
		b, err := s.inspection.GetBatch(ctx, tenantID, next.BatchID)
		require.NoError(t, err)
		require.Len(t, b.Lines, 1)
		assert.True(t, b.Lines[0].RequestedQty.Equal(decimal.NewFromInt(4)))
	})

	t.Run("summary", func(t *testing.T) {
		summary, err := s.summary.GetSummary(ctx, tenantID, contract.ID)
		require.NoError(t, err)
		require.Len(t, summary.Products, 1)
		assert.True(t, summary.Products[0].ApprovedQty.Equal(decimal.NewFromInt(6)))
	})
}

func TestDispatch_TenantIsolation(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	owner := uuid.New()
	contract := s.seedContract(t, owner)

	_, err := s.dispatch.SendToQualityControl(ctx, uuid.New(), contract.ID,
		construction.ActorPrivileges{ActorID: uuid.New(), CanDispatch: true}, appconstruction.DispatchRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
