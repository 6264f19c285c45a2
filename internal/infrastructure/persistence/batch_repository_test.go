package persistence

import (
	"context"
	"testing"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(t *testing.T, tenantID, contractID uuid.UUID, kind construction.BatchKind) *construction.Batch {
	t.Helper()
	batch, err := construction.NewBatch(tenantID, contractID, kind, "C-001", uuid.New(), uuid.New(), []construction.LineRequest{
		{ProductID: uuid.New(), Name: "Cement", KeyName: "Portland cement", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)},
		{ProductID: uuid.New(), Name: "Sand", KeyName: "", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)
	return batch
}

func TestGormBatchRepository_SaveAndFind(t *testing.T) {
	db := setupConstructionTestDB(t)
	repo := NewGormBatchRepository(db)
	saver := &recordingOutboxSaver{}
	repo.SetOutboxEventSaver(saver)
	ctx := context.Background()
	tenantID := uuid.New()
	contractID := uuid.New()

	batch := newTestBatch(t, tenantID, contractID, construction.BatchKindQuality)
	require.NoError(t, repo.Save(ctx, batch))
	assert.Equal(t, []string{construction.EventTypeBatchCreated}, saver.eventTypes())

	found, err := repo.FindByID(ctx, tenantID, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.Reference, found.Reference)
	assert.Equal(t, construction.BatchStateDraft, found.State)
	require.Len(t, found.Lines, 2)
	assert.Equal(t, "Cement", found.Lines[0].Name)
	assert.Equal(t, "Portland cement", found.Lines[0].KeyName)
	assert.Equal(t, "Sand", found.Lines[1].Name)
	assert.Empty(t, found.Lines[1].KeyName)
	assert.Equal(t, batch.Lines[0].Key(), found.Lines[0].Key())

	t.Run("records inspection results", func(t *testing.T) {
		require.NoError(t, found.StartInspection())
		require.NoError(t, found.RecordLineResult(found.Lines[0].ID, decimal.NewFromInt(7), true))
		require.NoError(t, found.Complete())
		require.NoError(t, repo.Save(ctx, found))
		assert.Equal(t, 2, found.Version)

		reloaded, err := repo.FindByID(ctx, tenantID, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, construction.BatchStateDone, reloaded.State)
		assert.NotNil(t, reloaded.CompletedAt)
		assert.True(t, reloaded.Lines[0].Passed)
		assert.True(t, reloaded.Lines[0].ApprovedQty.Equal(decimal.NewFromInt(7)))
		assert.True(t, reloaded.Lines[0].UnapprovedQty().Equal(decimal.NewFromInt(3)))
		assert.False(t, reloaded.Lines[1].Passed)
		assert.Contains(t, saver.eventTypes(), construction.EventTypeBatchCompleted)
	})

	t.Run("stale copy is a concurrency conflict", func(t *testing.T) {
		batch.State = construction.BatchStateInProgress
		assert.ErrorIs(t, repo.Save(ctx, batch), shared.ErrConcurrencyConflict)
	})

	t.Run("unknown batch is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBatchRepository_FindByContract(t *testing.T) {
	db := setupConstructionTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	contractID := uuid.New()

	require.NoError(t, repo.Save(ctx, newTestBatch(t, tenantID, contractID, construction.BatchKindQuality)))
	require.NoError(t, repo.Save(ctx, newTestBatch(t, tenantID, contractID, construction.BatchKindProperty)))
	require.NoError(t, repo.Save(ctx, newTestBatch(t, tenantID, uuid.New(), construction.BatchKindQuality)))

	all, err := repo.FindByContract(ctx, tenantID, contractID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, b := range all {
		assert.Len(t, b.Lines, 2)
	}

	kind := construction.BatchKindProperty
	property, err := repo.FindByContract(ctx, tenantID, contractID, &kind)
	require.NoError(t, err)
	require.Len(t, property, 1)
	assert.Equal(t, construction.BatchKindProperty, property[0].Kind)

	none, err := repo.FindByContract(ctx, uuid.New(), contractID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormNoteRepository(t *testing.T) {
	db := setupConstructionTestDB(t)
	repo := NewGormNoteRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	contractID := uuid.New()
	authorID := uuid.New()

	require.NoError(t, repo.Append(ctx, construction.NewContractNote(tenantID, contractID, "first", authorID)))
	require.NoError(t, repo.Append(ctx, construction.NewBatchCompletedNote(tenantID, contractID, construction.BatchKindQuality, "QC/ABCD1234")))
	require.NoError(t, repo.Append(ctx, construction.NewContractNote(tenantID, uuid.New(), "elsewhere", authorID)))

	notes, err := repo.FindByContract(ctx, tenantID, contractID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Body)
	require.NotNil(t, notes[0].AuthorID)
	assert.Equal(t, authorID, *notes[0].AuthorID)
	assert.Equal(t, "Quality Control QC/ABCD1234 completed.", notes[1].Body)
	assert.Nil(t, notes[1].AuthorID)
}

func TestGormProcurementContractReader(t *testing.T) {
	db := setupConstructionTestDB(t)
	reader := NewGormProcurementContractReader(db)
	ctx := context.Background()
	tenantID := uuid.New()

	vendorID := uuid.New()
	offer := models.ProcurementOfferModel{ID: uuid.New(), TenantID: tenantID, ContractID: uuid.New(), VendorID: &vendorID}
	require.NoError(t, db.Create(&offer).Error)

	withOffer := models.ProcurementContractModel{ID: offer.ContractID, TenantID: tenantID, ContractNumber: "PROC-1", AcceptedOfferID: &offer.ID}
	withoutOffer := models.ProcurementContractModel{ID: uuid.New(), TenantID: tenantID, ContractNumber: "PROC-2"}
	require.NoError(t, db.Create(&withOffer).Error)
	require.NoError(t, db.Create(&withoutOffer).Error)

	t.Run("reads the vendor of the accepted offer", func(t *testing.T) {
		pc, err := reader.FindByID(ctx, tenantID, withOffer.ID)
		require.NoError(t, err)
		assert.Equal(t, "PROC-1", pc.ContractNumber)
		vendor, ok := pc.Vendor()
		assert.True(t, ok)
		assert.Equal(t, vendorID, vendor)
	})

	t.Run("no accepted offer means no vendor", func(t *testing.T) {
		pc, err := reader.FindByID(ctx, tenantID, withoutOffer.ID)
		require.NoError(t, err)
		_, ok := pc.Vendor()
		assert.False(t, ok)
	})

	t.Run("tenant scoped", func(t *testing.T) {
		_, err := reader.FindByID(ctx, uuid.New(), withOffer.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
