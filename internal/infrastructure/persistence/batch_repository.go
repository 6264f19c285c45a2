package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBatchRepository implements construction.BatchRepository using GORM
type GormBatchRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormBatchRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

func linesInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// FindByID finds a batch with its lines
func (r *GormBatchRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*construction.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", linesInOrder).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContract finds the batches of a contract, oldest first
func (r *GormBatchRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID, kind *construction.BatchKind) ([]*construction.Batch, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines", linesInOrder).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID)
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}

	var batchModels []models.BatchModel
	if err := query.Order("created_at ASC").Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]*construction.Batch, len(batchModels))
	for i := range batchModels {
		batches[i] = batchModels[i].ToDomain()
	}
	return batches, nil
}

// Save inserts a new batch or updates the state and line results of an
// existing one. Batch lines are never added or removed after creation.
func (r *GormBatchRepository) Save(ctx context.Context, batch *construction.Batch) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&models.BatchModel{}).
			Where("tenant_id = ? AND id = ?", batch.TenantID, batch.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			if err := r.create(tx, batch); err != nil {
				return err
			}
		} else if err := r.update(tx, batch, currentVersion); err != nil {
			return err
		}

		events := batch.GetDomainEvents()
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	batch.ClearDomainEvents()
	return nil
}

func (r *GormBatchRepository) create(tx *gorm.DB, batch *construction.Batch) error {
	if err := tx.Omit(clause.Associations).Create(models.BatchModelFromDomain(batch)).Error; err != nil {
		return err
	}
	if len(batch.Lines) == 0 {
		return nil
	}
	lineModels := make([]*models.BatchLineModel, len(batch.Lines))
	for i := range batch.Lines {
		batch.Lines[i].BatchID = batch.ID
		lineModels[i] = models.BatchLineModelFromDomain(&batch.Lines[i])
	}
	return tx.Create(&lineModels).Error
}

func (r *GormBatchRepository) update(tx *gorm.DB, batch *construction.Batch, currentVersion int) error {
	if currentVersion != batch.Version {
		return shared.ErrConcurrencyConflict
	}

	nextVersion := batch.Version + 1
	result := tx.Model(&models.BatchModel{}).
		Where("id = ? AND version = ?", batch.ID, currentVersion).
		Updates(map[string]any{
			"state":        batch.State,
			"completed_at": batch.CompletedAt,
			"version":      nextVersion,
			"updated_at":   batch.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	for i := range batch.Lines {
		line := &batch.Lines[i]
		if err := tx.Model(&models.BatchLineModel{}).
			Where("id = ? AND batch_id = ?", line.ID, batch.ID).
			Updates(map[string]any{
				"approved_qty": line.ApprovedQty,
				"passed":       line.Passed,
			}).Error; err != nil {
			return err
		}
	}

	batch.Version = nextVersion
	return nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ construction.BatchRepository = (*GormBatchRepository)(nil)
