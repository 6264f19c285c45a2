package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormContractRepository implements construction.ContractRepository using GORM
type GormContractRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormContractRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a contract with its lines, deliveries and board members
func (r *GormContractRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*construction.Contract, error) {
	return r.find(ctx, r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a contract and locks its row with SELECT ... FOR UPDATE.
// Only meaningful inside a transaction.
func (r *GormContractRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*construction.Contract, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormContractRepository) find(ctx context.Context, query *gorm.DB, tenantID, id uuid.UUID) (*construction.Contract, error) {
	var model models.ContractModel
	if err := query.
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// loadChildren reads lines, deliveries and board members with separate
// queries so the row lock above stays on the contract row alone
func (r *GormContractRepository) loadChildren(ctx context.Context, model *models.ContractModel) error {
	if err := r.db.WithContext(ctx).
		Preload("Deliveries", func(db *gorm.DB) *gorm.DB {
			return db.Order("delivery_date ASC, created_at ASC")
		}).
		Where("contract_id = ?", model.ID).
		Order("sort_order ASC").
		Find(&model.Lines).Error; err != nil {
		return fmt.Errorf("failed to load estimation lines: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", model.ID).
		Order("created_at ASC").
		Find(&model.BoardMembers).Error; err != nil {
		return fmt.Errorf("failed to load board members: %w", err)
	}
	return nil
}

// FindAll finds a page of contracts for a tenant and the total matching count
func (r *GormContractRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter construction.ContractFilter) ([]*construction.Contract, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ContractModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contractModels []models.ContractModel
	if err := r.applyPagination(query, filter.Filter).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Find(&contractModels).Error; err != nil {
		return nil, 0, err
	}

	contracts := make([]*construction.Contract, len(contractModels))
	for i := range contractModels {
		contracts[i] = contractModels[i].ToDomain()
	}
	return contracts, total, nil
}

func (r *GormContractRepository) applyFilterWithoutPagination(query *gorm.DB, filter construction.ContractFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(contract_number) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	return query
}

func (r *GormContractRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	sortField := ValidateSortField(filter.OrderBy, ContractSortFields, "created_at")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// Save inserts a new contract or updates an existing one with a version
// check, replaces its children and writes pending events to the outbox
func (r *GormContractRepository) Save(ctx context.Context, contract *construction.Contract) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&models.ContractModel{}).
			Where("tenant_id = ? AND id = ?", contract.TenantID, contract.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			if err := tx.Omit(clause.Associations).Create(models.ContractModelFromDomain(contract)).Error; err != nil {
				return err
			}
		} else if err := r.updateWithVersion(tx, contract, currentVersion); err != nil {
			return err
		}

		if err := r.syncLines(tx, contract); err != nil {
			return err
		}
		if err := r.syncBoardMembers(tx, contract); err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, contract)
	})
	if err != nil {
		return err
	}
	contract.ClearDomainEvents()
	return nil
}

func (r *GormContractRepository) updateWithVersion(tx *gorm.DB, contract *construction.Contract, currentVersion int) error {
	if currentVersion != contract.Version {
		return shared.ErrConcurrencyConflict
	}

	nextVersion := contract.Version + 1
	updatedAt := time.Now()
	result := tx.Model(&models.ContractModel{}).
		Where("id = ? AND version = ?", contract.ID, currentVersion).
		Updates(map[string]any{
			"procurement_contract_id": contract.ProcurementContractID,
			"warehouse_id":            contract.WarehouseID,
			"contract_number":         contract.ContractNumber,
			"contract_date":           contract.ContractDate,
			"start_date":              contract.StartDate,
			"end_date":                contract.EndDate,
			"project_manager_id":      contract.ProjectManagerID,
			"description":             contract.Description,
			"state":                   contract.State,
			"version":                 nextVersion,
			"updated_at":              updatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	contract.Version = nextVersion
	contract.UpdatedAt = updatedAt
	return nil
}

// syncLines deletes lines no longer on the contract, with their deliveries,
// and upserts the rest
func (r *GormContractRepository) syncLines(tx *gorm.DB, contract *construction.Contract) error {
	lineIDs := make([]uuid.UUID, len(contract.Lines))
	for i := range contract.Lines {
		lineIDs[i] = contract.Lines[i].ID
	}

	stale := tx.Model(&models.EstimationLineModel{}).Select("id").Where("contract_id = ?", contract.ID)
	if len(lineIDs) > 0 {
		stale = stale.Where("id NOT IN ?", lineIDs)
	}
	if err := tx.Where("line_id IN (?)", stale).Delete(&models.LineDeliveryModel{}).Error; err != nil {
		return err
	}

	removeLines := tx.Where("contract_id = ?", contract.ID)
	if len(lineIDs) > 0 {
		removeLines = removeLines.Where("id NOT IN ?", lineIDs)
	}
	if err := removeLines.Delete(&models.EstimationLineModel{}).Error; err != nil {
		return err
	}

	for i := range contract.Lines {
		line := &contract.Lines[i]
		line.ContractID = contract.ID
		if err := tx.Omit(clause.Associations).Save(models.EstimationLineModelFromDomain(line)).Error; err != nil {
			return err
		}
		for j := range line.Deliveries {
			line.Deliveries[j].LineID = line.ID
			if err := tx.Save(models.LineDeliveryModelFromDomain(&line.Deliveries[j])).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *GormContractRepository) syncBoardMembers(tx *gorm.DB, contract *construction.Contract) error {
	memberIDs := make([]uuid.UUID, len(contract.BoardMembers))
	for i := range contract.BoardMembers {
		memberIDs[i] = contract.BoardMembers[i].ID
	}

	remove := tx.Where("contract_id = ?", contract.ID)
	if len(memberIDs) > 0 {
		remove = remove.Where("id NOT IN ?", memberIDs)
	}
	if err := remove.Delete(&models.BoardMemberModel{}).Error; err != nil {
		return err
	}

	for i := range contract.BoardMembers {
		contract.BoardMembers[i].ContractID = contract.ID
		if err := tx.Save(models.BoardMemberModelFromDomain(&contract.BoardMembers[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the contract and everything it owns. Notes and batches
// stay; they are history.
func (r *GormContractRepository) Delete(ctx context.Context, contract *construction.Contract) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := tx.Model(&models.EstimationLineModel{}).Select("id").Where("contract_id = ?", contract.ID)
		if err := tx.Where("line_id IN (?)", lines).Delete(&models.LineDeliveryModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", contract.ID).Delete(&models.EstimationLineModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", contract.ID).Delete(&models.BoardMemberModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("tenant_id = ? AND id = ?", contract.TenantID, contract.ID).Delete(&models.ContractModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return r.saveEvents(ctx, tx, contract)
	})
	if err != nil {
		return err
	}
	contract.ClearDomainEvents()
	return nil
}

func (r *GormContractRepository) saveEvents(ctx context.Context, tx *gorm.DB, contract *construction.Contract) error {
	events := contract.GetDomainEvents()
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// Ensure GormContractRepository implements ContractRepository
var _ construction.ContractRepository = (*GormContractRepository)(nil)
