package persistence

import (
	"context"
	"errors"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProcurementContractReader reads procurement contracts and their
// accepted offer from the procurement module's tables
type GormProcurementContractReader struct {
	db *gorm.DB
}

// NewGormProcurementContractReader creates a new GormProcurementContractReader
func NewGormProcurementContractReader(db *gorm.DB) *GormProcurementContractReader {
	return &GormProcurementContractReader{db: db}
}

// FindByID finds a procurement contract within a tenant
func (r *GormProcurementContractReader) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*construction.ProcurementContract, error) {
	var model models.ProcurementContractModel
	if err := r.db.WithContext(ctx).
		Preload("AcceptedOffer").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormProcurementContractReader implements ProcurementContractReader
var _ construction.ProcurementContractReader = (*GormProcurementContractReader)(nil)
