package persistence

import (
	"context"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNoteRepository implements construction.NoteRepository using GORM.
// Notes are append-only.
type GormNoteRepository struct {
	db *gorm.DB
}

// NewGormNoteRepository creates a new GormNoteRepository
func NewGormNoteRepository(db *gorm.DB) *GormNoteRepository {
	return &GormNoteRepository{db: db}
}

// Append stores a note
func (r *GormNoteRepository) Append(ctx context.Context, note *construction.ContractNote) error {
	return r.db.WithContext(ctx).Create(models.ContractNoteModelFromDomain(note)).Error
}

// FindByContract returns the notes of a contract, oldest first
func (r *GormNoteRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*construction.ContractNote, error) {
	var noteModels []models.ContractNoteModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		Order("created_at ASC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]*construction.ContractNote, len(noteModels))
	for i := range noteModels {
		notes[i] = noteModels[i].ToDomain()
	}
	return notes, nil
}

// Ensure GormNoteRepository implements NoteRepository
var _ construction.NoteRepository = (*GormNoteRepository)(nil)
