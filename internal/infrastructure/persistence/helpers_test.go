package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupConstructionTestDB opens an in-memory SQLite database with every
// construction table. A single connection keeps all queries on the same
// in-memory database.
func setupConstructionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ConstructionModels()...))
	require.NoError(t, db.AutoMigrate(&models.ProcurementContractModel{}, &models.ProcurementOfferModel{}))
	return db
}

// newMockGormDB wires a gorm postgres dialector to sqlmock
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

// recordingOutboxSaver captures the events handed to the outbox
type recordingOutboxSaver struct {
	events []shared.DomainEvent
	err    error
}

func (s *recordingOutboxSaver) SaveEvents(_ context.Context, txProvider any, events ...shared.DomainEvent) error {
	if _, ok := txProvider.(*gorm.DB); !ok {
		return fmt.Errorf("unexpected tx provider %T", txProvider)
	}
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *recordingOutboxSaver) eventTypes() []string {
	types := make([]string, len(s.events))
	for i, e := range s.events {
		types[i] = e.EventType()
	}
	return types
}
