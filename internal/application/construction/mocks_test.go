package construction

import (
	"context"
	"time"

	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockContractRepository is a mock implementation of construction.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*construction.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*construction.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*construction.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*construction.Contract), args.Error(1)
}

func (m *MockContractRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter construction.ContractFilter) ([]*construction.Contract, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*construction.Contract), args.Get(1).(int64), args.Error(2)
}

func (m *MockContractRepository) Save(ctx context.Context, contract *construction.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) Delete(ctx context.Context, contract *construction.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

// MockBatchRepository is a mock implementation of construction.BatchRepository
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*construction.Batch, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*construction.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID, kind *construction.BatchKind) ([]*construction.Batch, error) {
	args := m.Called(ctx, tenantID, contractID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*construction.Batch), args.Error(1)
}

func (m *MockBatchRepository) Save(ctx context.Context, batch *construction.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// MockNoteRepository is a mock implementation of construction.NoteRepository
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Append(ctx context.Context, note *construction.ContractNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*construction.ContractNote, error) {
	args := m.Called(ctx, tenantID, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*construction.ContractNote), args.Error(1)
}

// MockProcurementReader is a mock implementation of construction.ProcurementContractReader
type MockProcurementReader struct {
	mock.Mock
}

func (m *MockProcurementReader) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*construction.ProcurementContract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*construction.ProcurementContract), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}
