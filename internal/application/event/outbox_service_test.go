package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeadLetterRepo struct {
	entries   map[uuid.UUID]*shared.OutboxEntry
	updateErr error
}

func newFakeDeadLetterRepo() *fakeDeadLetterRepo {
	return &fakeDeadLetterRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeDeadLetterRepo) add(tenantID uuid.UUID, status shared.OutboxStatus) *shared.OutboxEntry {
	e := &shared.OutboxEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EventID:    uuid.New(),
		EventType:  "BatchCompleted",
		Status:     status,
		MaxRetries: shared.DefaultOutboxMaxRetries,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if status == shared.OutboxStatusDead {
		e.RetryCount = e.MaxRetries
		e.LastError = "handler failed"
	}
	r.entries[e.ID] = e
	return e
}

func (r *fakeDeadLetterRepo) FindDead(_ context.Context, tenantID uuid.UUID, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, int64(len(dead)), nil
	}
	end := min(start+pageSize, len(dead))
	return dead[start:end], int64(len(dead)), nil
}

func (r *fakeDeadLetterRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDeadLetterRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeDeadLetterRepo) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	repo := newFakeDeadLetterRepo()
	service := NewOutboxService(repo, nil)
	tenantID := uuid.New()

	for i := 0; i < 5; i++ {
		repo.add(tenantID, shared.OutboxStatusDead)
	}
	repo.add(tenantID, shared.OutboxStatusPending)
	repo.add(uuid.New(), shared.OutboxStatusDead)

	result, err := service.GetDeadLetterEntries(context.Background(), tenantID, OutboxFilter{PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Len(t, result.Entries, 3)
	for _, e := range result.Entries {
		assert.Equal(t, "DEAD", e.Status)
	}
}

func TestOutboxFilter_Normalize(t *testing.T) {
	page, size := OutboxFilter{}.normalize()
	assert.Equal(t, 1, page)
	assert.Equal(t, defaultPageSize, size)

	_, size = OutboxFilter{PageSize: 500}.normalize()
	assert.Equal(t, maxPageSize, size)
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("requeues a dead entry", func(t *testing.T) {
		repo := newFakeDeadLetterRepo()
		dead := repo.add(tenantID, shared.OutboxStatusDead)

		result, err := NewOutboxService(repo, nil).RetryDeadEntry(ctx, tenantID, dead.ID)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", result.Status)
		assert.Zero(t, result.RetryCount)
		assert.Empty(t, result.LastError)
	})

	t.Run("other tenants' entries are not found", func(t *testing.T) {
		repo := newFakeDeadLetterRepo()
		dead := repo.add(uuid.New(), shared.OutboxStatusDead)

		_, err := NewOutboxService(repo, nil).RetryDeadEntry(ctx, tenantID, dead.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := NewOutboxService(newFakeDeadLetterRepo(), nil).RetryDeadEntry(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("live entry is rejected", func(t *testing.T) {
		repo := newFakeDeadLetterRepo()
		pending := repo.add(tenantID, shared.OutboxStatusPending)

		_, err := NewOutboxService(repo, nil).RetryDeadEntry(ctx, tenantID, pending.ID)
		assert.ErrorIs(t, err, ErrEntryNotDead)
	})
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("requeues every dead entry of the tenant", func(t *testing.T) {
		repo := newFakeDeadLetterRepo()
		for i := 0; i < 3; i++ {
			repo.add(tenantID, shared.OutboxStatusDead)
		}
		other := repo.add(uuid.New(), shared.OutboxStatusDead)

		count, err := NewOutboxService(repo, nil).RetryAllDeadEntries(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.Equal(t, shared.OutboxStatusDead, other.Status)
	})

	t.Run("stops when updates keep failing", func(t *testing.T) {
		repo := newFakeDeadLetterRepo()
		repo.add(tenantID, shared.OutboxStatusDead)
		repo.updateErr = errors.New("db down")

		// ResetForRetry mutates the entry in place, so the fake would see it
		// as pending on the next pass. Keep it dead to force a no-progress pass.
		count, err := NewOutboxService(&stickyDeadRepo{repo}, nil).RetryAllDeadEntries(ctx, tenantID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

// stickyDeadRepo returns fresh dead copies so failed updates leave entries dead
type stickyDeadRepo struct {
	*fakeDeadLetterRepo
}

func (r *stickyDeadRepo) FindDead(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	entries, total, err := r.fakeDeadLetterRepo.FindDead(ctx, tenantID, page, pageSize)
	copies := make([]*shared.OutboxEntry, len(entries))
	for i, e := range entries {
		c := *e
		copies[i] = &c
	}
	return copies, total, err
}

func TestOutboxService_GetStats(t *testing.T) {
	repo := newFakeDeadLetterRepo()
	tenantID := uuid.New()
	for _, status := range []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		repo.add(tenantID, status)
	}

	stats, err := NewOutboxService(repo, nil).GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Processing)
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(8), stats.Total)
}
