// Package event exposes outbox administration: relay statistics and
// inspection and replay of dead-lettered events.
package event

import (
	"context"
	"time"

	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrEntryNotDead is returned when a replay targets an entry that is still live
var ErrEntryNotDead = shared.NewDomainError("INVALID_STATE", "Only dead letter entries can be retried")

// DeadLetterRepository is the slice of the outbox store the admin service needs
type DeadLetterRepository interface {
	FindDead(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*shared.OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error)
	Update(ctx context.Context, entry *shared.OutboxEntry) error
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// OutboxService manages dead-lettered construction events
type OutboxService struct {
	repo   DeadLetterRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo DeadLetterRepository, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{repo: repo, logger: logger}
}

// OutboxEntryDTO is an outbox entry without its payload
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxFilter pages dead letter listings
type OutboxFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (f OutboxFilter) normalize() (int, int) {
	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	return page, min(size, maxPageSize)
}

// OutboxListResult is one page of entries
type OutboxListResult struct {
	Entries  []OutboxEntryDTO `json:"entries"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// OutboxStatsDTO counts entries per status across all tenants
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// GetDeadLetterEntries lists the tenant's dead entries
func (s *OutboxService) GetDeadLetterEntries(ctx context.Context, tenantID uuid.UUID, filter OutboxFilter) (*OutboxListResult, error) {
	page, size := filter.normalize()
	entries, total, err := s.repo.FindDead(ctx, tenantID, page, size)
	if err != nil {
		return nil, err
	}

	out := make([]OutboxEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = toOutboxEntryDTO(e)
	}
	return &OutboxListResult{Entries: out, Total: total, Page: page, PageSize: size}, nil
}

// GetEntry returns one of the tenant's entries
func (s *OutboxService) GetEntry(ctx context.Context, tenantID, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDeadEntry puts a dead entry back in the relay queue
func (s *OutboxService) RetryDeadEntry(ctx context.Context, tenantID, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, ErrEntryNotDead
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Dead letter entry queued for retry",
		zap.String("entry_id", id.String()),
		zap.String("event_type", entry.EventType),
	)
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries requeues every dead entry of the tenant and returns how
// many were requeued. It stops early when a pass makes no progress.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	for {
		entries, _, err := s.repo.FindDead(ctx, tenantID, 1, maxPageSize)
		if err != nil {
			return count, err
		}
		if len(entries) == 0 {
			break
		}

		progressed := false
		for _, entry := range entries {
			if entry.ResetForRetry() != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Warn("Failed to requeue dead letter entry",
					zap.String("entry_id", entry.ID.String()),
					zap.Error(err),
				)
				continue
			}
			count++
			progressed = true
		}
		if !progressed {
			break
		}
	}

	s.logger.Info("Dead letter entries queued for retry",
		zap.String("tenant_id", tenantID.String()),
		zap.Int64("count", count),
	)
	return count, nil
}

// GetStats counts entries per status
func (s *OutboxService) GetStats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

// find hides other tenants' entries behind NOT_FOUND
func (s *OutboxService) find(ctx context.Context, tenantID, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return entry, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
