package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/egp/construction-control/internal/application/event"
	"github.com/egp/construction-control/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// OutboxStatsReader reads relay queue depths
type OutboxStatsReader interface {
	GetStats(ctx context.Context) (*event.OutboxStatsDTO, error)
}

// HealthHandler reports database reachability and outbox backlog
type HealthHandler struct {
	db     Pinger
	outbox OutboxStatsReader
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler. outbox may be nil.
func NewHealthHandler(db Pinger, outbox OutboxStatsReader) *HealthHandler {
	return &HealthHandler{db: db, outbox: outbox, now: time.Now}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string                `json:"status"`
	Time     string                `json:"time"`
	Database string                `json:"database"`
	Outbox   *event.OutboxStatsDTO `json:"outbox,omitempty"`
}

// Check handles GET /health. A failing database makes the service
// unhealthy; missing outbox stats only drop the outbox section.
//
// @ID           healthCheck
// @Summary      Health check
// @Description  Database reachability and outbox backlog per status
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	log := logger.FromContext(c.Request.Context())

	resp := HealthResponse{
		Status:   "healthy",
		Time:     h.now().UTC().Format(time.RFC3339),
		Database: "ok",
	}

	if err := h.db.Ping(ctx); err != nil {
		log.Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	if h.outbox != nil {
		stats, err := h.outbox.GetStats(ctx)
		if err != nil {
			log.Warn("Outbox stats unavailable", zap.Error(err))
		} else {
			resp.Outbox = stats
		}
	}
	c.JSON(http.StatusOK, resp)
}
