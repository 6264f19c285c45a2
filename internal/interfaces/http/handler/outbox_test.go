package handler

import (
	"context"
	"net/http"
	"testing"

	appevent "github.com/egp/construction-control/internal/application/event"
	"github.com/egp/construction-control/internal/domain/shared"
	"github.com/egp/construction-control/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDeadEntry(t *testing.T, api *testAPI, tenantID uuid.UUID) *shared.OutboxEntry {
	t.Helper()
	ev := shared.NewBaseDomainEvent("BatchCompleted", "ControlBatch", uuid.New(), tenantID)
	entry := shared.NewOutboxEntry(&ev, []byte(`{}`))
	for !entry.IsDead() {
		entry.MarkFailed("handler unavailable")
	}
	require.NoError(t, event.NewGormOutboxRepository(api.db).Save(context.Background(), entry))
	return entry
}

func TestOutboxHandler(t *testing.T) {
	api := newTestAPI(t)
	token := api.token()
	mine := seedDeadEntry(t, api, api.tenantID)
	seedDeadEntry(t, api, api.tenantID)
	theirs := seedDeadEntry(t, api, uuid.New())

	t.Run("lists the tenant's dead entries", func(t *testing.T) {
		w, env := api.do(http.MethodGet, "/api/v1/outbox/dead?page_size=1", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeData[[]appevent.OutboxEntryDTO](t, env), 1)
		assert.Equal(t, int64(2), env.Meta.Total)
		assert.Equal(t, 2, env.Meta.TotalPages)
	})

	t.Run("other tenants' entries are not found", func(t *testing.T) {
		w, _ := api.do(http.MethodGet, "/api/v1/outbox/"+theirs.ID.String(), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("retry one", func(t *testing.T) {
		w, env := api.do(http.MethodPost, "/api/v1/outbox/"+mine.ID.String()+"/retry", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		entry := decodeData[appevent.OutboxEntryDTO](t, env)
		assert.Equal(t, string(shared.OutboxStatusPending), entry.Status)
		assert.Zero(t, entry.RetryCount)

		w, env = api.do(http.MethodPost, "/api/v1/outbox/"+mine.ID.String()+"/retry", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, appevent.ErrEntryNotDead.Code, env.Error.Code)
	})

	t.Run("retry all", func(t *testing.T) {
		w, env := api.do(http.MethodPost, "/api/v1/outbox/dead/retry-all", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(1), decodeData[RetryAllResponse](t, env).Count)

		_, env = api.do(http.MethodGet, "/api/v1/outbox/dead", token, nil)
		assert.Empty(t, decodeData[[]appevent.OutboxEntryDTO](t, env))
	})
}
