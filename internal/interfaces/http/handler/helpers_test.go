package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appconstruction "github.com/egp/construction-control/internal/application/construction"
	appevent "github.com/egp/construction-control/internal/application/event"
	"github.com/egp/construction-control/internal/infrastructure/auth"
	"github.com/egp/construction-control/internal/infrastructure/cache"
	"github.com/egp/construction-control/internal/infrastructure/config"
	"github.com/egp/construction-control/internal/infrastructure/event"
	"github.com/egp/construction-control/internal/infrastructure/persistence"
	"github.com/egp/construction-control/internal/infrastructure/persistence/models"
	"github.com/egp/construction-control/internal/interfaces/http/dto"
	"github.com/egp/construction-control/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// apiEnvelope mirrors dto.Response with the data left raw
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

// testAPI is the full HTTP stack over an in-memory SQLite database
type testAPI struct {
	t        *testing.T
	db       *gorm.DB
	engine   *gin.Engine
	jwt      *auth.JWTService
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

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

	serializer := event.NewEventSerializer()
	event.RegisterConstructionEvents(serializer)
	outbox := event.NewOutboxPublisher(serializer)

	contractRepo := persistence.NewGormContractRepository(db)
	contractRepo.SetOutboxEventSaver(outbox)
	batchRepo := persistence.NewGormBatchRepository(db)
	batchRepo.SetOutboxEventSaver(outbox)
	noteRepo := persistence.NewGormNoteRepository(db)
	procurement := persistence.NewGormProcurementContractReader(db)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	dispatch := appconstruction.NewDispatchService(persistence.NewGormTransactionScope(db, outbox), nil)
	dispatch.SetIdempotencyStore(store, time.Hour)
	inspection := appconstruction.NewInspectionService(batchRepo, contractRepo)

	contracts := NewContractHandler(
		appconstruction.NewContractService(contractRepo, noteRepo, procurement),
		dispatch,
		inspection,
		appconstruction.NewSummaryService(contractRepo, batchRepo),
	)
	batches := NewBatchHandler(inspection)
	outboxHandler := NewOutboxHandler(appevent.NewOutboxService(event.NewGormOutboxRepository(db), nil))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Issuer:     "construction-control",
		Expiration: time.Hour,
	})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1", middleware.JWTAuth(middleware.JWTConfig{Validator: jwtService}))
	api.POST("/contracts", contracts.Create)
	api.GET("/contracts", contracts.List)
	api.GET("/contracts/:id", contracts.GetByID)
	api.PUT("/contracts/:id", contracts.Update)
	api.DELETE("/contracts/:id", contracts.Delete)
	api.POST("/contracts/:id/start", contracts.StartProgress)
	api.POST("/contracts/:id/complete", contracts.Complete)
	api.POST("/contracts/:id/reset-to-draft", contracts.ResetToDraft)
	api.POST("/contracts/:id/lines", contracts.AddLine)
	api.PUT("/contracts/:id/lines/:line_id", contracts.UpdateLine)
	api.DELETE("/contracts/:id/lines/:line_id", contracts.RemoveLine)
	api.POST("/contracts/:id/lines/:line_id/deliveries", contracts.RecordDelivery)
	api.POST("/contracts/:id/board-members", contracts.AddBoardMember)
	api.DELETE("/contracts/:id/board-members/:member_id", contracts.RemoveBoardMember)
	api.POST("/contracts/:id/quality-control", contracts.SendToQualityControl)
	api.POST("/contracts/:id/property-control", contracts.SendToPropertyControl)
	api.GET("/contracts/:id/batches", contracts.ListBatches)
	api.GET("/contracts/:id/summary", contracts.GetSummary)
	api.GET("/contracts/:id/notes", contracts.ListNotes)
	api.GET("/batches/:id", batches.GetByID)
	api.POST("/batches/:id/start", batches.Start)
	api.POST("/batches/:id/complete", batches.Complete)
	api.PUT("/batches/:id/lines/:line_id/result", batches.RecordLineResult)
	api.GET("/outbox/dead", outboxHandler.GetDeadLetterEntries)
	api.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDeadEntries)
	api.GET("/outbox/:id", outboxHandler.GetEntry)
	api.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)

	return &testAPI{
		t:        t,
		db:       db,
		engine:   engine,
		jwt:      jwtService,
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
}

// token issues a token for the API's tenant and user
func (a *testAPI) token(permissions ...string) string {
	a.t.Helper()
	token, _, err := a.jwt.GenerateToken(auth.TokenInput{
		TenantID:    a.tenantID,
		UserID:      a.userID,
		Username:    "site.engineer",
		Permissions: permissions,
	})
	require.NoError(a.t, err)
	return token
}

type requestOption func(*http.Request)

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// do sends an authenticated request; body is JSON encoded unless it is a string
func (a *testAPI) do(method, path, token string, body any, opts ...requestOption) (*httptest.ResponseRecorder, apiEnvelope) {
	a.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env apiEnvelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// seedProcurement stores a procurement contract whose accepted offer names a vendor
func (a *testAPI) seedProcurement() (uuid.UUID, uuid.UUID) {
	a.t.Helper()
	vendorID := uuid.New()
	offer := models.ProcurementOfferModel{ID: uuid.New(), TenantID: a.tenantID, ContractID: uuid.New(), VendorID: &vendorID}
	require.NoError(a.t, a.db.Create(&offer).Error)
	pc := models.ProcurementContractModel{
		ID:              offer.ContractID,
		TenantID:        a.tenantID,
		ContractNumber:  "PROC-2024-7",
		AcceptedOfferID: &offer.ID,
	}
	require.NoError(a.t, a.db.Create(&pc).Error)
	return pc.ID, vendorID
}

func decodeData[T any](t *testing.T, env apiEnvelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}
