package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/egp/construction-control/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())

	g := NewDomainGroup("test", "/test")
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	r.Use(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})
	r.Register(g).Setup()

	w := serve(engine, http.MethodGet, "/api/v2/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Api"))

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("contracts", "/contracts")
	assert.Equal(t, "contracts", g.Name())
	assert.Equal(t, "/contracts", g.Prefix())

	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.Use(func(c *gin.Context) {
		c.Header("X-Group", "contracts")
		c.Next()
	})
	g.GET("/:id", ok).
		POST("/:id/start", ok).
		PUT("/:id", ok).
		DELETE("/:id", ok)
	g.Group("lines", "/:id/lines").PUT("/:line_id", ok)

	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/contracts/1"},
		{http.MethodPost, "/api/v1/contracts/1/start"},
		{http.MethodPut, "/api/v1/contracts/1"},
		{http.MethodDelete, "/api/v1/contracts/1"},
		{http.MethodPut, "/api/v1/contracts/1/lines/2"},
	}
	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.method, w.Body.String())
		assert.Equal(t, "contracts", w.Header().Get("X-Group"), "subgroups inherit middleware")
	}
}

func TestConstructionRoutes(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Register(ConstructionRoutes(Handlers{
		Contract: handler.NewContractHandler(nil, nil, nil, nil),
		Batch:    handler.NewBatchHandler(nil),
		Outbox:   handler.NewOutboxHandler(nil),
	})...).Setup()

	registered := map[string]bool{}
	for _, ri := range engine.Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}

	want := []string{
		"POST /api/v1/contracts",
		"GET /api/v1/contracts",
		"GET /api/v1/contracts/:id",
		"PUT /api/v1/contracts/:id",
		"DELETE /api/v1/contracts/:id",
		"POST /api/v1/contracts/:id/start",
		"POST /api/v1/contracts/:id/complete",
		"POST /api/v1/contracts/:id/reset-to-draft",
		"POST /api/v1/contracts/:id/lines",
		"PUT /api/v1/contracts/:id/lines/:line_id",
		"DELETE /api/v1/contracts/:id/lines/:line_id",
		"POST /api/v1/contracts/:id/lines/:line_id/deliveries",
		"POST /api/v1/contracts/:id/board-members",
		"DELETE /api/v1/contracts/:id/board-members/:member_id",
		"POST /api/v1/contracts/:id/quality-control",
		"POST /api/v1/contracts/:id/property-control",
		"GET /api/v1/contracts/:id/batches",
		"GET /api/v1/contracts/:id/summary",
		"GET /api/v1/contracts/:id/notes",
		"GET /api/v1/batches/:id",
		"POST /api/v1/batches/:id/start",
		"POST /api/v1/batches/:id/complete",
		"PUT /api/v1/batches/:id/lines/:line_id/result",
		"GET /api/v1/outbox/dead",
		"POST /api/v1/outbox/dead/retry-all",
		"GET /api/v1/outbox/:id",
		"POST /api/v1/outbox/:id/retry",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(want))

	// outbox routes reject requests that carry no token claims
	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/outbox/dead").Code)
}

func TestConstructionRoutes_WithoutOutbox(t *testing.T) {
	registrars := ConstructionRoutes(Handlers{
		Contract: handler.NewContractHandler(nil, nil, nil, nil),
		Batch:    handler.NewBatchHandler(nil),
	})
	assert.Len(t, registrars, 2)
}
