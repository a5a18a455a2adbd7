package wire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Name: "wine-api", Env: "test", Port: "0"},
		Store:       config.StoreConfig{Driver: config.DriverMemory},
		Idempotency: config.IdempotencyConfig{Driver: config.DriverMemory, TTL: time.Hour},
		HTTP:        config.HTTPConfig{CORSAllowOrigins: []string{"*"}},
		Telemetry:   config.TelemetryConfig{ServiceName: "wine-api"},
		MCP:         config.MCPConfig{Enabled: true},
	}
}

func TestBuild_MemoryStore(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	assert.NotNil(t, app.MCPServer)
	assert.False(t, app.Tracer.Enabled())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/wineries", strings.NewReader(`{"name":"Figgins"}`))
	req.Header.Set("Content-Type", "application/json")
	app.Server.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	got := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(got, httptest.NewRequest(http.MethodGet, w.Header().Get("Location"), nil))
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestBuild_MCPDisabled(t *testing.T) {
	cfg := memoryConfig()
	cfg.MCP.Enabled = false

	app, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	assert.Nil(t, app.MCPServer)
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuild_PostgresIdempotencyNeedsPool(t *testing.T) {
	cfg := memoryConfig()
	cfg.Idempotency.Driver = config.DriverPostgres

	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires the postgres winery store")
}

func TestProvision_Memory(t *testing.T) {
	assert.NoError(t, Provision(context.Background(), memoryConfig(), zap.NewNop()))
}
