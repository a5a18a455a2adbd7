package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/envino/wine-api/internal/adapter/memory"
	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	winerysvc "github.com/envino/wine-api/internal/service/winery"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := memory.NewEventBus()
	svc := winerysvc.NewService(memory.NewWineryRepository(), bus)
	r, err := NewRouter(ctx, RouterConfig{
		ServiceName:     "wine-api",
		IdempotencyTTL:  time.Hour,
		IdempotencyKeys: memory.NewCache(),
	}, zap.NewNop(), svc, nil, bus)
	require.NoError(t, err)
	return r
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_CreateThenGet(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/wineries", strings.NewReader(`{"name":"Figgins"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created domainwinery.Winery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	got := do(r, http.MethodGet, w.Header().Get("Location"), nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.JSONEq(t, w.Body.String(), got.Body.String())

	dup := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/wineries", strings.NewReader(`{"name":"  FIGGINS"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(dup, req)
	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestRouter_IdempotentCreate(t *testing.T) {
	r := newTestRouter(t)

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/wineries", strings.NewReader(`{"name":"Figgins"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(IdempotencyKeyHeader, "retry-1")
		r.ServeHTTP(w, req)
		return w
	}

	first := post()
	second := post()

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code, "retry replays instead of reporting a duplicate")
	assert.Equal(t, first.Header().Get("Location"), second.Header().Get("Location"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/vineyards", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
