package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/sso-session/internal/cache"
	"github.com/marcogenualdo/sso-session/internal/config"
)

func serveHealth(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestHealthHealthy(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	store := cache.NewMemoryStore()
	defer store.Close()

	cfg := testConfig()
	cfg.Backend.URL = backend.URL

	status, body := serveHealth(t, NewHealthHandler(cfg, store, backend.Client(), discardLogger()))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body.Status)
	require.NotNil(t, body.Cache)
	assert.Equal(t, "connected", body.Cache.Status)
	require.NotNil(t, body.Backend)
	assert.Equal(t, "reachable", body.Backend.Status)
}

func TestHealthDegradedWhenRedisDown(t *testing.T) {
	mini := miniredis.RunT(t)
	store, err := cache.NewRedisStore(config.RedisConfig{Address: mini.Addr()})
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig()
	cfg.Cache.Type = "redis"
	mini.Close()

	status, body := serveHealth(t, NewHealthHandler(cfg, store, http.DefaultClient, discardLogger()))

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "redis", body.Cache.Type)
	assert.Nil(t, body.Backend, "no backend configured")
}
