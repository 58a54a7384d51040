package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcogenualdo/sso-session/internal/cache"
	"github.com/marcogenualdo/sso-session/internal/config"
)

type HealthHandler struct {
	cfg       config.Config
	store     cache.Store
	client    *http.Client
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(cfg config.Config, store cache.Store, client *http.Client, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		store:     store,
		client:    client,
		logger:    logger,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status  string         `json:"status"`
	Uptime  string         `json:"uptime"`
	Cache   *CacheHealth   `json:"cache,omitempty"`
	Backend *BackendHealth `json:"backend,omitempty"`
}

type CacheHealth struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type BackendHealth struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "healthy",
		Uptime: time.Since(h.startTime).String(),
	}

	if h.store != nil {
		response.Cache = &CacheHealth{Type: h.cfg.Cache.Type, Status: "connected"}
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("health: cache unreachable", "error", err)
			response.Cache.Status = "error: " + err.Error()
			response.Status = "degraded"
		}
	}

	if h.cfg.Backend.URL != "" {
		response.Backend = &BackendHealth{URL: h.cfg.Backend.URL, Status: "reachable"}
		if err := h.probeBackend(ctx); err != nil {
			h.logger.Warn("health: backend unreachable", "error", err)
			response.Backend.Status = "unreachable"
			response.Status = "degraded"
		}
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (h *HealthHandler) probeBackend(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.Backend.URL, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
