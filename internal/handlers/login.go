package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/cache"
	"github.com/marcogenualdo/sso-session/internal/config"
)

// LoginHandler sends the browser to the provider's hosted login page.
type LoginHandler struct {
	urls     *oidc.URLBuilder
	store    cache.Store
	pkce     bool
	stateTTL time.Duration
	logger   *slog.Logger
}

func NewLoginHandler(cfg config.LoginConfig, urls *oidc.URLBuilder, store cache.Store, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		urls:     urls,
		store:    store,
		pkce:     cfg.PKCE,
		stateTTL: cfg.StateTTL,
		logger:   logger,
	}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.pkce {
		http.Redirect(w, r, h.urls.LoginURL("", ""), http.StatusFound)
		return
	}

	pending := auth.PendingLogin{
		State:        uuid.NewString(),
		CodeVerifier: oauth2.GenerateVerifier(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.Put(r.Context(), pending, h.stateTTL); err != nil {
		h.logger.Error("failed to store pending login", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.urls.LoginURL(pending.State, pending.CodeVerifier), http.StatusFound)
}
