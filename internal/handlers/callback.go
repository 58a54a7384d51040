package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/cache"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

// CallbackHandler completes a login: the provider redirects here with an
// authorization code, which is exchanged for the session cookies.
type CallbackHandler struct {
	authenticator *auth.Authenticator
	urls          *oidc.URLBuilder
	store         cache.Store
	pkce          bool
	logger        *slog.Logger
}

func NewCallbackHandler(authenticator *auth.Authenticator, urls *oidc.URLBuilder, store cache.Store, pkce bool, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		authenticator: authenticator,
		urls:          urls,
		store:         store,
		pkce:          pkce,
		logger:        logger,
	}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		h.logger.Warn("callback without authorization code",
			"provider_error", query.Get("error"),
			"provider_error_description", query.Get("error_description"),
		)
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	grant := auth.AuthorizationCode(code)

	if h.pkce {
		state := query.Get("state")
		if state == "" {
			http.Error(w, "Missing state", http.StatusBadRequest)
			return
		}

		pending, err := h.store.Take(r.Context(), state)
		if err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				h.logger.Warn("callback with unknown or expired state")
				http.Error(w, "Invalid or expired state", http.StatusBadRequest)
				return
			}
			h.logger.Error("failed to load pending login", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		grant = grant.WithCodeVerifier(pending.CodeVerifier)
	}

	cookies, claims, err := h.authenticator.CompleteLogin(r.Context(), grant)
	if err != nil {
		var exchangeErr *auth.ExchangeError
		if errors.As(err, &exchangeErr) {
			h.logger.Error("authorization code exchange failed",
				"status", exchangeErr.Status,
				"error", exchangeErr.Err,
			)
			writeProviderError(w, exchangeErr)
			return
		}

		h.logger.Error("login failed",
			"kind", auth.VerificationKindOf(err).String(),
			"error", err,
		)
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		return
	}

	security.WriteCookies(w, cookies)

	h.logger.Info("authentication successful", "sub", claims.Subject)

	http.Redirect(w, r, h.urls.HomeURL(), http.StatusTemporaryRedirect)
}

// writeProviderError relays the token endpoint's payload so the caller sees
// what the provider rejected.
func writeProviderError(w http.ResponseWriter, err *auth.ExchangeError) {
	if len(err.Body) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token exchange failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(err.Body)
}
