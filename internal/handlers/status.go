package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

// StatusHandler reports whether the caller holds a valid session, renewing
// it on the way when only the refresh token is still good.
type StatusHandler struct {
	authenticator *auth.Authenticator
	logger        *slog.Logger
}

func NewStatusHandler(authenticator *auth.Authenticator, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		authenticator: authenticator,
		logger:        logger,
	}
}

type StatusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *StatusUser `json:"user,omitempty"`
	ErrorMessage  string      `json:"errorMessage,omitempty"`
}

type StatusUser struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.authenticator.Authenticate(r.Context(), security.CookieHeader(r))
	security.WriteCookies(w, result.Cookies)

	if !result.Decision.IsAuthenticated() {
		h.logger.Debug("status: not authenticated", "reason", result.Decision.Reason.String())
		writeJSON(w, http.StatusUnauthorized, StatusResponse{
			ErrorMessage: result.Decision.Reason.Message(),
		})
		return
	}

	claims := result.Decision.Claims
	writeJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		User:          &StatusUser{Subject: claims.Subject, Email: claims.Email},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
