package handlers

import (
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

type LogoutHandler struct {
	cookies *security.CookieCodec
	urls    *oidc.URLBuilder
	logger  *slog.Logger
}

func NewLogoutHandler(cookies *security.CookieCodec, urls *oidc.URLBuilder, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		cookies: cookies,
		urls:    urls,
		logger:  logger,
	}
}

// ServeHTTP clears the session cookies and hands the browser to the
// provider, which ends its own session and returns to the home page.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	security.WriteCookies(w, h.cookies.ClearSessionCookies())

	h.logger.Info("user logged out")

	http.Redirect(w, r, h.urls.LogoutURL(), http.StatusTemporaryRedirect)
}
