package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// SessionMiddleware guards routes that need a logged-in caller.
type SessionMiddleware struct {
	authenticator *auth.Authenticator
	loginPath     string
	logger        *slog.Logger
}

func NewSessionMiddleware(authenticator *auth.Authenticator, loginPath string, logger *slog.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		authenticator: authenticator,
		loginPath:     loginPath,
		logger:        logger,
	}
}

// RequireSession redirects anonymous callers to the login route. For
// authenticated callers any renewed cookies are written before next runs.
func (sm *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := sm.authenticator.Authenticate(r.Context(), security.CookieHeader(r))
		if !result.Decision.IsAuthenticated() {
			sm.logger.Debug("no valid session",
				"path", r.URL.Path,
				"reason", result.Decision.Reason.String(),
			)
			http.Redirect(w, r, sm.loginPath, http.StatusFound)
			return
		}

		security.WriteCookies(w, result.Cookies)

		ctx := context.WithValue(r.Context(), ClaimsContextKey, result.Decision.Claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	return claims, ok
}
