package server

import (
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/handlers"
	"github.com/marcogenualdo/sso-session/internal/middleware"
	"github.com/marcogenualdo/sso-session/internal/proxy"
)

const (
	statusPath = "/status"
	loginPath  = "/login"
	logoutPath = "/logout"
	healthPath = "/health"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	mux := http.NewServeMux()

	statusHandler := handlers.NewStatusHandler(s.deps.Authenticator, s.logger)
	loginHandler := handlers.NewLoginHandler(s.cfg.Login, s.deps.URLs, s.deps.Store, s.logger)
	callbackHandler := handlers.NewCallbackHandler(s.deps.Authenticator, s.deps.URLs, s.deps.Store, s.cfg.Login.PKCE, s.logger)
	logoutHandler := handlers.NewLogoutHandler(s.deps.Cookies, s.deps.URLs, s.logger)
	healthHandler := handlers.NewHealthHandler(s.cfg, s.deps.Store, s.deps.HTTPClient, s.logger)

	mux.Handle(statusPath, noStore(statusHandler))
	mux.Handle(loginPath, noStore(loginHandler))
	mux.Handle(s.cfg.App.LoginCallbackPath, noStore(callbackHandler))
	mux.Handle(logoutPath, noStore(logoutHandler))
	mux.Handle(healthPath, healthHandler)

	if s.cfg.Backend.URL != "" {
		reverseProxy, err := proxy.NewReverseProxy(s.cfg.Backend, s.logger)
		if err != nil {
			return nil, err
		}

		sessionMiddleware := middleware.NewSessionMiddleware(s.deps.Authenticator, loginPath, s.logger)
		mux.Handle("/", sessionMiddleware.RequireSession(reverseProxy))
	}

	handler := middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			addSecurityHeaders(mux),
		),
	)

	return handler, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// noStore keeps tokens and session decisions out of shared caches.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")

		next.ServeHTTP(w, r)
	})
}
