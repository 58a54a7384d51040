package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/middleware"
)

// ReverseProxy forwards authenticated requests to the protected backend with
// the caller's identity in headers. It must sit behind RequireSession.
type ReverseProxy struct {
	proxy  *httputil.ReverseProxy
	cfg    config.BackendConfig
	logger *slog.Logger
}

func NewReverseProxy(cfg config.BackendConfig, logger *slog.Logger) (*ReverseProxy, error) {
	backendURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(backendURL)

	transport := cleanhttp.DefaultPooledTransport()
	transport.ResponseHeaderTimeout = cfg.Timeout
	proxy.Transport = transport

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		if !cfg.PreserveHost {
			req.Host = backendURL.Host
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("proxy error",
			"error", err,
			"backend", backendURL.String(),
			"path", r.URL.Path,
		)
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	}

	return &ReverseProxy{
		proxy:  proxy,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (rp *ReverseProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		rp.logger.Error("no claims in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	InjectHeaders(r, claims, rp.cfg.HeaderMappings)
	StripSessionCookies(r)

	rp.logger.Debug("proxying request",
		"path", r.URL.Path,
		"backend", rp.cfg.URL,
		"sub", claims.Subject,
	)

	rp.proxy.ServeHTTP(w, r)
}
