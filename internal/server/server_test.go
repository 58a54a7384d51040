package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/cache"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, raw string) (*auth.Claims, error) {
	if raw == "good" {
		return &auth.Claims{Subject: "user-1", Email: "u@example.com"}, nil
	}
	return nil, &auth.VerificationError{Kind: auth.Malformed}
}

type stubExchanger struct{}

func (stubExchanger) Exchange(context.Context, auth.Grant) (*auth.TokenBundle, error) {
	return nil, &auth.ExchangeError{Status: http.StatusBadRequest}
}

func testConfig(backendURL string) config.Config {
	return config.Config{
		Provider: config.ProviderConfig{
			BaseURI:  "https://auth.example.com",
			ClientID: "client-123",
			Scopes:   []string{"email", "openid", "phone"},
		},
		App: config.AppConfig{
			AuthAppDomain:      "auth.pix.example.com",
			GalleryBaseURI:     "https://pix.example.com",
			LoginCallbackPath:  "/login_callback",
			LogoutCallbackPath: "/",
		},
		Cookies: config.CookieConfig{Domain: "pix.example.com", RefreshTTL: 24 * time.Hour},
		Login:   config.LoginConfig{PKCE: true, StateTTL: time.Minute},
		Cache:   config.CacheConfig{Type: "memory"},
		Backend: config.BackendConfig{
			URL:            backendURL,
			HeaderMappings: map[string]string{"sub": "X-Auth-Subject"},
		},
	}
}

func newTestServer(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	urls, err := oidc.NewURLBuilder(cfg)
	require.NoError(t, err)
	cookies := security.NewCookieCodec(cfg.Cookies)
	store := cache.NewMemoryStore()

	srv, err := New(cfg, Dependencies{
		Authenticator: auth.NewAuthenticator(stubVerifier{}, stubExchanger{}, cookies, cfg.Cookies.RefreshTTL, logger),
		URLs:          urls,
		Cookies:       cookies,
		Store:         store,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, srv.Shutdown()) })

	handler, err := srv.setupRoutes()
	require.NoError(t, err)
	return handler
}

func serve(h http.Handler, path, cookie string) *http.Response {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t, testConfig(""))

	tests := []struct {
		path    string
		cookie  string
		status  int
		noStore bool
	}{
		{path: "/status", status: http.StatusUnauthorized, noStore: true},
		{path: "/status", cookie: "id_token=good", status: http.StatusOK, noStore: true},
		{path: "/login", status: http.StatusFound, noStore: true},
		{path: "/login_callback", status: http.StatusBadRequest, noStore: true},
		{path: "/login_callback?code=abc&state=unknown", status: http.StatusBadRequest, noStore: true},
		{path: "/logout", status: http.StatusTemporaryRedirect, noStore: true},
		{path: "/health", status: http.StatusOK},
		{path: "/albums", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := serve(h, tt.path, tt.cookie)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
			if tt.noStore {
				assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
			} else {
				assert.Empty(t, resp.Header.Get("Cache-Control"))
			}
		})
	}
}

func TestProtectedBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello " + r.Header.Get("X-Auth-Subject")))
	}))
	defer backend.Close()

	h := newTestServer(t, testConfig(backend.URL))

	resp := serve(h, "/albums", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = serve(h, "/albums", "id_token=good")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello user-1", string(body))

	resp = serve(h, "/status", "id_token=good")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "auth routes are never proxied")
}

func TestNewRequiresStoreForPKCE(t *testing.T) {
	cfg := testConfig("")
	urls, err := oidc.NewURLBuilder(cfg)
	require.NoError(t, err)
	cookies := security.NewCookieCodec(cfg.Cookies)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err = New(cfg, Dependencies{
		Authenticator: auth.NewAuthenticator(stubVerifier{}, stubExchanger{}, cookies, time.Hour, logger),
		URLs:          urls,
		Cookies:       cookies,
	}, logger)
	assert.Error(t, err)
}
