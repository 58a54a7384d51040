package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

type stubVerifier struct {
	valid map[string]*auth.Claims
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (*auth.Claims, error) {
	if claims, ok := s.valid[raw]; ok {
		return claims, nil
	}
	return nil, &auth.VerificationError{Kind: auth.ExpiredSignature}
}

type stubExchanger struct {
	bundle *auth.TokenBundle
	err    error
	grants []auth.Grant
}

func (s *stubExchanger) Exchange(_ context.Context, grant auth.Grant) (*auth.TokenBundle, error) {
	s.grants = append(s.grants, grant)
	if s.err != nil {
		return nil, s.err
	}
	return s.bundle, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
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
		Cookies: config.CookieConfig{Domain: "pix.example.com", RefreshTTL: 29 * 24 * time.Hour},
		Login:   config.LoginConfig{StateTTL: 5 * time.Minute},
		Cache:   config.CacheConfig{Type: "memory"},
	}
}

func testURLBuilder(t *testing.T) *oidc.URLBuilder {
	t.Helper()
	urls, err := oidc.NewURLBuilder(testConfig())
	require.NoError(t, err)
	return urls
}

func testCodec() *security.CookieCodec {
	return security.NewCookieCodec(testConfig().Cookies)
}

func testAuthenticator(v *stubVerifier, e *stubExchanger) *auth.Authenticator {
	return auth.NewAuthenticator(v, e, testCodec(), testConfig().Cookies.RefreshTTL, discardLogger())
}

func cookiesByName(resp *http.Response) map[string]*http.Cookie {
	byName := make(map[string]*http.Cookie)
	for _, c := range resp.Cookies() {
		byName[c.Name] = c
	}
	return byName
}
