package oidc

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/sso-session/internal/config"
)

const (
	testIssuer   = "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_AbCdEf"
	testClientID = "client-123"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURI string) config.Config {
	return config.Config{
		Provider: config.ProviderConfig{
			BaseURI:      baseURI,
			UserPoolID:   "eu-west-1_AbCdEf",
			Issuer:       testIssuer,
			ClientID:     testClientID,
			ClientSecret: "s3cret",
			Scopes:       []string{"email", "openid", "phone"},
		},
		App: config.AppConfig{
			AuthAppDomain:      "auth.pix.example.com",
			GalleryBaseURI:     "https://pix.example.com",
			LoginCallbackPath:  "/login_callback",
			LogoutCallbackPath: "/",
		},
	}
}

func testURLBuilder(t *testing.T, baseURI string) *URLBuilder {
	t.Helper()
	b, err := NewURLBuilder(testConfig(baseURI))
	require.NoError(t, err)
	return b
}
