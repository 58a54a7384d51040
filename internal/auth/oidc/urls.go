package oidc

import (
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/marcogenualdo/sso-session/internal/config"
)

// URLBuilder derives the provider-hosted login and logout URLs and the
// application's own callback URLs from static configuration.
type URLBuilder struct {
	baseURI           *url.URL
	clientID          string
	loginCallbackURL  string
	logoutCallbackURL string
	homeURL           string
	oauth2Config      oauth2.Config
}

func NewURLBuilder(cfg config.Config) (*URLBuilder, error) {
	baseURI, err := url.Parse(cfg.Provider.BaseURI)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base_uri: %w", err)
	}

	authBase := &url.URL{Scheme: "https", Host: cfg.App.AuthAppDomain, Path: "/"}
	loginCallback := authBase.ResolveReference(&url.URL{Path: cfg.App.LoginCallbackPath})

	home, err := url.Parse(cfg.App.GalleryBaseURI)
	if err != nil {
		return nil, fmt.Errorf("invalid gallery_base_uri: %w", err)
	}
	logoutCallback := home.ResolveReference(&url.URL{Path: cfg.App.LogoutCallbackPath})

	b := &URLBuilder{
		baseURI:           baseURI,
		clientID:          cfg.Provider.ClientID,
		loginCallbackURL:  loginCallback.String(),
		logoutCallbackURL: logoutCallback.String(),
		homeURL:           home.String(),
	}

	b.oauth2Config = oauth2.Config{
		ClientID: cfg.Provider.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  b.providerURL("/login"),
			TokenURL: b.providerURL("/oauth2/token"),
		},
		RedirectURL: b.loginCallbackURL,
		Scopes:      cfg.Provider.Scopes,
	}

	return b, nil
}

// LoginURL is the hosted login page. state and codeVerifier are optional;
// when set they add the state parameter and an S256 PKCE challenge.
func (b *URLBuilder) LoginURL(state, codeVerifier string) string {
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(codeVerifier))
	}
	return b.oauth2Config.AuthCodeURL(state, opts...)
}

// LogoutURL is the hosted logout endpoint, which sends the browser on to
// LogoutCallbackURL.
func (b *URLBuilder) LogoutURL() string {
	u, _ := url.Parse(b.providerURL("/logout"))
	q := u.Query()
	q.Set("client_id", b.clientID)
	q.Set("logout_uri", b.logoutCallbackURL)
	u.RawQuery = q.Encode()
	return u.String()
}

func (b *URLBuilder) TokenURL() string {
	return b.oauth2Config.Endpoint.TokenURL
}

// LoginCallbackURL must match an allowed callback URL registered with the
// provider, including any trailing slash.
func (b *URLBuilder) LoginCallbackURL() string {
	return b.loginCallbackURL
}

func (b *URLBuilder) LogoutCallbackURL() string {
	return b.logoutCallbackURL
}

func (b *URLBuilder) HomeURL() string {
	return b.homeURL
}

func (b *URLBuilder) providerURL(path string) string {
	return b.baseURI.ResolveReference(&url.URL{Path: path}).String()
}
