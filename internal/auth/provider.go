package auth

import (
	"context"
	"errors"
)

type grantType int

const (
	authorizationCodeGrant grantType = iota + 1
	refreshTokenGrant
)

// Grant is the input of a token exchange. It is built with AuthorizationCode
// or RefreshToken, so a grant never carries both a code and a refresh token.
type Grant struct {
	kind         grantType
	value        string
	codeVerifier string
}

func AuthorizationCode(code string) Grant {
	return Grant{kind: authorizationCodeGrant, value: code}
}

func RefreshToken(token string) Grant {
	return Grant{kind: refreshTokenGrant, value: token}
}

// WithCodeVerifier attaches a PKCE verifier. It has no effect on refresh grants.
func (g Grant) WithCodeVerifier(verifier string) Grant {
	if g.kind == authorizationCodeGrant {
		g.codeVerifier = verifier
	}
	return g
}

// GrantType is the OAuth2 grant_type value.
func (g Grant) GrantType() string {
	switch g.kind {
	case authorizationCodeGrant:
		return "authorization_code"
	case refreshTokenGrant:
		return "refresh_token"
	default:
		return ""
	}
}

func (g Grant) IsAuthorizationCode() bool { return g.kind == authorizationCodeGrant }

func (g Grant) IsRefresh() bool { return g.kind == refreshTokenGrant }

// Value is the code or refresh token.
func (g Grant) Value() string { return g.value }

func (g Grant) CodeVerifier() string { return g.codeVerifier }

var ErrEmptyGrant = errors.New("grant has neither an authorization code nor a refresh token")

func (g Grant) Validate() error {
	if g.kind == 0 || g.value == "" {
		return ErrEmptyGrant
	}
	return nil
}

// TokenExchanger calls the provider's token endpoint.
type TokenExchanger interface {
	Exchange(ctx context.Context, grant Grant) (*TokenBundle, error)
}

// TokenVerifier validates identity tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}
