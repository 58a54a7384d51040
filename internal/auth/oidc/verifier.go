package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/config"
)

var supportedAlgorithms = []jose.SignatureAlgorithm{jose.RS256}

// Verifier validates identity tokens issued by the configured user pool.
// The key set is the only retained state.
type Verifier struct {
	keySet   oidc.KeySet
	issuer   string
	clientID string
	now      func() time.Time
}

type idTokenClaims struct {
	jwt.Claims
	Email    string `json:"email"`
	TokenUse string `json:"token_use"`
	ClientID string `json:"client_id"`
}

// NewVerifier returns a Verifier backed by the provider's published JWKS.
// Keys are cached process-wide and refetched when a token names an unknown
// key id. ctx bounds the lifetime of key fetches and should outlive requests.
func NewVerifier(ctx context.Context, cfg config.ProviderConfig, client *http.Client) *Verifier {
	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(ctx, client), cfg.JWKSURL)
	return NewVerifierWithKeySet(keySet, cfg.Issuer, cfg.ClientID)
}

func NewVerifierWithKeySet(keySet oidc.KeySet, issuer, clientID string) *Verifier {
	return &Verifier{
		keySet:   keySet,
		issuer:   issuer,
		clientID: clientID,
		now:      time.Now,
	}
}

func (v *Verifier) Verify(ctx context.Context, rawToken string) (*auth.Claims, error) {
	return Verify(ctx, rawToken, v.keySet, v.issuer, v.clientID, v.now())
}

// Verify checks the signature, issuer, audience, expiry and token use of an
// identity token. Access tokens are rejected even when correctly signed.
func Verify(ctx context.Context, rawToken string, keySet oidc.KeySet, issuer, clientID string, now time.Time) (*auth.Claims, error) {
	if _, err := jwt.ParseSigned(rawToken, supportedAlgorithms); err != nil {
		return nil, &auth.VerificationError{Kind: auth.Malformed, Err: err}
	}

	payload, err := keySet.VerifySignature(ctx, rawToken)
	if err != nil {
		return nil, &auth.VerificationError{Kind: auth.SignatureInvalid, Err: err}
	}

	var claims idTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, &auth.VerificationError{Kind: auth.Malformed, Err: fmt.Errorf("failed to decode claims: %w", err)}
	}

	extra := map[string]any{}
	if err := json.Unmarshal(payload, &extra); err != nil {
		return nil, &auth.VerificationError{Kind: auth.Malformed, Err: fmt.Errorf("failed to decode claims: %w", err)}
	}

	if claims.Issuer != issuer {
		return nil, &auth.VerificationError{
			Kind: auth.IssuerMismatch,
			Err:  fmt.Errorf("expected %q, got %q", issuer, claims.Issuer),
		}
	}

	if claims.TokenUse != "id" {
		return nil, &auth.VerificationError{
			Kind: auth.TokenUseMismatch,
			Err:  fmt.Errorf("expected token_use \"id\", got %q", claims.TokenUse),
		}
	}

	if !audienceMatches(claims, clientID) {
		return nil, &auth.VerificationError{Kind: auth.AudienceMismatch, Err: errors.New("token was not issued to this client")}
	}

	if claims.Expiry == nil {
		return nil, &auth.VerificationError{Kind: auth.Malformed, Err: errors.New("missing exp claim")}
	}
	expiresAt := claims.Expiry.Time()
	if !now.Before(expiresAt) {
		return nil, &auth.VerificationError{
			Kind: auth.ExpiredSignature,
			Err:  fmt.Errorf("expired at %s", expiresAt.UTC().Format(time.RFC3339)),
		}
	}

	if claims.Subject == "" {
		return nil, &auth.VerificationError{Kind: auth.Malformed, Err: errors.New("missing sub claim")}
	}

	for _, name := range []string{"sub", "email", "iss", "aud", "exp", "token_use", "client_id"} {
		delete(extra, name)
	}

	return &auth.Claims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		ExpiresAt: expiresAt,
		Issuer:    claims.Issuer,
		Audience:  clientID,
		Extra:     extra,
	}, nil
}

func audienceMatches(claims idTokenClaims, clientID string) bool {
	if len(claims.Audience) > 0 {
		return claims.Audience.Contains(clientID)
	}
	return claims.ClientID == clientID
}
