package auth

import (
	"net/http"
	"time"
)

// Claims is the verified view of an identity token. It is recomputed on every
// request and never stored.
type Claims struct {
	Subject   string         `json:"sub"`
	Email     string         `json:"email,omitempty"`
	ExpiresAt time.Time      `json:"exp"`
	Issuer    string         `json:"iss"`
	Audience  string         `json:"aud"`
	Extra     map[string]any `json:"-"`
}

// TokenBundle is a successful token endpoint response. RefreshToken is only
// set when the provider issued one.
type TokenBundle struct {
	AccessToken   string
	IdentityToken string
	RefreshToken  string
	TokenType     string
	ExpiresIn     int

	// Raw is the undecoded response body, kept for diagnostics.
	Raw []byte
}

// Expiry returns the absolute expiry of the bundle's tokens relative to now.
func (b *TokenBundle) Expiry(now time.Time) time.Time {
	return now.Add(time.Duration(b.ExpiresIn) * time.Second)
}

type Reason int

const (
	NoCredentials Reason = iota + 1
	InvalidIdentityToken
	RefreshFailed
)

func (r Reason) String() string {
	switch r {
	case NoCredentials:
		return "no_credentials"
	case InvalidIdentityToken:
		return "invalid_identity_token"
	case RefreshFailed:
		return "refresh_failed"
	default:
		return "unknown"
	}
}

// Message is safe to show to the caller.
func (r Reason) Message() string {
	switch r {
	case NoCredentials:
		return "Not authenticated"
	case InvalidIdentityToken:
		return "Session is invalid or has expired"
	case RefreshFailed:
		return "Session could not be renewed"
	default:
		return "Not authenticated"
	}
}

// Decision is either authenticated, in which case Claims is set, or
// unauthenticated with a Reason.
type Decision struct {
	Claims *Claims
	Reason Reason
}

func Authenticated(claims *Claims) Decision {
	return Decision{Claims: claims}
}

func Unauthenticated(reason Reason) Decision {
	return Decision{Reason: reason}
}

func (d Decision) IsAuthenticated() bool {
	return d.Claims != nil
}

// Result pairs a decision with the cookies the HTTP layer must emit.
type Result struct {
	Decision Decision
	Cookies  []*http.Cookie
}

// PendingLogin bridges the redirect to the hosted login page and the
// callback when state checking and PKCE are enabled.
type PendingLogin struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}
