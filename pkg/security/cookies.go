package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/marcogenualdo/sso-session/internal/config"
)

const (
	IdentityTokenCookie = "id_token"
	RefreshTokenCookie  = "refresh_token"
	// LivenessCookie is a non-sensitive hint readable by browser code that the
	// visitor probably holds a session.
	LivenessCookie = "was_authenticated"
)

// Credentials are the session tokens carried by a request. An empty field
// means the cookie was absent or empty.
type Credentials struct {
	IdentityToken string
	RefreshToken  string
}

func (c Credentials) Empty() bool {
	return c.IdentityToken == "" && c.RefreshToken == ""
}

// CookieCodec reads session credentials from a Cookie header and builds the
// Set-Cookie directives for them. Every cookie it builds is Secure,
// SameSite=Strict, scoped to Path=/ on the configured domain and carries an
// explicit Expires.
type CookieCodec struct {
	domain string
}

func NewCookieCodec(cfg config.CookieConfig) *CookieCodec {
	return &CookieCodec{domain: cfg.Domain}
}

// ParseCredentials extracts the session tokens from a raw Cookie header.
// Malformed pairs in the header are skipped.
func (c *CookieCodec) ParseCredentials(cookieHeader string) Credentials {
	if cookieHeader == "" {
		return Credentials{}
	}

	req := &http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
	return Credentials{
		IdentityToken: cookieValue(req, IdentityTokenCookie),
		RefreshToken:  cookieValue(req, RefreshTokenCookie),
	}
}

func (c *CookieCodec) IdentityTokenCookie(token string, expires time.Time) *http.Cookie {
	return c.build(IdentityTokenCookie, token, true, expires)
}

func (c *CookieCodec) RefreshTokenCookie(token string, expires time.Time) *http.Cookie {
	return c.build(RefreshTokenCookie, token, true, expires)
}

func (c *CookieCodec) LivenessCookie(expires time.Time) *http.Cookie {
	return c.build(LivenessCookie, "true", false, expires)
}

// ClearSessionCookies returns directives that delete all three session
// cookies regardless of their current state.
func (c *CookieCodec) ClearSessionCookies() []*http.Cookie {
	cookies := []*http.Cookie{
		c.build(IdentityTokenCookie, "", true, time.Unix(0, 0)),
		c.build(RefreshTokenCookie, "", true, time.Unix(0, 0)),
		c.build(LivenessCookie, "", false, time.Unix(0, 0)),
	}
	for _, cookie := range cookies {
		cookie.MaxAge = -1
	}
	return cookies
}

func (c *CookieCodec) build(name, value string, httpOnly bool, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		Expires:  expires.UTC(),
		Secure:   true,
		HttpOnly: httpOnly,
		SameSite: http.SameSiteStrictMode,
	}
}

// WriteCookies emits one Set-Cookie header per directive.
func WriteCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		http.SetCookie(w, cookie)
	}
}

// CookieHeader joins every Cookie header of r. HTTP/2 clients may split
// cookies across several header fields.
func CookieHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}

func cookieValue(req *http.Request, name string) string {
	cookie, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
