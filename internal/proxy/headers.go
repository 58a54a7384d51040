package proxy

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

// InjectHeaders projects claims onto request headers per mappings (claim name
// to header name). Incoming copies of every mapped header are removed first
// so a client cannot forge them.
func InjectHeaders(req *http.Request, claims *auth.Claims, mappings map[string]string) {
	for _, header := range mappings {
		req.Header.Del(header)
	}

	for claim, header := range mappings {
		value, exists := claimValue(claims, claim)
		if !exists {
			continue
		}

		headerValue := formatHeaderValue(value)
		if headerValue != "" {
			req.Header.Set(header, headerValue)
		}
	}
}

// StripSessionCookies keeps the session tokens away from the backend while
// leaving the backend's own cookies in place.
func StripSessionCookies(req *http.Request) {
	cookies := req.Cookies()
	req.Header.Del("Cookie")
	for _, c := range cookies {
		switch c.Name {
		case security.IdentityTokenCookie, security.RefreshTokenCookie:
			continue
		}
		req.AddCookie(c)
	}
}

func claimValue(claims *auth.Claims, name string) (any, bool) {
	switch name {
	case "sub":
		return claims.Subject, claims.Subject != ""
	case "email":
		return claims.Email, claims.Email != ""
	case "iss":
		return claims.Issuer, claims.Issuer != ""
	case "aud":
		return claims.Audience, claims.Audience != ""
	case "exp":
		return claims.ExpiresAt.Unix(), !claims.ExpiresAt.IsZero()
	}

	value, exists := claims.Extra[name]
	return value, exists
}

func formatHeaderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatHeaderValue(item))
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
