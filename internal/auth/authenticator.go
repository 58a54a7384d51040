package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcogenualdo/sso-session/pkg/security"
)

// Authenticator decides per request whether the caller holds a valid session
// and silently renews it from the refresh token when the identity token is
// missing or no longer valid. It keeps no state between requests.
type Authenticator struct {
	verifier   TokenVerifier
	exchanger  TokenExchanger
	cookies    *security.CookieCodec
	refreshTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewAuthenticator(verifier TokenVerifier, exchanger TokenExchanger, cookies *security.CookieCodec, refreshTTL time.Duration, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		verifier:   verifier,
		exchanger:  exchanger,
		cookies:    cookies,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate classifies a request from its raw Cookie header. Cookies in
// the result are only set when a refresh happened.
func (a *Authenticator) Authenticate(ctx context.Context, cookieHeader string) Result {
	creds := a.cookies.ParseCredentials(cookieHeader)

	if creds.IdentityToken != "" {
		claims, err := a.verifier.Verify(ctx, creds.IdentityToken)
		if err == nil {
			return Result{Decision: Authenticated(claims)}
		}
		a.logger.Debug("identity token rejected",
			"kind", VerificationKindOf(err).String(),
			"error", err,
		)
	}

	if creds.RefreshToken == "" {
		if creds.IdentityToken != "" {
			return Result{Decision: Unauthenticated(InvalidIdentityToken)}
		}
		return Result{Decision: Unauthenticated(NoCredentials)}
	}

	bundle, err := a.exchanger.Exchange(ctx, RefreshToken(creds.RefreshToken))
	if err != nil {
		// Existing cookies are left alone so a provider outage does not log
		// everybody out.
		a.logger.Warn("token refresh failed", "error", err)
		return Result{Decision: Unauthenticated(RefreshFailed)}
	}

	claims, err := a.verifier.Verify(ctx, bundle.IdentityToken)
	if err != nil {
		a.logger.Warn("refreshed identity token rejected",
			"kind", VerificationKindOf(err).String(),
			"error", err,
		)
		return Result{Decision: Unauthenticated(InvalidIdentityToken)}
	}

	now := a.now()
	expires := bundle.Expiry(now)
	cookies := []*http.Cookie{
		a.cookies.IdentityTokenCookie(bundle.IdentityToken, expires),
		a.cookies.LivenessCookie(expires),
	}

	// Providers that rotate refresh tokens return a new one on the refresh
	// grant; the old one is then useless.
	if bundle.RefreshToken != "" && bundle.RefreshToken != creds.RefreshToken {
		cookies = append(cookies, a.cookies.RefreshTokenCookie(bundle.RefreshToken, now.Add(a.refreshTTL)))
	}

	a.logger.Info("session refreshed", "sub", claims.Subject, "expires_in", bundle.ExpiresIn)

	return Result{Decision: Authenticated(claims), Cookies: cookies}
}

// CompleteLogin exchanges an authorization code and returns the cookies that
// establish the session. The provider must return access, identity and
// refresh tokens together.
func (a *Authenticator) CompleteLogin(ctx context.Context, grant Grant) ([]*http.Cookie, *Claims, error) {
	if !grant.IsAuthorizationCode() {
		return nil, nil, fmt.Errorf("login requires an authorization code grant")
	}

	bundle, err := a.exchanger.Exchange(ctx, grant)
	if err != nil {
		return nil, nil, err
	}

	if bundle.AccessToken == "" || bundle.IdentityToken == "" || bundle.RefreshToken == "" {
		return nil, nil, &ExchangeError{Status: http.StatusOK, Body: bundle.Raw, Err: ErrIncompleteBundle}
	}

	claims, err := a.verifier.Verify(ctx, bundle.IdentityToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify identity token: %w", err)
	}

	now := a.now()
	identityExpiry := bundle.Expiry(now)

	cookies := []*http.Cookie{
		a.cookies.IdentityTokenCookie(bundle.IdentityToken, identityExpiry),
		a.cookies.RefreshTokenCookie(bundle.RefreshToken, now.Add(a.refreshTTL)),
		a.cookies.LivenessCookie(identityExpiry),
	}

	return cookies, claims, nil
}
