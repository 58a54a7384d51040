package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/config"
)

// maxTokenResponseSize bounds how much of a token endpoint response is read.
const maxTokenResponseSize = 1 << 20

// TokenClient performs authorization-code and refresh-token grants against
// the provider's token endpoint. It never retries.
type TokenClient struct {
	tokenURL     string
	clientID     string
	clientSecret string
	redirectURI  string
	client       *http.Client
	logger       *slog.Logger
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	IDToken          string `json:"id_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func NewTokenClient(cfg config.ProviderConfig, urls *URLBuilder, client *http.Client, logger *slog.Logger) *TokenClient {
	return &TokenClient{
		tokenURL:     urls.TokenURL(),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  urls.LoginCallbackURL(),
		client:       client,
		logger:       logger,
	}
}

func (c *TokenClient) Exchange(ctx context.Context, grant auth.Grant) (*auth.TokenBundle, error) {
	if err := grant.Validate(); err != nil {
		return nil, err
	}

	form := url.Values{
		"grant_type":    {grant.GrantType()},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURI},
	}
	if grant.IsAuthorizationCode() {
		form.Set("code", grant.Value())
		if v := grant.CodeVerifier(); v != "" {
			form.Set("code_verifier", v)
		}
	} else {
		form.Set("refresh_token", grant.Value())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &auth.ExchangeError{Err: fmt.Errorf("failed to create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(c.clientID), url.QueryEscape(c.clientSecret))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &auth.ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, &auth.ExchangeError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var tr tokenResponse
		_ = json.Unmarshal(body, &tr)
		c.logger.Warn("token endpoint returned an error",
			"grant_type", grant.GrantType(),
			"status", resp.StatusCode,
			"error", tr.Error,
			"error_description", tr.ErrorDescription,
		)
		return nil, &auth.ExchangeError{
			Status: resp.StatusCode,
			Body:   body,
			Err:    providerError(tr),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &auth.ExchangeError{Status: resp.StatusCode, Body: body, Err: fmt.Errorf("failed to decode token response: %w", err)}
	}

	if tr.IDToken == "" {
		return nil, &auth.ExchangeError{Status: resp.StatusCode, Body: body, Err: errors.New("token response has no id_token")}
	}
	if tr.ExpiresIn <= 0 {
		return nil, &auth.ExchangeError{Status: resp.StatusCode, Body: body, Err: errors.New("token response has no positive expires_in")}
	}

	return &auth.TokenBundle{
		AccessToken:   tr.AccessToken,
		IdentityToken: tr.IDToken,
		RefreshToken:  tr.RefreshToken,
		TokenType:     tr.TokenType,
		ExpiresIn:     tr.ExpiresIn,
		Raw:           body,
	}, nil
}

func providerError(tr tokenResponse) error {
	switch {
	case tr.Error != "" && tr.ErrorDescription != "":
		return fmt.Errorf("%s: %s", tr.Error, tr.ErrorDescription)
	case tr.Error != "":
		return errors.New(tr.Error)
	default:
		return errors.New("unexpected token endpoint response")
	}
}
