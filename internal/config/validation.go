package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.validateProvider(); err != nil {
		return fmt.Errorf("provider config: %w", err)
	}

	if err := c.validateApp(); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if err := c.validateCookies(); err != nil {
		return fmt.Errorf("cookies config: %w", err)
	}

	if err := c.validateCache(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.validateBackend(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateProvider() error {
	p := c.Provider

	if err := requireAbsoluteURL("base_uri", p.BaseURI); err != nil {
		return err
	}

	if p.UserPoolID == "" {
		return fmt.Errorf("user_pool_id is required")
	}

	if p.Issuer == "" {
		return fmt.Errorf("issuer could not be derived from user_pool_id %q", p.UserPoolID)
	}
	if err := requireAbsoluteURL("issuer", p.Issuer); err != nil {
		return err
	}
	if err := requireAbsoluteURL("jwks_url", p.JWKSURL); err != nil {
		return err
	}

	if p.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}

	if p.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}

	hasOpenID := false
	for _, scope := range p.Scopes {
		if scope == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("'openid' scope is required")
	}

	if p.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must be positive")
	}

	return nil
}

func (c *Config) validateApp() error {
	if c.App.AuthAppDomain == "" {
		return fmt.Errorf("auth_app_domain is required")
	}
	if strings.Contains(c.App.AuthAppDomain, "/") {
		return fmt.Errorf("auth_app_domain must be a bare host name: %s", c.App.AuthAppDomain)
	}

	if err := requireAbsoluteURL("gallery_base_uri", c.App.GalleryBaseURI); err != nil {
		return err
	}

	if !strings.HasPrefix(c.App.LoginCallbackPath, "/") {
		return fmt.Errorf("login_callback_path must start with '/': %s", c.App.LoginCallbackPath)
	}

	switch c.App.LoginCallbackPath {
	case "/status", "/login", "/logout", "/health":
		return fmt.Errorf("login_callback_path collides with a built-in route: %s", c.App.LoginCallbackPath)
	}

	return nil
}

func (c *Config) validateCookies() error {
	if c.Cookies.Domain == "" {
		return fmt.Errorf("domain is required")
	}

	if c.Cookies.RefreshTTL < time.Hour {
		return fmt.Errorf("refresh_ttl must be at least 1 hour")
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		return fmt.Errorf("invalid type: %s (must be memory or redis)", c.Cache.Type)
	}

	if c.Cache.Type == "redis" {
		if c.Cache.Redis == nil {
			return fmt.Errorf("redis config is required when type is redis")
		}
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
	}

	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return nil
	}

	if err := requireAbsoluteURL("url", c.Backend.URL); err != nil {
		return err
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}

	for claim, header := range c.Backend.HeaderMappings {
		if claim == "" || header == "" {
			return fmt.Errorf("header mapping %q -> %q must name both a claim and a header", claim, header)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

func requireAbsoluteURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL: %s", field, raw)
	}

	return nil
}
