package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	App      AppConfig      `yaml:"app"`
	Cookies  CookieConfig   `yaml:"cookies"`
	Login    LoginConfig    `yaml:"login"`
	Cache    CacheConfig    `yaml:"cache"`
	Backend  BackendConfig  `yaml:"backend"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ProviderConfig describes the hosted identity provider (a Cognito user pool
// and its hosted UI domain).
type ProviderConfig struct {
	BaseURI      string        `yaml:"base_uri"`
	UserPoolID   string        `yaml:"user_pool_id"`
	Issuer       string        `yaml:"issuer,omitempty"`
	JWKSURL      string        `yaml:"jwks_url,omitempty"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Scopes       []string      `yaml:"scopes"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
}

type AppConfig struct {
	AuthAppDomain      string `yaml:"auth_app_domain"`
	GalleryBaseURI     string `yaml:"gallery_base_uri"`
	LoginCallbackPath  string `yaml:"login_callback_path"`
	LogoutCallbackPath string `yaml:"logout_callback_path"`
}

type CookieConfig struct {
	Domain string `yaml:"domain"`
	// RefreshTTL is kept one day short of the provider's refresh token
	// lifetime so the session is always renewed before the provider expires it.
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type LoginConfig struct {
	PKCE     bool          `yaml:"pkce"`
	StateTTL time.Duration `yaml:"state_ttl"`
}

type CacheConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

type BackendConfig struct {
	URL            string            `yaml:"url,omitempty"`
	Timeout        time.Duration     `yaml:"timeout"`
	PreserveHost   bool              `yaml:"preserve_host"`
	HeaderMappings map[string]string `yaml:"header_mappings"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.loadSecretsFromEnv()
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if len(c.Provider.Scopes) == 0 {
		c.Provider.Scopes = []string{"email", "openid", "phone"}
	}
	if c.Provider.HTTPTimeout == 0 {
		c.Provider.HTTPTimeout = 10 * time.Second
	}
	if c.Provider.Issuer == "" && c.Provider.UserPoolID != "" {
		c.Provider.Issuer = CognitoIssuer(c.Provider.UserPoolID)
	}
	if c.Provider.JWKSURL == "" && c.Provider.Issuer != "" {
		c.Provider.JWKSURL = strings.TrimSuffix(c.Provider.Issuer, "/") + "/.well-known/jwks.json"
	}

	if c.App.LoginCallbackPath == "" {
		c.App.LoginCallbackPath = "/login_callback"
	}
	if c.App.LogoutCallbackPath == "" {
		c.App.LogoutCallbackPath = "/"
	}

	if c.Cookies.RefreshTTL == 0 {
		c.Cookies.RefreshTTL = 29 * 24 * time.Hour
	}

	if c.Login.StateTTL == 0 {
		c.Login.StateTTL = 5 * time.Minute
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if c.Cache.Redis.PoolSize == 0 {
			c.Cache.Redis.PoolSize = 10
		}
		if c.Cache.Redis.MaxRetries == 0 {
			c.Cache.Redis.MaxRetries = 3
		}
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if len(c.Backend.HeaderMappings) == 0 {
		c.Backend.HeaderMappings = map[string]string{
			"sub":   "X-Auth-Subject",
			"email": "X-Auth-Email",
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) loadSecretsFromEnv() {
	if v := os.Getenv("COGNITO_CLIENT_ID"); v != "" {
		c.Provider.ClientID = v
	}
	if v := os.Getenv("COGNITO_CLIENT_SECRET"); v != "" {
		c.Provider.ClientSecret = v
	}

	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if v := os.Getenv("REDIS_PASSWORD"); v != "" {
			c.Cache.Redis.Password = v
		}
	}
}

// CognitoIssuer derives the token issuer of a user pool. Pool ids are
// prefixed with their region, e.g. "eu-west-1_AbCdEf".
func CognitoIssuer(userPoolID string) string {
	region, _, ok := strings.Cut(userPoolID, "_")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}
