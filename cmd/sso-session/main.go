package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/cache"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/server"
	"github.com/marcogenualdo/sso-session/pkg/security"
)

const (
	version           = "1.0.0"
	defaultConfigPath = "/etc/sso-session/config.yaml"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	configPathShort := flag.String("c", defaultConfigPath, "path to configuration file (short)")
	showVersion := flag.Bool("version", false, "show version and exit")
	showHelp := flag.Bool("help", false, "show help and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("SSO Session v%s\n", version)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Println("SSO Session - cookie sessions in front of a hosted OAuth2/OIDC login")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfgPath := *configPath
	if *configPathShort != defaultConfigPath {
		cfgPath = *configPathShort
	}

	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting sso-session", "version", version)

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	logger.Info("cache initialized", "type", cfg.Cache.Type, "pkce", cfg.Login.PKCE)

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Provider.HTTPTimeout

	urls, err := oidc.NewURLBuilder(*cfg)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to build provider urls: %w", err)
	}

	cookies := security.NewCookieCodec(cfg.Cookies)
	verifier := oidc.NewVerifier(context.Background(), cfg.Provider, httpClient)
	tokens := oidc.NewTokenClient(cfg.Provider, urls, httpClient, logger)
	authenticator := auth.NewAuthenticator(verifier, tokens, cookies, cfg.Cookies.RefreshTTL, logger)

	logger.Info("provider initialized",
		"issuer", cfg.Provider.Issuer,
		"jwks_url", cfg.Provider.JWKSURL,
		"token_url", urls.TokenURL(),
	)

	srv, err := server.New(*cfg, server.Dependencies{
		Authenticator: authenticator,
		URLs:          urls,
		Cookies:       cookies,
		Store:         store,
		HTTPClient:    httpClient,
	}, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
