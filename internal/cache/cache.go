package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/config"
)

var ErrNotFound = errors.New("pending login not found")

// Store holds pending logins between the redirect to the hosted login page
// and the provider's callback. Entries are single use.
type Store interface {
	Put(ctx context.Context, login auth.PendingLogin, ttl time.Duration) error
	// Take returns and removes the pending login for state.
	Take(ctx context.Context, state string) (auth.PendingLogin, error)
	Ping(ctx context.Context) error
	Close() error
}

func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.Redis == nil {
			return nil, errors.New("redis config is required for redis cache type")
		}
		return NewRedisStore(*cfg.Redis)
	default:
		return nil, errors.New("unsupported cache type: " + cfg.Type)
	}
}

func stateKey(state string) string {
	return "login:state:" + state
}

func encode(login auth.PendingLogin) ([]byte, error) {
	data, err := json.Marshal(login)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pending login: %w", err)
	}
	return data, nil
}

func decode(data []byte) (auth.PendingLogin, error) {
	var login auth.PendingLogin
	if err := json.Unmarshal(data, &login); err != nil {
		return auth.PendingLogin{}, fmt.Errorf("failed to unmarshal pending login: %w", err)
	}
	return login, nil
}
