package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marcogenualdo/sso-session/internal/auth"
)

type MemoryStore struct {
	data   map[string]*entry
	mu     sync.Mutex
	stopCh chan struct{}
	once   sync.Once
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:   make(map[string]*entry),
		stopCh: make(chan struct{}),
	}

	go ms.cleanupExpired()

	return ms
}

func (ms *MemoryStore) Put(ctx context.Context, login auth.PendingLogin, ttl time.Duration) error {
	data, err := encode(login)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.data[stateKey(login.State)] = &entry{
		value:     data,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

func (ms *MemoryStore) Take(ctx context.Context, state string) (auth.PendingLogin, error) {
	ms.mu.Lock()
	item, exists := ms.data[stateKey(state)]
	delete(ms.data, stateKey(state))
	ms.mu.Unlock()

	if !exists || time.Now().After(item.expiresAt) {
		return auth.PendingLogin{}, ErrNotFound
	}

	return decode(item.value)
}

func (ms *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (ms *MemoryStore) Close() error {
	ms.once.Do(func() { close(ms.stopCh) })
	return nil
}

func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.stopCh:
			return
		}
	}
}

func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, item := range ms.data {
		if now.After(item.expiresAt) {
			delete(ms.data, key)
		}
	}
}
