package token_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dermacare/internal/pkg/cache"
	"dermacare/internal/pkg/token"
)

// fakeCache é uma implementação em memória da interface cache.Client para testes.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.entries[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return val, nil
}

func (f *fakeCache) GetInt(ctx context.Context, key string) (int, error) {
	return 0, cache.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = "1"
	return nil
}

func (f *fakeCache) Incr(ctx context.Context, key string) error { return nil }

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok, nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

// TestRevocationStore_RevokeAndCheck testa o ciclo revogar -> consultar.
func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	store := token.NewCacheRevocationStore(newFakeCache())
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "token-abc")
	assert.NoError(t, err)
	assert.False(t, revoked)

	err = store.Revoke(ctx, "token-abc", time.Hour)
	assert.NoError(t, err)

	revoked, err = store.IsRevoked(ctx, "token-abc")
	assert.NoError(t, err)
	assert.True(t, revoked)

	// Outro token não é afetado
	revoked, err = store.IsRevoked(ctx, "token-xyz")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

// TestRevocationStore_ExpiredTokenIsNoop testa que token já expirado não entra no conjunto.
func TestRevocationStore_ExpiredTokenIsNoop(t *testing.T) {
	fake := newFakeCache()
	store := token.NewCacheRevocationStore(fake)
	ctx := context.Background()

	err := store.Revoke(ctx, "token-expirado", 0)
	assert.NoError(t, err)
	err = store.Revoke(ctx, "token-expirado", -time.Minute)
	assert.NoError(t, err)

	assert.Empty(t, fake.entries)
}
