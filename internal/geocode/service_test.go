package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventboard/internal/model"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

type fakeProvider struct {
	mu         sync.Mutex
	calls      int
	candidates []model.Candidate
	err        error
}

func (p *fakeProvider) Search(_ context.Context, _ string, _ int) ([]model.Candidate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.candidates, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var paris = []model.Candidate{
	{DisplayName: "Paris, Île-de-France, France", Latitude: 48.8566, Longitude: 2.3522},
	{DisplayName: "Paris, Texas, United States", Latitude: 33.6609, Longitude: -95.5555},
}

func newTestService(provider Provider, cache Cache, ttl time.Duration) *Service {
	log := zerolog.Nop()
	return NewService(provider, cache, ttl, DefaultLimit, &log)
}

func TestResolveCachesWithinTTL(t *testing.T) {
	provider := &fakeProvider{candidates: paris}
	svc := newTestService(provider, newMemoryCache(), time.Hour)

	first, err := svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, paris, first)
	require.Equal(t, 1, provider.callCount())

	second, err := svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.callCount(), "cached result must not trigger a provider call")
}

func TestResolveNormalizesQueryForCaching(t *testing.T) {
	provider := &fakeProvider{candidates: paris}
	svc := newTestService(provider, newMemoryCache(), time.Hour)

	_, err := svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), "  pArIs ")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.callCount())
}

func TestResolveRefetchesAfterExpiry(t *testing.T) {
	provider := &fakeProvider{candidates: paris}
	svc := newTestService(provider, newMemoryCache(), 10*time.Millisecond)

	_, err := svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())

	time.Sleep(25 * time.Millisecond)

	_, err = svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount(), "expired entry must trigger exactly one new provider call")

	_, err = svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.callCount())
}

func TestResolveProviderFailureIsNotCached(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	cache := newMemoryCache()
	svc := newTestService(provider, cache, time.Hour)

	_, err := svc.Resolve(context.Background(), "Paris")
	require.Error(t, err)
	assert.Empty(t, cache.entries)

	// the next call goes back to the provider, no stale failure is served
	provider.mu.Lock()
	provider.err = nil
	provider.candidates = paris
	provider.mu.Unlock()

	got, err := svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, paris, got)
	assert.Equal(t, 2, provider.callCount())
}

func TestResolveEmptyResultIsNotCached(t *testing.T) {
	provider := &fakeProvider{candidates: nil}
	cache := newMemoryCache()
	svc := newTestService(provider, cache, time.Hour)

	got, err := svc.Resolve(context.Background(), "Nowhere In Particular")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, cache.entries)
}

func TestResolveRejectsEmptyQuery(t *testing.T) {
	provider := &fakeProvider{candidates: paris}
	svc := newTestService(provider, newMemoryCache(), time.Hour)

	_, err := svc.Resolve(context.Background(), "   ")
	require.Error(t, err)
	assert.Zero(t, provider.callCount())
}

func TestResolveDiscardsUndecodableCacheEntry(t *testing.T) {
	provider := &fakeProvider{candidates: paris}
	cache := newMemoryCache()
	require.NoError(t, cache.Set(context.Background(), "geocode:paris", []byte("[{'python': repr}]"), time.Hour))
	svc := newTestService(provider, cache, time.Hour)

	got, err := svc.Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, paris, got)
	assert.Equal(t, 1, provider.callCount())

	// the bad entry was overwritten with strict JSON
	raw, err := cache.Get(context.Background(), "geocode:paris")
	require.NoError(t, err)
	var decoded []model.Candidate
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, paris, decoded)
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "paris france", NormalizeQuery("  Paris   FRANCE "))
	assert.Equal(t, "", NormalizeQuery("   "))
}
