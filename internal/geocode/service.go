package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"eventboard/internal/model"
)

// DefaultTTL matches the 3600-second expiry of cached geocode entries.
const DefaultTTL = time.Hour

// DefaultLimit is the number of candidates requested from the provider.
const DefaultLimit = 5

// Provider performs the actual forward-geocoding call.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]model.Candidate, error)
}

// Service wraps a geocoding provider with a TTL cache. Cached payloads are
// strict JSON and are never evaluated as code.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	limit    int
	log      *zerolog.Logger
}

func NewService(provider Provider, cache Cache, ttl time.Duration, limit int, log *zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		limit:    limit,
		log:      log,
	}
}

// NormalizeQuery lowercases and collapses whitespace so equivalent queries
// share a cache entry.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func cacheKey(normalized string) string {
	return "geocode:" + normalized
}

// Resolve serves candidates from the cache when a fresh entry exists,
// otherwise asks the provider and populates the cache. Provider failures are
// returned to the caller and leave the cache untouched; empty provider
// results are not cached either.
func (s *Service) Resolve(ctx context.Context, query string) ([]model.Candidate, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	key := cacheKey(normalized)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var candidates []model.Candidate
		if err := json.Unmarshal(cached, &candidates); err == nil {
			s.log.Debug().Str("query", normalized).Msg("geocode cache hit")
			return candidates, nil
		}
		s.log.Warn().Str("key", key).Msg("discarding undecodable geocode cache entry")
	} else if !errors.Is(err, ErrCacheMiss) {
		s.log.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
	}

	candidates, err := s.provider.Search(ctx, query, s.limit)
	if err != nil {
		s.log.Error().Err(err).Str("query", normalized).Msg("geocoding provider call failed")
		return nil, err
	}

	if len(candidates) == 0 {
		return []model.Candidate{}, nil
	}

	payload, err := json.Marshal(candidates)
	if err != nil {
		s.log.Error().Err(err).Str("query", normalized).Msg("failed to encode geocode cache entry")
		return candidates, nil
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
	}

	return candidates, nil
}
