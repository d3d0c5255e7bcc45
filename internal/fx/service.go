package fx

import (
	"context"
	"log/slog"

	"finreport/internal/cache"
)

// Fetcher obtains a fresh snapshot from the rate source.
type Fetcher interface {
	Fetch(ctx context.Context, base string, symbols []string) (Snapshot, error)
}

// Service composes a fetcher with a TTL cache. Both collaborators are
// injected so tests can swap in a fake fetcher or a fixed clock. Concurrent
// misses for the same key may fetch twice; the last write wins and the
// values are interchangeable within the TTL window.
type Service struct {
	fetcher Fetcher
	cache   cache.Cache[Snapshot]
}

func NewService(fetcher Fetcher, c cache.Cache[Snapshot]) *Service {
	return &Service{fetcher: fetcher, cache: c}
}

// Rates returns a snapshot for base against symbols, served from the cache
// when fresh. A fetch failure propagates without touching the cache.
func (s *Service) Rates(ctx context.Context, base string, symbols []string) (Snapshot, error) {
	key := CacheKey(base, symbols)

	if snap, ok := s.cache.Get(key); ok {
		slog.DebugContext(ctx, "Rate cache hit", "cache_key", key)
		return snap, nil
	}

	snap, err := s.fetcher.Fetch(ctx, base, symbols)
	if err != nil {
		return Snapshot{}, err
	}

	s.cache.Set(key, snap)
	slog.DebugContext(ctx, "Rate cache filled", "cache_key", key, "date", snap.Date)
	return snap, nil
}
