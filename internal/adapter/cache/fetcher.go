package cache

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/climate-data-etl/internal/observability"
)

// Fetcher downloads one station-year payload from the archive.
type Fetcher interface {
	FetchStationYear(ctx context.Context, stationID string, year int) ([]byte, error)
}

// CachingFetcher decorates a Fetcher with the local payload store. A hit
// skips the network entirely; a miss fetches and stores. Fetch errors,
// including a missing archive object, pass through uncached.
type CachingFetcher struct {
	inner   Fetcher
	store   *Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachingFetcher creates a cache decorator around an archive fetcher.
func NewCachingFetcher(inner Fetcher, store *Store, metrics *observability.Metrics, logger *slog.Logger) *CachingFetcher {
	return &CachingFetcher{inner: inner, store: store, metrics: metrics, logger: logger}
}

// FetchStationYear returns the cached payload when present, fetching and
// caching it otherwise. Cache faults degrade to a plain fetch rather than
// failing the station-year.
func (c *CachingFetcher) FetchStationYear(ctx context.Context, stationID string, year int) ([]byte, error) {
	payload, ok, err := c.store.Get(ctx, stationID, year)
	if err != nil {
		c.logger.Warn("cache read failed", "station", stationID, "year", year, "error", err)
	}
	if ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return payload, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	payload, err = c.inner.FetchStationYear(ctx, stationID, year)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(ctx, stationID, year, payload); err != nil {
		c.logger.Warn("cache write failed", "station", stationID, "year", year, "error", err)
	}
	return payload, nil
}
