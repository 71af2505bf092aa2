package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-data-etl/internal/observability"
)

type countingFetcher struct {
	calls   int
	payload []byte
	err     error
}

func (f *countingFetcher) FetchStationYear(_ context.Context, _ string, _ int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func testCachingFetcher(t *testing.T, inner Fetcher) *CachingFetcher {
	t.Helper()
	return NewCachingFetcher(inner, setupTestStore(t), observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCachingFetcher_MissThenHit(t *testing.T) {
	inner := &countingFetcher{payload: []byte("station year csv")}
	f := testCachingFetcher(t, inner)

	first, err := f.FetchStationYear(context.Background(), "037720-99999", 2023)
	require.NoError(t, err)
	assert.Equal(t, inner.payload, first)

	second, err := f.FetchStationYear(context.Background(), "037720-99999", 2023)
	require.NoError(t, err)
	assert.Equal(t, inner.payload, second)

	assert.Equal(t, 1, inner.calls, "second lookup should hit the cache")
}

func TestCachingFetcher_ErrorsAreNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("object missing")}
	f := testCachingFetcher(t, inner)

	_, err := f.FetchStationYear(context.Background(), "037720-99999", 1920)
	require.Error(t, err)

	_, err = f.FetchStationYear(context.Background(), "037720-99999", 1920)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "failed fetches should be retried on the next run")
}

func TestCachingFetcher_DifferentKeysMiss(t *testing.T) {
	inner := &countingFetcher{payload: []byte("csv")}
	f := testCachingFetcher(t, inner)

	_, err := f.FetchStationYear(context.Background(), "037720-99999", 2022)
	require.NoError(t, err)
	_, err = f.FetchStationYear(context.Background(), "037720-99999", 2023)
	require.NoError(t, err)
	_, err = f.FetchStationYear(context.Background(), "725053-94728", 2023)
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}
