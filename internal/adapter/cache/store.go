// Package cache persists fetched station-year payloads in a local SQLite
// database so repeat runs do not re-download the archive. Payloads are
// stored gzip-compressed and keyed by station and year; a missing archive
// object is never cached, so a station-year published later is picked up on
// the next run.
package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS station_years (
	station_id   TEXT NOT NULL,
	year         INTEGER NOT NULL,
	payload      BLOB NOT NULL,
	payload_hash TEXT NOT NULL,
	fetched_at   DATETIME NOT NULL,
	PRIMARY KEY (station_id, year)
)`

// Open opens the cache database at path, creating the schema if needed.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return db, nil
}

// Store reads and writes station-year payloads.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewStore wraps an open cache database. The clock stamps fetched_at so
// tests can freeze it.
func NewStore(db *sql.DB, clock clockwork.Clock) *Store {
	return &Store{db: db, clock: clock}
}

// Get returns the decompressed payload for a station-year, with false when
// no entry exists.
func (s *Store) Get(ctx context.Context, stationID string, year int) ([]byte, bool, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM station_years WHERE station_id = ? AND year = ?`,
		stationID, year).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, false, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	payload, err := io.ReadAll(gz)
	if err != nil {
		return nil, false, fmt.Errorf("decompress cache entry: %w", err)
	}
	return payload, true, nil
}

// Put stores a payload for a station-year, replacing any previous entry.
func (s *Store) Put(ctx context.Context, stationID string, year int, payload []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(payload)
	hashHex := hex.EncodeToString(hash[:])

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO station_years (station_id, year, payload, payload_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(station_id, year) DO UPDATE SET
			payload = excluded.payload,
			payload_hash = excluded.payload_hash,
			fetched_at = excluded.fetched_at
	`, stationID, year, buf.Bytes(), hashHex, s.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}
	return nil
}
