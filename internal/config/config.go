package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StationConfig pairs a station identifier with its display label.
type StationConfig struct {
	ID    string // USAF-WBAN identifier, e.g. "037720-99999"
	Label string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	Stations         []StationConfig
	BucketURL        string // empty selects the public NOAA bucket
	CacheDB          string // payload cache path; empty disables caching
	ThresholdMM      float64
	SweepThresholds  []float64
	FetchTimeout     time.Duration
	FetchRetryBudget time.Duration // total time allowed for retries of one fetch
	FetchWorkers     int
	HTTPAddr         string // empty disables the observability server
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
}

const (
	defaultStations        = "037720-99999=London (Heathrow),725053-94728=New York City (Central Park)"
	defaultSweepThresholds = "0,0.05,0.1,0.2,0.254,0.3,0.5,1,2,5"
)

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	stations, err := parseStations(envOrDefault("STATIONS", defaultStations))
	if err != nil {
		return nil, err
	}

	threshold, err := strconv.ParseFloat(envOrDefault("THRESHOLD_MM", "0.254"), 64)
	if err != nil || threshold < 0 {
		return nil, errors.New("invalid THRESHOLD_MM")
	}

	sweep, err := ParseFloatList(envOrDefault("SWEEP_THRESHOLDS", defaultSweepThresholds))
	if err != nil || len(sweep) == 0 {
		return nil, errors.New("invalid SWEEP_THRESHOLDS")
	}

	fetchTimeout, err := time.ParseDuration(envOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	fetchRetryBudget, err := time.ParseDuration(envOrDefault("FETCH_RETRY_BUDGET", "2m"))
	if err != nil || fetchRetryBudget <= 0 {
		return nil, errors.New("invalid FETCH_RETRY_BUDGET")
	}

	fetchWorkers, err := strconv.Atoi(envOrDefault("FETCH_WORKERS", "4"))
	if err != nil || fetchWorkers < 1 || fetchWorkers > 32 {
		return nil, errors.New("invalid FETCH_WORKERS: must be between 1 and 32")
	}

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cacheDB := ".cache/isd.db"
	if v, ok := os.LookupEnv("CACHE_DB"); ok {
		cacheDB = v
	}

	cfg := &Config{
		Stations:         stations,
		BucketURL:        os.Getenv("BUCKET_URL"),
		CacheDB:          cacheDB,
		ThresholdMM:      threshold,
		SweepThresholds:  sweep,
		FetchTimeout:     fetchTimeout,
		FetchRetryBudget: fetchRetryBudget,
		FetchWorkers:     fetchWorkers,
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "text"),
		ShutdownTimeout:  shutdownTimeout,
	}

	if len(cfg.Stations) == 0 {
		return nil, errors.New("STATIONS is required")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid LOG_LEVEL: must be debug, info, warn, or error")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("invalid LOG_FORMAT: must be text or json")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseStations parses comma-separated "id=label" pairs. Labels may contain
// anything but a comma.
func parseStations(s string) ([]StationConfig, error) {
	var out []StationConfig
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, label, ok := strings.Cut(entry, "=")
		id, label = strings.TrimSpace(id), strings.TrimSpace(label)
		if !ok || id == "" || label == "" {
			return nil, fmt.Errorf("invalid STATIONS entry %q: want id=label", entry)
		}
		out = append(out, StationConfig{ID: id, Label: label})
	}
	return out, nil
}

// ParseFloatList parses a comma-separated list of floats, skipping empty
// entries.
func ParseFloatList(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
