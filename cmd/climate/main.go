// Command climate fetches NOAA ISD hourly observations for the configured
// stations, derives precipitation and temperature metrics, and writes the
// comparison tables.
//
// Usage:
//
//	go run ./cmd/climate run --start 2019 --end 2023 --out out
//	go run ./cmd/climate fetch --start 2019 --end 2023
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/couchcryptid/climate-data-etl/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/climate-data-etl/internal/adapter/http"
	"github.com/couchcryptid/climate-data-etl/internal/adapter/noaa"
	"github.com/couchcryptid/climate-data-etl/internal/config"
	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/export"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
	"github.com/couchcryptid/climate-data-etl/internal/pipeline"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/schollz/progressbar/v3"
)

type cmdArgs struct {
	Run   runCmd   `command:"run" description:"Fetch station years and write the comparison tables"`
	Fetch fetchCmd `command:"fetch" description:"Warm the payload cache without writing tables"`
}

type runCmd struct {
	Start      int      `long:"start" default:"2023" description:"first year to fetch (inclusive)"`
	End        int      `long:"end" default:"2023" description:"last year to fetch (inclusive)"`
	Threshold  *float64 `long:"threshold" description:"rainy-hour depth threshold in mm (overrides THRESHOLD_MM)"`
	Thresholds string   `long:"thresholds" description:"comma-separated sweep thresholds in mm (overrides SWEEP_THRESHOLDS)"`
	Out        string   `long:"out" default:"out" description:"output directory for the CSV and JSON tables"`
	Quiet      bool     `long:"quiet" description:"suppress the progress bar"`
}

type fetchCmd struct {
	Start int  `long:"start" default:"2023" description:"first year to fetch (inclusive)"`
	End   int  `long:"end" default:"2023" description:"last year to fetch (inclusive)"`
	Quiet bool `long:"quiet" description:"suppress the progress bar"`
}

func main() {
	// .env is optional; only unexpected failures are worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	// go-flags calls Execute on the parsed subcommand.
	if _, err := flags.Parse(&cmdArgs{}); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				return
			}
			os.Exit(2)
		}
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// Execute wires the adapters and runs one comparison.
func (c *runCmd) Execute(_ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	thresholdMM := cfg.ThresholdMM
	if c.Threshold != nil {
		if *c.Threshold < 0 {
			return errors.New("invalid --threshold: must be >= 0")
		}
		thresholdMM = *c.Threshold
	}

	sweep := cfg.SweepThresholds
	if c.Thresholds != "" {
		sweep, err = config.ParseFloatList(c.Thresholds)
		if err != nil || len(sweep) == 0 {
			return errors.New("invalid --thresholds: want a comma-separated list of mm values")
		}
	}

	client := noaa.NewClient(cfg.BucketURL, cfg.FetchTimeout, cfg.FetchRetryBudget, metrics, logger)

	// Payload cache is feature-flagged via CACHE_DB ("" disables).
	var fetcher pipeline.Fetcher = client
	if cfg.CacheDB != "" {
		db, err := cache.Open(cfg.CacheDB)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer db.Close() //nolint:errcheck // read-mostly handle, nothing to recover
		fetcher = cache.NewCachingFetcher(client, cache.NewStore(db, clockwork.NewRealClock()), metrics, logger)
		logger.Info("payload cache enabled", "path", cfg.CacheDB)
	} else {
		logger.Info("payload cache disabled")
	}

	stations := make([]pipeline.Station, 0, len(cfg.Stations))
	for _, st := range cfg.Stations {
		stations = append(stations, pipeline.Station{ID: st.ID, Label: st.Label})
	}

	params := pipeline.Params{
		Stations:        stations,
		StartYear:       c.Start,
		EndYear:         c.End,
		ThresholdMM:     thresholdMM,
		SweepThresholds: sweep,
		FetchWorkers:    cfg.FetchWorkers,
	}

	if total := len(stations) * yearCount(c.Start, c.End); !c.Quiet && total > 0 {
		bar := newBar(total, "station years")
		params.OnUnitDone = func() { _ = bar.Add(1) }
	}

	p := pipeline.New(fetcher, params, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Operational endpoints are feature-flagged via HTTP_ADDR ("" disables).
	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	writer := export.NewWriter(c.Out, clockwork.NewRealClock(), logger)
	info := export.RunInfo{StartYear: c.Start, EndYear: c.End, ThresholdMM: thresholdMM}
	if err := writer.WriteAll(info, result); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	export.Report(os.Stdout, result)
	return nil
}

// Execute fills the payload cache for the configured stations and years so a
// later run can work offline.
func (c *fetchCmd) Execute(_ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.CacheDB == "" {
		return errors.New("fetch requires CACHE_DB to be set")
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := noaa.NewClient(cfg.BucketURL, cfg.FetchTimeout, cfg.FetchRetryBudget, metrics, logger)
	db, err := cache.Open(cfg.CacheDB)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-mostly handle, nothing to recover
	fetcher := cache.NewCachingFetcher(client, cache.NewStore(db, clockwork.NewRealClock()), metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var bar *progressbar.ProgressBar
	if total := len(cfg.Stations) * yearCount(c.Start, c.End); !c.Quiet && total > 0 {
		bar = newBar(total, "station years")
	}

	var (
		mu       sync.Mutex
		firstErr error
		stored   atomic.Int64
		missing  atomic.Int64
	)
	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	sem := make(chan struct{}, cfg.FetchWorkers)
	var wg sync.WaitGroup
	for _, st := range cfg.Stations {
		for year := c.Start; year <= c.End; year++ {
			wg.Add(1)
			go func(stationID string, year int) {
				defer wg.Done()

				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					setErr(ctx.Err())
					return
				}
				defer func() { <-sem }()

				_, err := fetcher.FetchStationYear(ctx, stationID, year)
				switch {
				case errors.Is(err, domain.ErrMissingYear):
					logger.Warn("no archive data for station year", "station", stationID, "year", year)
					missing.Add(1)
				case err != nil:
					setErr(fmt.Errorf("fetch station %s year %d: %w", stationID, year, err))
					return
				default:
					stored.Add(1)
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}(st.ID, year)
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	logger.Info("cache warmed",
		"stations", len(cfg.Stations),
		"stored", stored.Load(),
		"missing", missing.Load())
	return nil
}

func yearCount(start, end int) int {
	if start > end {
		return 0
	}
	return end - start + 1
}

func newBar(size int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(size,
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		// Progress renders on stderr; stdout carries only the report.
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
