package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/analysis"
	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/couchcryptid/climate-data-etl/internal/observability"
)

// Fetcher retrieves the raw archive payload for one station-year. A year with
// no archive object must be reported as domain.ErrMissingYear.
type Fetcher interface {
	FetchStationYear(ctx context.Context, stationID string, year int) ([]byte, error)
}

// Station identifies one observing site in a run.
type Station struct {
	ID    string
	Label string
}

// Params configure one comparison run.
type Params struct {
	Stations        []Station
	StartYear       int
	EndYear         int
	ThresholdMM     float64
	SweepThresholds []float64
	FetchWorkers    int

	// OnUnitDone, when set, is called once per completed station-year. It may
	// be called from multiple goroutines at once.
	OnUnitDone func()
}

// StationResult carries every derived product for one station.
type StationResult struct {
	Station      Station
	Summary      analysis.StationPeriodSummary
	AnnualPrecip []analysis.PrecipYear
	AnnualTemp   []analysis.TempYear
	Sweep        []analysis.SweepPoint
	Trends       []analysis.TrendPoint
}

// Result is the outcome of one run, stations in configured order.
type Result struct {
	Stations []StationResult
}

// Pipeline orchestrates the fetch-decode-summarize run.
type Pipeline struct {
	fetcher Fetcher
	params  Params
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given source and observability.
func New(f Fetcher, params Params, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher: f,
		params:  params,
		logger:  logger,
		metrics: metrics,
	}
}

// Ready reports whether at least one run has completed.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no station data processed yet")
	}
	return nil
}

// Run fetches and decodes every requested station-year, then reduces each
// station to its period, annual, sweep, and trend summaries. Station-years
// fail independently: a year missing from the archive contributes no rows,
// and a year with structural faults is dropped whole. Only transport errors
// and cancellation abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("pipeline started",
		"stations", len(p.params.Stations),
		"start_year", p.params.StartYear,
		"end_year", p.params.EndYear,
		"workers", p.params.FetchWorkers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	rowsByStation, err := p.fetchAll(ctx, yearRange(p.params.StartYear, p.params.EndYear))
	if err != nil {
		return nil, err
	}

	result := &Result{Stations: make([]StationResult, 0, len(p.params.Stations))}
	for _, st := range p.params.Stations {
		result.Stations = append(result.Stations, p.summarizeStation(st, rowsByStation[st.ID]))
	}

	p.ready.Store(true)
	p.logger.Info("pipeline finished", "stations", len(result.Stations))
	return result, nil
}

type stationYear struct {
	station Station
	year    int
}

// fetchAll processes every (station, year) unit with up to FetchWorkers
// concurrent fetches and returns decoded rows per station ID. Units are
// assembled in station then ascending year order, preserving file order
// within each year.
func (p *Pipeline) fetchAll(ctx context.Context, years []int) (map[string][]domain.Observation, error) {
	units := make([]stationYear, 0, len(p.params.Stations)*len(years))
	for _, st := range p.params.Stations {
		for _, y := range years {
			units = append(units, stationYear{station: st, year: y})
		}
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	rowsByUnit := make([][]domain.Observation, len(units))
	sem := make(chan struct{}, p.params.FetchWorkers)
	var wg sync.WaitGroup

	for i, unit := range units {
		wg.Add(1)
		go func(i int, unit stationYear) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				setErr(ctx.Err())
				return
			default:
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				setErr(ctx.Err())
				return
			}
			defer func() { <-sem }()

			rows, err := p.processStationYear(ctx, unit)
			if err != nil {
				setErr(err)
				return
			}
			rowsByUnit[i] = rows
			if p.params.OnUnitDone != nil {
				p.params.OnUnitDone()
			}
		}(i, unit)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	rowsByStation := make(map[string][]domain.Observation, len(p.params.Stations))
	for i, unit := range units {
		rowsByStation[unit.station.ID] = append(rowsByStation[unit.station.ID], rowsByUnit[i]...)
	}
	return rowsByStation, nil
}

// processStationYear fetches and decodes one unit. Missing years and
// structural faults return no rows and no error so the rest of the run
// continues.
func (p *Pipeline) processStationYear(ctx context.Context, unit stationYear) ([]domain.Observation, error) {
	start := time.Now()

	payload, err := p.fetcher.FetchStationYear(ctx, unit.station.ID, unit.year)
	if errors.Is(err, domain.ErrMissingYear) {
		p.logger.Warn("no archive data for station year",
			"station", unit.station.ID, "year", unit.year)
		p.metrics.StationYears.WithLabelValues("empty").Inc()
		return nil, nil
	}
	if err != nil {
		p.metrics.StationYears.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch station %s year %d: %w", unit.station.ID, unit.year, err)
	}

	raws, err := domain.ParseObservations(payload)
	if err != nil {
		p.skipStructural(unit, err)
		return nil, nil
	}

	rows := make([]domain.Observation, 0, len(raws))
	for _, raw := range raws {
		o, err := domain.DecodeObservation(raw)
		if err != nil {
			p.skipStructural(unit, err)
			return nil, nil
		}
		rows = append(rows, o)
	}

	p.metrics.ObservationsDecoded.Add(float64(len(rows)))
	p.metrics.StationYears.WithLabelValues("ok").Inc()
	p.metrics.StationYearDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("station year decoded",
		"station", unit.station.ID, "year", unit.year, "rows", len(rows))
	return rows, nil
}

// skipStructural records a station-year dropped for a malformed payload.
func (p *Pipeline) skipStructural(unit stationYear, err error) {
	structural := &domain.StructuralError{Station: unit.station.ID, Year: unit.year, Err: err}
	p.logger.Error("skipping station year with structural fault", "error", structural)
	p.metrics.StructuralErrors.Inc()
	p.metrics.StationYears.WithLabelValues("error").Inc()
}

// summarizeStation resolves report-type precedence over the station's full
// row set, selects the precipitation and temperature series, and derives
// every summary product.
func (p *Pipeline) summarizeStation(st Station, rows []domain.Observation) StationResult {
	eligible := domain.TemperatureTypes(domain.ReportTypesPresent(rows))

	precipRows := domain.SelectPrecipRows(rows)
	tempRows := domain.SelectTempRows(rows, eligible)

	annualPrecip := analysis.AnnualPrecipSummary(precipRows, p.params.ThresholdMM)
	annualTemp := analysis.AnnualTemperatureSummary(tempRows)

	return StationResult{
		Station:      st,
		Summary:      analysis.SummarizePeriod(st.Label, precipRows, tempRows, p.params.ThresholdMM),
		AnnualPrecip: annualPrecip,
		AnnualTemp:   annualTemp,
		Sweep:        analysis.ThresholdSensitivity(precipRows, p.params.SweepThresholds),
		Trends:       analysis.Trends(annualPrecip, annualTemp),
	}
}

// yearRange lists the inclusive years of a run. An inverted range is empty.
func yearRange(start, end int) []int {
	if start > end {
		return nil
	}
	years := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years
}
