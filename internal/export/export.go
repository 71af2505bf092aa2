// Package export renders run results as CSV tables, a combined JSON
// document, and a stdout report.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/analysis"
	"github.com/couchcryptid/climate-data-etl/internal/pipeline"
	"github.com/gocarina/gocsv"
	"github.com/jonboulle/clockwork"
)

// AnnualPrecipRow is one line of annual_summary.csv.
type AnnualPrecipRow struct {
	Label           string  `csv:"label" json:"-"`
	Year            int     `csv:"year" json:"year"`
	TotalPrecipMM   float64 `csv:"total_precip_mm" json:"total_precip_mm"`
	RainyHours      int     `csv:"rainy_hours" json:"rainy_hours"`
	RainyDays       int     `csv:"rainy_days" json:"rainy_days"`
	SnowHours       int     `csv:"snow_hours" json:"snow_hours"`
	SnowDays        int     `csv:"snow_days" json:"snow_days"`
	LiquidRainHours int     `csv:"liquid_rain_hours" json:"liquid_rain_hours"`
	LiquidRainDays  int     `csv:"liquid_rain_days" json:"liquid_rain_days"`
}

// AnnualTempRow is one line of annual_temperature_summary.csv.
type AnnualTempRow struct {
	Label           string  `csv:"label" json:"-"`
	Year            int     `csv:"year" json:"year"`
	NObs            int     `csv:"n_obs" json:"n_obs"`
	MeanHDDC        float64 `csv:"mean_hdd_c" json:"mean_hdd_c"`
	MeanCDDC        float64 `csv:"mean_cdd_c" json:"mean_cdd_c"`
	MeanComfortDevC float64 `csv:"mean_comfort_dev_c" json:"mean_comfort_dev_c"`
	SubZeroHours    int     `csv:"sub_zero_hours" json:"sub_zero_hours"`
}

// SweepRow is one line of threshold_sensitivity.csv. Means are nil when the
// station has no years, encoding as an empty CSV field and JSON null.
type SweepRow struct {
	Label          string   `csv:"label" json:"-"`
	ThresholdMM    float64  `csv:"threshold_mm" json:"threshold_mm"`
	MeanRainyHours *float64 `csv:"mean_rainy_hours" json:"mean_rainy_hours"`
	MeanRainyDays  *float64 `csv:"mean_rainy_days" json:"mean_rainy_days"`
}

// TrendRow is one line of trends.csv. Rolling values are nil where the
// window holds fewer observations than the minimum.
type TrendRow struct {
	Label       string   `csv:"label" json:"-"`
	Metric      string   `csv:"metric" json:"metric"`
	Year        int      `csv:"year" json:"year"`
	RollingMean *float64 `csv:"rolling_mean" json:"rolling_mean"`
	RollingStd  *float64 `csv:"rolling_std" json:"rolling_std"`
}

// PeriodSummary mirrors analysis.StationPeriodSummary with pointer fields
// for the means that are undefined on empty series.
type PeriodSummary struct {
	ThresholdMM     float64  `json:"threshold_mm"`
	TotalHours      int      `json:"total_hours"`
	RainyHours      int      `json:"rainy_hours"`
	RainyFraction   *float64 `json:"rainy_fraction"`
	MeanPrecipMM    *float64 `json:"mean_precip_mm"`
	TotalPrecipMM   float64  `json:"total_precip_mm"`
	RainyDays       int      `json:"rainy_days"`
	SnowHours       int      `json:"snow_hours"`
	SnowDays        int      `json:"snow_days"`
	LiquidRainHours int      `json:"liquid_rain_hours"`
	LiquidRainDays  int      `json:"liquid_rain_days"`
	NObs            int      `json:"n_obs"`
	MeanHDDC        *float64 `json:"mean_hdd_c"`
	MeanCDDC        *float64 `json:"mean_cdd_c"`
	MeanComfortDevC *float64 `json:"mean_comfort_dev_c"`
	SubZeroHours    int      `json:"sub_zero_hours"`
}

// StationDocument is one station's section of summary.json.
type StationDocument struct {
	StationID    string            `json:"station_id"`
	Label        string            `json:"label"`
	Period       PeriodSummary     `json:"period"`
	AnnualPrecip []AnnualPrecipRow `json:"annual_precipitation"`
	AnnualTemp   []AnnualTempRow   `json:"annual_temperature"`
	Sweep        []SweepRow        `json:"threshold_sensitivity"`
	Trends       []TrendRow        `json:"trends"`
}

// RunInfo describes the run that produced a result.
type RunInfo struct {
	StartYear   int
	EndYear     int
	ThresholdMM float64
}

// Document is the combined summary.json payload.
type Document struct {
	GeneratedAt time.Time         `json:"generated_at"`
	StartYear   int               `json:"start_year"`
	EndYear     int               `json:"end_year"`
	ThresholdMM float64           `json:"threshold_mm"`
	Stations    []StationDocument `json:"stations"`
}

// Writer renders one run's results into an output directory.
type Writer struct {
	outDir string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Writer rooted at outDir.
func NewWriter(outDir string, clock clockwork.Clock, logger *slog.Logger) *Writer {
	return &Writer{outDir: outDir, clock: clock, logger: logger}
}

// WriteAll writes the four CSV tables and summary.json for a run.
func (w *Writer) WriteAll(info RunInfo, result *pipeline.Result) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := w.writeCSV("annual_summary.csv", annualPrecipRows(result)); err != nil {
		return err
	}
	if err := w.writeCSV("annual_temperature_summary.csv", annualTempRows(result)); err != nil {
		return err
	}
	if err := w.writeCSV("threshold_sensitivity.csv", sweepRows(result)); err != nil {
		return err
	}
	if err := w.writeCSV("trends.csv", trendRows(result)); err != nil {
		return err
	}
	return w.writeJSON("summary.json", w.BuildDocument(info, result))
}

// BuildDocument assembles the summary.json payload for a run.
func (w *Writer) BuildDocument(info RunInfo, result *pipeline.Result) Document {
	doc := Document{
		GeneratedAt: w.clock.Now().UTC(),
		StartYear:   info.StartYear,
		EndYear:     info.EndYear,
		ThresholdMM: info.ThresholdMM,
		Stations:    make([]StationDocument, 0, len(result.Stations)),
	}
	for i := range result.Stations {
		st := &result.Stations[i]
		doc.Stations = append(doc.Stations, StationDocument{
			StationID:    st.Station.ID,
			Label:        st.Station.Label,
			Period:       buildPeriod(st.Summary),
			AnnualPrecip: stationPrecipRows(st),
			AnnualTemp:   stationTempRows(st),
			Sweep:        stationSweepRows(st),
			Trends:       stationTrendRows(st),
		})
	}
	return doc
}

func buildPeriod(s analysis.StationPeriodSummary) PeriodSummary {
	return PeriodSummary{
		ThresholdMM:     s.ThresholdMM,
		TotalHours:      s.TotalHours,
		RainyHours:      s.RainyHours,
		RainyFraction:   optFloat(s.RainyFraction),
		MeanPrecipMM:    optFloat(s.MeanPrecipMM),
		TotalPrecipMM:   s.TotalPrecipMM,
		RainyDays:       s.RainyDays,
		SnowHours:       s.SnowHours,
		SnowDays:        s.SnowDays,
		LiquidRainHours: s.LiquidRainHours,
		LiquidRainDays:  s.LiquidRainDays,
		NObs:            s.NObs,
		MeanHDDC:        optFloat(s.MeanHDDC),
		MeanCDDC:        optFloat(s.MeanCDDC),
		MeanComfortDevC: optFloat(s.MeanComfortDevC),
		SubZeroHours:    s.SubZeroHours,
	}
}

func stationPrecipRows(st *pipeline.StationResult) []AnnualPrecipRow {
	rows := make([]AnnualPrecipRow, 0, len(st.AnnualPrecip))
	for _, y := range st.AnnualPrecip {
		rows = append(rows, AnnualPrecipRow{
			Label:           st.Station.Label,
			Year:            y.Year,
			TotalPrecipMM:   y.TotalPrecipMM,
			RainyHours:      y.RainyHours,
			RainyDays:       y.RainyDays,
			SnowHours:       y.SnowHours,
			SnowDays:        y.SnowDays,
			LiquidRainHours: y.LiquidRainHours,
			LiquidRainDays:  y.LiquidRainDays,
		})
	}
	return rows
}

func stationTempRows(st *pipeline.StationResult) []AnnualTempRow {
	rows := make([]AnnualTempRow, 0, len(st.AnnualTemp))
	for _, y := range st.AnnualTemp {
		rows = append(rows, AnnualTempRow{
			Label:           st.Station.Label,
			Year:            y.Year,
			NObs:            y.NObs,
			MeanHDDC:        y.MeanHDDC,
			MeanCDDC:        y.MeanCDDC,
			MeanComfortDevC: y.MeanComfortDevC,
			SubZeroHours:    y.SubZeroHours,
		})
	}
	return rows
}

func stationSweepRows(st *pipeline.StationResult) []SweepRow {
	rows := make([]SweepRow, 0, len(st.Sweep))
	for _, p := range st.Sweep {
		rows = append(rows, SweepRow{
			Label:          st.Station.Label,
			ThresholdMM:    p.ThresholdMM,
			MeanRainyHours: optFloat(p.MeanRainyHours),
			MeanRainyDays:  optFloat(p.MeanRainyDays),
		})
	}
	return rows
}

func stationTrendRows(st *pipeline.StationResult) []TrendRow {
	rows := make([]TrendRow, 0, len(st.Trends))
	for _, p := range st.Trends {
		rows = append(rows, TrendRow{
			Label:       st.Station.Label,
			Metric:      p.Metric,
			Year:        p.Year,
			RollingMean: optFloat(p.RollingMean),
			RollingStd:  optFloat(p.RollingStd),
		})
	}
	return rows
}

func annualPrecipRows(result *pipeline.Result) []AnnualPrecipRow {
	var rows []AnnualPrecipRow //nolint:prealloc // size depends on years per station
	for i := range result.Stations {
		rows = append(rows, stationPrecipRows(&result.Stations[i])...)
	}
	return rows
}

func annualTempRows(result *pipeline.Result) []AnnualTempRow {
	var rows []AnnualTempRow //nolint:prealloc // size depends on years per station
	for i := range result.Stations {
		rows = append(rows, stationTempRows(&result.Stations[i])...)
	}
	return rows
}

func sweepRows(result *pipeline.Result) []SweepRow {
	var rows []SweepRow //nolint:prealloc // size depends on thresholds per station
	for i := range result.Stations {
		rows = append(rows, stationSweepRows(&result.Stations[i])...)
	}
	return rows
}

func trendRows(result *pipeline.Result) []TrendRow {
	var rows []TrendRow //nolint:prealloc // size depends on years per station
	for i := range result.Stations {
		rows = append(rows, stationTrendRows(&result.Stations[i])...)
	}
	return rows
}

func (w *Writer) writeCSV(name string, rows any) error {
	path := filepath.Join(w.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close() //nolint:errcheck // the marshal error is the one to report
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	w.logger.Info("wrote output", "path", path)
	return nil
}

func (w *Writer) writeJSON(name string, v any) error {
	path := filepath.Join(w.outDir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.logger.Info("wrote output", "path", path)
	return nil
}

// optFloat maps NaN to nil so undefined values encode as JSON null and
// empty CSV fields.
func optFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
