package export_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/analysis"
	"github.com/couchcryptid/climate-data-etl/internal/export"
	"github.com/couchcryptid/climate-data-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResult() *pipeline.Result {
	return &pipeline.Result{Stations: []pipeline.StationResult{{
		Station: pipeline.Station{ID: "037720-99999", Label: "London (Heathrow)"},
		Summary: analysis.StationPeriodSummary{
			Label:           "London (Heathrow)",
			ThresholdMM:     0.254,
			TotalHours:      3,
			RainyHours:      2,
			RainyFraction:   2.0 / 3.0,
			MeanPrecipMM:    4.5,
			TotalPrecipMM:   9.0,
			RainyDays:       1,
			SnowHours:       1,
			SnowDays:        1,
			LiquidRainHours: 1,
			NObs:            2,
			MeanHDDC:        2.25,
			MeanCDDC:        0,
			MeanComfortDevC: 7.5,
		},
		AnnualPrecip: []analysis.PrecipYear{{
			Year: 2023, TotalPrecipMM: 9.0, RainyHours: 2, RainyDays: 1,
			SnowHours: 1, SnowDays: 1, LiquidRainHours: 1,
		}},
		AnnualTemp: []analysis.TempYear{{
			Year: 2023, NObs: 2, MeanHDDC: 2.25, MeanComfortDevC: 7.5,
		}},
		Sweep: []analysis.SweepPoint{{
			ThresholdMM: 0.254, MeanRainyHours: 2, MeanRainyDays: 1,
		}},
		Trends: []analysis.TrendPoint{{
			Metric: "total_precip_mm", Year: 2023,
			RollingMean: math.NaN(), RollingStd: math.NaN(),
		}},
	}}}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	w := export.NewWriter(dir, clock, testLogger())

	info := export.RunInfo{StartYear: 2023, EndYear: 2023, ThresholdMM: 0.254}
	require.NoError(t, w.WriteAll(info, testResult()))

	precip := readLines(t, filepath.Join(dir, "annual_summary.csv"))
	require.Len(t, precip, 2)
	assert.Equal(t,
		"label,year,total_precip_mm,rainy_hours,rainy_days,snow_hours,snow_days,liquid_rain_hours,liquid_rain_days",
		precip[0])
	assert.Equal(t, "London (Heathrow),2023,9,2,1,1,1,1,0", precip[1])

	temp := readLines(t, filepath.Join(dir, "annual_temperature_summary.csv"))
	require.Len(t, temp, 2)
	assert.Equal(t,
		"label,year,n_obs,mean_hdd_c,mean_cdd_c,mean_comfort_dev_c,sub_zero_hours",
		temp[0])
	assert.Equal(t, "London (Heathrow),2023,2,2.25,0,7.5,0", temp[1])

	sweep := readLines(t, filepath.Join(dir, "threshold_sensitivity.csv"))
	require.Len(t, sweep, 2)
	assert.Equal(t, "label,threshold_mm,mean_rainy_hours,mean_rainy_days", sweep[0])
	assert.Equal(t, "London (Heathrow),0.254,2,1", sweep[1])

	// Rolling values below the minimum window encode as empty fields.
	trends := readLines(t, filepath.Join(dir, "trends.csv"))
	require.Len(t, trends, 2)
	assert.Equal(t, "label,metric,year,rolling_mean,rolling_std", trends[0])
	assert.Equal(t, "London (Heathrow),total_precip_mm,2023,,", trends[1])
}

func TestWriter_WriteAll_JSONDocument(t *testing.T) {
	dir := t.TempDir()
	generated := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	w := export.NewWriter(dir, clockwork.NewFakeClockAt(generated), testLogger())

	info := export.RunInfo{StartYear: 2023, EndYear: 2023, ThresholdMM: 0.254}
	require.NoError(t, w.WriteAll(info, testResult()))

	raw, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"rolling_mean": null`)

	var doc export.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.True(t, doc.GeneratedAt.Equal(generated))
	assert.Equal(t, 2023, doc.StartYear)
	require.Len(t, doc.Stations, 1)

	st := doc.Stations[0]
	assert.Equal(t, "037720-99999", st.StationID)
	assert.Equal(t, "London (Heathrow)", st.Label)
	require.NotNil(t, st.Period.RainyFraction)
	assert.InDelta(t, 2.0/3.0, *st.Period.RainyFraction, 1e-12)
	require.NotNil(t, st.Period.MeanCDDC)
	assert.InDelta(t, 0.0, *st.Period.MeanCDDC, 1e-12)
	require.Len(t, st.AnnualPrecip, 1)
	assert.Equal(t, 2023, st.AnnualPrecip[0].Year)
	require.Len(t, st.Trends, 1)
	assert.Nil(t, st.Trends[0].RollingMean)
}

func TestWriter_BuildDocument_UndefinedMeansAreNil(t *testing.T) {
	w := export.NewWriter(t.TempDir(), clockwork.NewFakeClock(), testLogger())

	empty := &pipeline.Result{Stations: []pipeline.StationResult{{
		Station: pipeline.Station{ID: "037720-99999", Label: "London (Heathrow)"},
		Summary: analysis.StationPeriodSummary{
			Label:           "London (Heathrow)",
			RainyFraction:   math.NaN(),
			MeanPrecipMM:    math.NaN(),
			MeanHDDC:        math.NaN(),
			MeanCDDC:        math.NaN(),
			MeanComfortDevC: math.NaN(),
		},
	}}}

	doc := w.BuildDocument(export.RunInfo{}, empty)
	require.Len(t, doc.Stations, 1)
	p := doc.Stations[0].Period
	assert.Nil(t, p.RainyFraction)
	assert.Nil(t, p.MeanPrecipMM)
	assert.Nil(t, p.MeanHDDC)
	assert.Nil(t, p.MeanCDDC)
	assert.Nil(t, p.MeanComfortDevC)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	export.Report(&buf, testResult())

	out := buf.String()
	assert.Contains(t, out, "=== London (Heathrow) ===")
	assert.Contains(t, out, "station id:        037720-99999")
	assert.Contains(t, out, "rainy hours:       2 (66.7%)")
	assert.Contains(t, out, "mean rainy depth:  4.50 mm")
	assert.Contains(t, out, "total precip:      9.0 mm")
	assert.Contains(t, out, "rainy days:        1 (snow 1, liquid 0)")
	assert.Contains(t, out, "mean hdd:          2.25 °C")
}

func TestReport_EmptyStationShowsNA(t *testing.T) {
	empty := &pipeline.Result{Stations: []pipeline.StationResult{{
		Station: pipeline.Station{ID: "725053-94728", Label: "New York City (Central Park)"},
		Summary: analysis.StationPeriodSummary{
			Label:           "New York City (Central Park)",
			RainyFraction:   math.NaN(),
			MeanPrecipMM:    math.NaN(),
			MeanHDDC:        math.NaN(),
			MeanCDDC:        math.NaN(),
			MeanComfortDevC: math.NaN(),
		},
	}}}

	var buf bytes.Buffer
	export.Report(&buf, empty)

	out := buf.String()
	assert.Contains(t, out, "=== New York City (Central Park) ===")
	assert.Contains(t, out, "rainy hours:       0 (n/a)")
	assert.Contains(t, out, "mean rainy depth:  n/a")
}
