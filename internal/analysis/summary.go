// Package analysis reduces decoded, report-type-resolved observations into
// the reported climate metrics: precipitation volumes and rainy/snow counts,
// degree-day temperature statistics, threshold sensitivity curves, and
// multi-year rolling trends. Every function is a pure derivation over its
// inputs; recomputing with the same rows and parameters gives the same
// result.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
)

// Temperature baselines in degrees Celsius. Each metric keeps its own
// reference point: one shared baseline would let hot and cold extremes
// cancel within a year and understate both signals.
const (
	HDDBaseC     = 15.5 // heating demand accrues below this
	CDDBaseC     = 18.0 // cooling demand accrues above this
	ComfortBaseC = 21.0 // comfort deviation is distance from this
)

// RainyHours summarizes precipitation engagement over a whole period at one
// threshold.
type RainyHours struct {
	Label         string
	TotalHours    int     // hours with a valid depth
	RainyHours    int     // hours with depth strictly above threshold
	RainyFraction float64 // RainyHours/TotalHours; NaN when TotalHours is 0
	MeanPrecipMM  float64 // mean depth over rainy hours only; NaN when none
	TotalPrecipMM float64 // sum of all valid depths, threshold-independent
}

// PrecipYear is one calendar year's precipitation summary.
type PrecipYear struct {
	Year            int
	TotalPrecipMM   float64
	RainyHours      int
	RainyDays       int
	SnowHours       int
	SnowDays        int
	LiquidRainHours int
	LiquidRainDays  int
}

// TempYear is one calendar year's temperature summary over valid
// observations. Means normalize by NObs, the count of valid observations,
// not by hours in the year, so stations with different reporting densities
// stay comparable.
type TempYear struct {
	Year            int
	NObs            int
	MeanHDDC        float64
	MeanCDDC        float64
	MeanComfortDevC float64
	SubZeroHours    int // hours strictly below zero; a raw count
}

// StationPeriodSummary aggregates one station over the full requested span.
// Invariants: RainyDays = SnowDays + LiquidRainDays and
// RainyHours = SnowHours + LiquidRainHours, because a snow hour and a
// liquid-rain hour are mutually exclusive and a mixed day counts only as a
// snow day.
type StationPeriodSummary struct {
	Label           string
	ThresholdMM     float64
	TotalHours      int
	RainyHours      int
	RainyFraction   float64
	MeanPrecipMM    float64
	TotalPrecipMM   float64
	RainyDays       int
	SnowHours       int
	SnowDays        int
	LiquidRainHours int
	LiquidRainDays  int
	NObs            int
	MeanHDDC        float64
	MeanCDDC        float64
	MeanComfortDevC float64
	SubZeroHours    int
	ComputedAt      time.Time
}

// precipTally accumulates hour and day counts for one group of rows.
type precipTally struct {
	totalMM     float64
	rainyMM     float64 // depth sum over rainy hours only
	validHours  int
	rainyHours  int
	snowHours   int
	liquidHours int
	rainyDays   int
	snowDays    int
	liquidDays  int
}

type dayFlags struct {
	rainy  bool
	snow   bool
	liquid bool
}

func tallyPrecip(rows []domain.Observation, thresholdMM float64) precipTally {
	var t precipTally
	days := make(map[time.Time]*dayFlags)

	for _, o := range rows {
		if o.Precip.Valid {
			t.validHours++
			t.totalMM += o.Precip.DepthMM
		}

		class := domain.ClassifyHour(o, thresholdMM)
		if class == domain.ClassNone {
			continue
		}

		y, m, d := o.Time.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		flags := days[day]
		if flags == nil {
			flags = &dayFlags{}
			days[day] = flags
		}

		t.rainyHours++
		t.rainyMM += o.Precip.DepthMM
		flags.rainy = true
		switch class {
		case domain.ClassSnow:
			t.snowHours++
			flags.snow = true
		case domain.ClassRain:
			t.liquidHours++
			flags.liquid = true
		}
	}

	for _, flags := range days {
		if flags.rainy {
			t.rainyDays++
		}
		if flags.snow {
			t.snowDays++
		}
		// A day with both phases counts only as a snow day.
		if flags.liquid && !flags.snow {
			t.liquidDays++
		}
	}
	return t
}

// tempTally accumulates degree-day sums over valid temperatures only.
type tempTally struct {
	n          int
	hddSum     float64
	cddSum     float64
	comfortSum float64
	subZero    int
}

func tallyTemp(rows []domain.Observation) tempTally {
	var t tempTally
	for _, o := range rows {
		if !o.Temp.Valid {
			continue
		}
		c := o.Temp.Celsius
		t.n++
		t.hddSum += math.Max(HDDBaseC-c, 0)
		t.cddSum += math.Max(c-CDDBaseC, 0)
		t.comfortSum += math.Abs(c - ComfortBaseC)
		if c < 0 {
			t.subZero++
		}
	}
	return t
}

// meanOver divides a sum by a count, yielding NaN for an empty group.
func meanOver(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// SummarizeRainyHours computes the whole-period rainy-hours summary for one
// station at one threshold. An empty period yields zero totals with NaN
// fraction and mean.
func SummarizeRainyHours(label string, rows []domain.Observation, thresholdMM float64) RainyHours {
	return rainyFromTally(label, tallyPrecip(rows, thresholdMM))
}

func rainyFromTally(label string, t precipTally) RainyHours {
	fraction := math.NaN()
	if t.validHours > 0 {
		fraction = float64(t.rainyHours) / float64(t.validHours)
	}
	return RainyHours{
		Label:         label,
		TotalHours:    t.validHours,
		RainyHours:    t.rainyHours,
		RainyFraction: fraction,
		MeanPrecipMM:  meanOver(t.rainyMM, t.rainyHours),
		TotalPrecipMM: t.totalMM,
	}
}

// groupByYear splits rows by the calendar year of their timestamp, returning
// the years in ascending order.
func groupByYear(rows []domain.Observation) ([]int, map[int][]domain.Observation) {
	groups := make(map[int][]domain.Observation)
	for _, o := range rows {
		y := o.Time.Year()
		groups[y] = append(groups[y], o)
	}
	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Ints(years)
	return years, groups
}

// AnnualPrecipSummary reduces precipitation-eligible rows to one PrecipYear
// per calendar year present in the data, ascending. A year whose rows all
// fall below the threshold still appears, with zero counts.
func AnnualPrecipSummary(rows []domain.Observation, thresholdMM float64) []PrecipYear {
	years, groups := groupByYear(rows)

	out := make([]PrecipYear, 0, len(years))
	for _, y := range years {
		t := tallyPrecip(groups[y], thresholdMM)
		out = append(out, PrecipYear{
			Year:            y,
			TotalPrecipMM:   t.totalMM,
			RainyHours:      t.rainyHours,
			RainyDays:       t.rainyDays,
			SnowHours:       t.snowHours,
			SnowDays:        t.snowDays,
			LiquidRainHours: t.liquidHours,
			LiquidRainDays:  t.liquidDays,
		})
	}
	return out
}

// AnnualTemperatureSummary reduces temperature-eligible rows to one TempYear
// per calendar year with at least one valid observation, ascending.
func AnnualTemperatureSummary(rows []domain.Observation) []TempYear {
	valid := make([]domain.Observation, 0, len(rows))
	for _, o := range rows {
		if o.Temp.Valid {
			valid = append(valid, o)
		}
	}
	years, groups := groupByYear(valid)

	out := make([]TempYear, 0, len(years))
	for _, y := range years {
		t := tallyTemp(groups[y])
		out = append(out, TempYear{
			Year:            y,
			NObs:            t.n,
			MeanHDDC:        meanOver(t.hddSum, t.n),
			MeanCDDC:        meanOver(t.cddSum, t.n),
			MeanComfortDevC: meanOver(t.comfortSum, t.n),
			SubZeroHours:    t.subZero,
		})
	}
	return out
}

// SummarizePeriod aggregates one station's resolved rows over the full span
// into a StationPeriodSummary, stamped with the package clock. Empty inputs
// produce zero counts, never an error.
func SummarizePeriod(label string, precipRows, tempRows []domain.Observation, thresholdMM float64) StationPeriodSummary {
	pt := tallyPrecip(precipRows, thresholdMM)
	rainy := rainyFromTally(label, pt)
	tt := tallyTemp(tempRows)

	return StationPeriodSummary{
		Label:           label,
		ThresholdMM:     thresholdMM,
		TotalHours:      rainy.TotalHours,
		RainyHours:      rainy.RainyHours,
		RainyFraction:   rainy.RainyFraction,
		MeanPrecipMM:    rainy.MeanPrecipMM,
		TotalPrecipMM:   rainy.TotalPrecipMM,
		RainyDays:       pt.rainyDays,
		SnowHours:       pt.snowHours,
		SnowDays:        pt.snowDays,
		LiquidRainHours: pt.liquidHours,
		LiquidRainDays:  pt.liquidDays,
		NObs:            tt.n,
		MeanHDDC:        meanOver(tt.hddSum, tt.n),
		MeanCDDC:        meanOver(tt.cddSum, tt.n),
		MeanComfortDevC: meanOver(tt.comfortSum, tt.n),
		SubZeroHours:    tt.subZero,
		ComputedAt:      clock.Now(),
	}
}
