package analysis

import "math"

// Rolling window parameters for the multi-year trend series.
const (
	TrendWindowYears = 5
	TrendMinPeriods  = 3
)

// TrendPoint is one smoothed metric value for one year.
type TrendPoint struct {
	Metric      string
	Year        int
	RollingMean float64
	RollingStd  float64
}

// Rolling computes a centred moving mean and sample standard deviation over
// values. The window around each position is clipped at both edges of the
// series; positions covering fewer than minPeriods values yield NaN for
// both outputs, as does the standard deviation of a single value.
func Rolling(values []float64, window, minPeriods int) (means, stds []float64) {
	n := len(values)
	means = make([]float64, n)
	stds = make([]float64, n)

	half := window / 2
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}
		count := hi - lo + 1
		if count < minPeriods {
			means[i] = math.NaN()
			stds[i] = math.NaN()
			continue
		}

		var sum float64
		for _, v := range values[lo : hi+1] {
			sum += v
		}
		mean := sum / float64(count)

		var sq float64
		for _, v := range values[lo : hi+1] {
			d := v - mean
			sq += d * d
		}
		means[i] = mean
		if count > 1 {
			stds[i] = math.Sqrt(sq / float64(count-1))
		} else {
			stds[i] = math.NaN()
		}
	}
	return means, stds
}

// Trends derives rolling series for the trended annual metrics. Each
// precipitation metric rolls over the precipitation years and each
// temperature metric over the temperature years, so a year missing from one
// family does not distort the other. Points are grouped by metric, years
// ascending within each, matching the order of the input summaries.
func Trends(precip []PrecipYear, temps []TempYear) []TrendPoint {
	var out []TrendPoint

	precipMetrics := []struct {
		name  string
		value func(PrecipYear) float64
	}{
		{"total_precip_mm", func(y PrecipYear) float64 { return y.TotalPrecipMM }},
		{"rainy_hours", func(y PrecipYear) float64 { return float64(y.RainyHours) }},
		{"rainy_days", func(y PrecipYear) float64 { return float64(y.RainyDays) }},
		{"snow_days", func(y PrecipYear) float64 { return float64(y.SnowDays) }},
	}
	for _, m := range precipMetrics {
		values := make([]float64, len(precip))
		for i, y := range precip {
			values[i] = m.value(y)
		}
		means, stds := Rolling(values, TrendWindowYears, TrendMinPeriods)
		for i, y := range precip {
			out = append(out, TrendPoint{
				Metric:      m.name,
				Year:        y.Year,
				RollingMean: means[i],
				RollingStd:  stds[i],
			})
		}
	}

	tempMetrics := []struct {
		name  string
		value func(TempYear) float64
	}{
		{"sub_zero_hours", func(y TempYear) float64 { return float64(y.SubZeroHours) }},
		{"mean_cdd_c", func(y TempYear) float64 { return y.MeanCDDC }},
	}
	for _, m := range tempMetrics {
		values := make([]float64, len(temps))
		for i, y := range temps {
			values[i] = m.value(y)
		}
		means, stds := Rolling(values, TrendWindowYears, TrendMinPeriods)
		for i, y := range temps {
			out = append(out, TrendPoint{
				Metric:      m.name,
				Year:        y.Year,
				RollingMean: means[i],
				RollingStd:  stds[i],
			})
		}
	}

	return out
}
