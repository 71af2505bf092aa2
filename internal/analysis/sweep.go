package analysis

import "github.com/couchcryptid/climate-data-etl/internal/domain"

// SweepPoint is the mean annual rainy engagement at one threshold.
type SweepPoint struct {
	ThresholdMM    float64
	MeanRainyHours float64
	MeanRainyDays  float64
}

// ThresholdSensitivity reclassifies the same decoded rows at each threshold
// and averages annual rainy hours and rainy days over the years present.
// Raising the threshold can only reclassify hours from rainy to none, so
// both means are non-increasing across an ascending threshold list. With no
// rows there are no year groups and the means are NaN, one point per
// threshold either way.
func ThresholdSensitivity(rows []domain.Observation, thresholds []float64) []SweepPoint {
	out := make([]SweepPoint, 0, len(thresholds))
	for _, th := range thresholds {
		years := AnnualPrecipSummary(rows, th)

		var hourSum, daySum float64
		for _, y := range years {
			hourSum += float64(y.RainyHours)
			daySum += float64(y.RainyDays)
		}
		out = append(out, SweepPoint{
			ThresholdMM:    th,
			MeanRainyHours: meanOver(hourSum, len(years)),
			MeanRainyDays:  meanOver(daySum, len(years)),
		})
	}
	return out
}
