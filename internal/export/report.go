package export

import (
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/climate-data-etl/internal/pipeline"
)

// Report prints a key: value block per station. Undefined means render as
// n/a so empty stations stay readable.
func Report(w io.Writer, result *pipeline.Result) {
	for i := range result.Stations {
		st := &result.Stations[i]
		s := &st.Summary

		fmt.Fprintf(w, "=== %s ===\n", st.Station.Label)
		fmt.Fprintf(w, "station id:        %s\n", st.Station.ID)
		fmt.Fprintf(w, "valid hours:       %d\n", s.TotalHours)
		fmt.Fprintf(w, "rainy hours:       %d (%s)\n", s.RainyHours, fmtPercent(s.RainyFraction))
		fmt.Fprintf(w, "mean rainy depth:  %s\n", fmtMM(s.MeanPrecipMM))
		fmt.Fprintf(w, "total precip:      %.1f mm\n", s.TotalPrecipMM)
		fmt.Fprintf(w, "rainy days:        %d (snow %d, liquid %d)\n", s.RainyDays, s.SnowDays, s.LiquidRainDays)
		fmt.Fprintf(w, "snow hours:        %d\n", s.SnowHours)
		fmt.Fprintf(w, "temp observations: %d\n", s.NObs)
		fmt.Fprintf(w, "mean hdd:          %s\n", fmtDeg(s.MeanHDDC))
		fmt.Fprintf(w, "mean cdd:          %s\n", fmtDeg(s.MeanCDDC))
		fmt.Fprintf(w, "comfort deviation: %s\n", fmtDeg(s.MeanComfortDevC))
		fmt.Fprintf(w, "sub-zero hours:    %d\n", s.SubZeroHours)
		fmt.Fprintln(w)
	}
}

func fmtPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func fmtMM(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f mm", v)
}

func fmtDeg(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f °C", v)
}
