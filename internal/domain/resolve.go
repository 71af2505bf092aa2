package domain

import (
	"sort"
	"time"
)

// ReportTypesPresent collects the distinct report types a station filed
// across the given rows. Feed it the station's full fetched history: the
// temperature precedence is station-wide, not per year.
func ReportTypesPresent(rows []Observation) map[string]bool {
	present := make(map[string]bool)
	for _, o := range rows {
		present[o.ReportType] = true
	}
	return present
}

// TemperatureTypes resolves the station-wide temperature precedence: the
// first accepted report type present, in precedence order. A station that
// files any FM-12 reads temperature from FM-12 exclusively; one that never
// does reads from FM-15. A station filing neither has no temperature rows.
// Pure function of the set of types present; compute once per station.
func TemperatureTypes(present map[string]bool) []string {
	for _, rt := range HourlyReportTypes {
		if present[rt] {
			return []string{rt}
		}
	}
	return nil
}

// SelectPrecipRows filters a station's observations to the precipitation-
// eligible subset: accepted hourly report types, one row per timestamp with
// the first occurrence in file order winning, sorted ascending by time.
func SelectPrecipRows(rows []Observation) []Observation {
	return selectRows(rows, HourlyReportTypes)
}

// SelectTempRows filters to the temperature-eligible subset under the
// precedence decided by [TemperatureTypes], with the same dedup-then-sort
// treatment as precipitation.
func SelectTempRows(rows []Observation, eligible []string) []Observation {
	return selectRows(rows, eligible)
}

// selectRows keeps rows whose report type is eligible, drops duplicate
// timestamps keeping the first in input order, and sorts by time.
func selectRows(rows []Observation, eligible []string) []Observation {
	accept := make(map[string]bool, len(eligible))
	for _, rt := range eligible {
		accept[rt] = true
	}

	out := make([]Observation, 0, len(rows))
	seen := make(map[time.Time]bool, len(rows))
	for _, o := range rows {
		if !accept[o.ReportType] || seen[o.Time] {
			continue
		}
		seen[o.Time] = true
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}
