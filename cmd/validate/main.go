// Command validate performs integrity checks over the output directory of a
// climate run: the annual CSV tables, the threshold sweep, the trend table,
// and summary.json. It verifies table shape, the day and hour identities,
// threshold monotonicity, and cross-file consistency.
//
// Usage:
//
//	go run ./cmd/validate -dir out
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-data-etl/internal/export"
)

const (
	fileAnnualPrecip = "annual_summary.csv"
	fileAnnualTemp   = "annual_temperature_summary.csv"
	fileSweep        = "threshold_sensitivity.csv"
	fileTrends       = "trends.csv"
	fileSummary      = "summary.json"
)

var expectedHeaders = map[string][]string{
	fileAnnualPrecip: {"label", "year", "total_precip_mm", "rainy_hours", "rainy_days",
		"snow_hours", "snow_days", "liquid_rain_hours", "liquid_rain_days"},
	fileAnnualTemp: {"label", "year", "n_obs", "mean_hdd_c", "mean_cdd_c",
		"mean_comfort_dev_c", "sub_zero_hours"},
	fileSweep:  {"label", "threshold_mm", "mean_rainy_hours", "mean_rainy_days"},
	fileTrends: {"label", "metric", "year", "rolling_mean", "rolling_std"},
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "out", "climate run output directory")
	flag.Parse()

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	fmt.Println("=== Climate Output Integrity Validation ===")
	fmt.Println()

	tables := make(map[string]*table, len(expectedHeaders))
	for name := range expectedHeaders {
		tbl, err := loadCSV(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", name, err)
			return 1
		}
		tables[name] = tbl
	}

	doc, err := loadJSON[export.Document](filepath.Join(dir, fileSummary))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", fileSummary, err)
		return 1
	}

	phases := []*phase{
		validateTableShape(tables),
		validateDayHourIdentities(tables[fileAnnualPrecip]),
		validateThresholdMonotonicity(tables[fileSweep]),
		validateCrossConsistency(&doc, tables),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d annual, %d temperature, %d sweep, %d trend; %d stations in %s\n",
		len(tables[fileAnnualPrecip].rows), len(tables[fileAnnualTemp].rows),
		len(tables[fileSweep].rows), len(tables[fileTrends].rows),
		len(doc.Stations), fileSummary)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

type table struct {
	header []string
	rows   []csvRow
}

// loadCSV reads a whole table. A header-only file is valid: an empty year
// range legitimately produces empty tables.
func loadCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only handle

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("missing header row in %s", path)
	}

	tbl := &table{header: all[0]}
	for i, row := range all[1:] {
		fields := make(map[string]string, len(tbl.header))
		for j, h := range tbl.header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		tbl.rows = append(tbl.rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return tbl, nil
}

func loadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}

// ── Phase 1: Table Shape ──
// Headers match the exporter's column order and years ascend per station.

func validateTableShape(tables map[string]*table) *phase {
	p := &phase{name: "Phase 1: Table Shape"}

	for name, want := range expectedHeaders {
		if got := tables[name].header; !slices.Equal(got, want) {
			p.errorf("%s: header mismatch: want %v, got %v", name, want, got)
		}
	}

	checkYearsAscend(p, tables[fileAnnualPrecip], fileAnnualPrecip)
	checkYearsAscend(p, tables[fileAnnualTemp], fileAnnualTemp)
	return p
}

func checkYearsAscend(p *phase, tbl *table, name string) {
	lastYear := map[string]int{}
	for _, row := range tbl.rows {
		label := row.fields["label"]
		year, ok := intField(p, name, row, "year")
		if !ok {
			continue
		}
		if prev, seen := lastYear[label]; seen && year <= prev {
			p.errorf("%s line %d: %s: year %d not ascending after %d", name, row.lineNum, label, year, prev)
		}
		lastYear[label] = year
	}
}

// ── Phase 2: Day/Hour Identities ──
// Snow and liquid rain partition both rainy hours and rainy days, and each
// counted day implies at least one counted hour.

func validateDayHourIdentities(tbl *table) *phase {
	p := &phase{name: "Phase 2: Day/Hour Identities"}

	for _, row := range tbl.rows {
		counts := map[string]int{}
		ok := true
		for _, col := range []string{"rainy_hours", "rainy_days", "snow_hours",
			"snow_days", "liquid_rain_hours", "liquid_rain_days"} {
			v, parsed := intField(p, fileAnnualPrecip, row, col)
			if !parsed {
				ok = false
				continue
			}
			if v < 0 {
				p.errorf("%s line %d: %s is negative (%d)", fileAnnualPrecip, row.lineNum, col, v)
				ok = false
			}
			counts[col] = v
		}
		if !ok {
			continue
		}

		if counts["rainy_days"] != counts["snow_days"]+counts["liquid_rain_days"] {
			p.errorf("%s line %d: rainy_days %d != snow_days %d + liquid_rain_days %d",
				fileAnnualPrecip, row.lineNum, counts["rainy_days"], counts["snow_days"], counts["liquid_rain_days"])
		}
		if counts["rainy_hours"] != counts["snow_hours"]+counts["liquid_rain_hours"] {
			p.errorf("%s line %d: rainy_hours %d != snow_hours %d + liquid_rain_hours %d",
				fileAnnualPrecip, row.lineNum, counts["rainy_hours"], counts["snow_hours"], counts["liquid_rain_hours"])
		}
		for _, pair := range [][2]string{
			{"rainy_hours", "rainy_days"},
			{"snow_hours", "snow_days"},
			{"liquid_rain_hours", "liquid_rain_days"},
		} {
			if counts[pair[0]] < counts[pair[1]] {
				p.errorf("%s line %d: %s %d < %s %d",
					fileAnnualPrecip, row.lineNum, pair[0], counts[pair[0]], pair[1], counts[pair[1]])
			}
		}

		if total, parsed := floatField(p, fileAnnualPrecip, row, "total_precip_mm"); parsed && total < 0 {
			p.errorf("%s line %d: total_precip_mm is negative (%g)", fileAnnualPrecip, row.lineNum, total)
		}
	}
	return p
}

// ── Phase 3: Threshold Monotonicity ──
// Raising the rainy threshold can only shrink mean rainy hours and days.

func validateThresholdMonotonicity(tbl *table) *phase {
	p := &phase{name: "Phase 3: Threshold Monotonicity"}

	type point struct {
		threshold   float64
		hours, days float64
		hasHours    bool
		hasDays     bool
	}
	byLabel := map[string][]point{}
	for _, row := range tbl.rows {
		threshold, ok := floatField(p, fileSweep, row, "threshold_mm")
		if !ok {
			continue
		}
		pt := point{threshold: threshold}
		pt.hours, pt.hasHours = optionalFloat(row, "mean_rainy_hours")
		pt.days, pt.hasDays = optionalFloat(row, "mean_rainy_days")
		byLabel[row.fields["label"]] = append(byLabel[row.fields["label"]], pt)
	}

	for label, points := range byLabel {
		slices.SortStableFunc(points, func(a, b point) int {
			switch {
			case a.threshold < b.threshold:
				return -1
			case a.threshold > b.threshold:
				return 1
			default:
				return 0
			}
		})
		for i := 1; i < len(points); i++ {
			prev, cur := points[i-1], points[i]
			if prev.hasHours && cur.hasHours && cur.hours > prev.hours+1e-9 {
				p.errorf("%s: %s: mean_rainy_hours rises from %g to %g at threshold %g",
					fileSweep, label, prev.hours, cur.hours, cur.threshold)
			}
			if prev.hasDays && cur.hasDays && cur.days > prev.days+1e-9 {
				p.errorf("%s: %s: mean_rainy_days rises from %g to %g at threshold %g",
					fileSweep, label, prev.days, cur.days, cur.threshold)
			}
		}
	}
	return p
}

// ── Phase 4: Cross-file Consistency ──
// summary.json and the CSV tables describe the same run.

func validateCrossConsistency(doc *export.Document, tables map[string]*table) *phase {
	p := &phase{name: "Phase 4: Cross-file Consistency"}

	precipRows := rowsByLabel(tables[fileAnnualPrecip])
	trendRows := rowsByLabel(tables[fileTrends])

	csvLabels := make(map[string]bool, len(precipRows))
	for label := range precipRows {
		csvLabels[label] = true
	}

	for i := range doc.Stations {
		st := &doc.Stations[i]
		rows := precipRows[st.Label]
		delete(csvLabels, st.Label)

		if len(rows) != len(st.AnnualPrecip) {
			p.errorf("%s: %s: %d annual rows in CSV, %d in JSON",
				st.Label, fileAnnualPrecip, len(rows), len(st.AnnualPrecip))
		}

		var csvTotal float64
		var csvRainyHours, csvRainyDays, csvSnowDays int
		for _, row := range rows {
			if v, ok := floatField(p, fileAnnualPrecip, row, "total_precip_mm"); ok {
				csvTotal += v
			}
			if v, ok := intField(p, fileAnnualPrecip, row, "rainy_hours"); ok {
				csvRainyHours += v
			}
			if v, ok := intField(p, fileAnnualPrecip, row, "rainy_days"); ok {
				csvRainyDays += v
			}
			if v, ok := intField(p, fileAnnualPrecip, row, "snow_days"); ok {
				csvSnowDays += v
			}
		}

		if !floatEq(csvTotal, st.Period.TotalPrecipMM) {
			p.errorf("%s: total_precip_mm: CSV years sum to %g, JSON period has %g",
				st.Label, csvTotal, st.Period.TotalPrecipMM)
		}
		if csvRainyHours != st.Period.RainyHours {
			p.errorf("%s: rainy_hours: CSV years sum to %d, JSON period has %d",
				st.Label, csvRainyHours, st.Period.RainyHours)
		}
		if csvRainyDays != st.Period.RainyDays {
			p.errorf("%s: rainy_days: CSV years sum to %d, JSON period has %d",
				st.Label, csvRainyDays, st.Period.RainyDays)
		}
		if csvSnowDays != st.Period.SnowDays {
			p.errorf("%s: snow_days: CSV years sum to %d, JSON period has %d",
				st.Label, csvSnowDays, st.Period.SnowDays)
		}

		var precipTrendRows int
		for _, row := range trendRows[st.Label] {
			if row.fields["metric"] == "total_precip_mm" {
				precipTrendRows++
			}
		}
		if precipTrendRows != len(rows) {
			p.errorf("%s: %s: %d total_precip_mm trend rows for %d annual rows",
				st.Label, fileTrends, precipTrendRows, len(rows))
		}
	}

	for label := range csvLabels {
		p.errorf("%s: label %q missing from %s", fileAnnualPrecip, label, fileSummary)
	}
	return p
}

// ── Helpers ──

func rowsByLabel(tbl *table) map[string][]csvRow {
	out := map[string][]csvRow{}
	for _, row := range tbl.rows {
		out[row.fields["label"]] = append(out[row.fields["label"]], row)
	}
	return out
}

func intField(p *phase, file string, row csvRow, col string) (int, bool) {
	v, err := strconv.Atoi(row.fields[col])
	if err != nil {
		p.errorf("%s line %d: %s %q is not an integer", file, row.lineNum, col, row.fields[col])
		return 0, false
	}
	return v, true
}

func floatField(p *phase, file string, row csvRow, col string) (float64, bool) {
	v, err := strconv.ParseFloat(row.fields[col], 64)
	if err != nil {
		p.errorf("%s line %d: %s %q is not a number", file, row.lineNum, col, row.fields[col])
		return 0, false
	}
	return v, true
}

// optionalFloat parses a possibly-empty field; empty means undefined.
func optionalFloat(row csvRow, col string) (float64, bool) {
	s := row.fields[col]
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
