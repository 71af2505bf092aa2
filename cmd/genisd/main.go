// Command genisd writes synthetic NOAA ISD hourly CSV fixtures. Rows pass
// through the domain RawObservation type, so generated files carry exactly
// the column layout the decoder expects, including sentinel depths, rejected
// quality flags, duplicate timestamps, and non-hourly report types.
//
// Usage:
//
//	go run ./cmd/genisd -out testdata/03772099999_2023.csv -year 2023 -rows 2000 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/gocarina/gocsv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output CSV path")
	station := flag.String("station", "03772099999", "station identifier for the STATION column")
	year := flag.Int("year", 2023, "calendar year of the generated timestamps")
	rows := flag.Int("rows", 2000, "number of rows to generate")
	seed := flag.Int64("seed", 1, "PRNG seed for reproducible fixtures")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	gen := newGenerator(*station, *year, *seed)
	records := gen.generate(*rows)

	if err := writeCSV(*out, records); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d rows: %s", len(records), *out)

	printStats(records)
	return nil
}

type generator struct {
	rng     *rand.Rand
	station string
	start   time.Time
	hour    int
}

func newGenerator(station string, year int, seed int64) *generator {
	return &generator{
		rng:     rand.New(rand.NewSource(seed)),
		station: station,
		start:   time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (g *generator) generate(n int) []*domain.RawObservation {
	records := make([]*domain.RawObservation, 0, n)
	for len(records) < n {
		ts := g.start.Add(time.Duration(g.hour) * time.Hour)
		g.hour++

		records = append(records, g.row(ts))

		// Occasional duplicate timestamp with a conflicting depth; decoding
		// resolves these by keeping the first row.
		if len(records) < n && g.rng.Float64() < 0.01 {
			dup := g.row(ts)
			dup.AA1 = "01,9999,9,9"
			records = append(records, dup)
		}
	}
	return records
}

func (g *generator) row(ts time.Time) *domain.RawObservation {
	tempC := g.temperature(ts)
	depthTenths := g.depthTenths()

	rec := &domain.RawObservation{
		Station:    g.station,
		Date:       ts.Format("2006-01-02T15:04:05"),
		ReportType: g.reportType(),
		TMP:        g.tmpField(tempC),
	}

	switch {
	case depthTenths < 0:
		// no precipitation group this hour
	case g.rng.Float64() < 0.03:
		rec.AA1 = "01,9999,9,9" // missing-depth sentinel
	default:
		rec.AA1 = fmt.Sprintf("01,%04d,C,5", depthTenths)
	}

	if depthTenths > 0 {
		rec.AW1 = g.weatherCode(tempC)
	}
	return rec
}

func (g *generator) reportType() string {
	switch r := g.rng.Float64(); {
	case r < 0.60:
		return domain.ReportTypeSynop
	case r < 0.90:
		return domain.ReportTypeMetar
	case r < 0.95:
		return "FM-16"
	default:
		return "SOD  "
	}
}

// temperature follows a seasonal plus diurnal cycle with noise, peaking in
// mid-July afternoons.
func (g *generator) temperature(ts time.Time) float64 {
	seasonal := 8 * math.Sin(2*math.Pi*float64(ts.YearDay()-105)/365)
	diurnal := 3 * math.Sin(2*math.Pi*float64(ts.Hour()-4)/24)
	return 10 + seasonal + diurnal + g.rng.NormFloat64()*2
}

func (g *generator) tmpField(tempC float64) string {
	switch r := g.rng.Float64(); {
	case r < 0.04:
		return "+9999,9" // missing-temperature sentinel
	case r < 0.08:
		return fmt.Sprintf("%+05d,3", int(tempC*10)) // erroneous quality flag
	default:
		return fmt.Sprintf("%+05d,1", int(tempC*10))
	}
}

// depthTenths returns the hourly depth in tenths of a millimetre, or -1 when
// the hour reports no precipitation group at all.
func (g *generator) depthTenths() int {
	switch r := g.rng.Float64(); {
	case r < 0.30:
		return -1
	case r < 0.75:
		return 0
	case r < 0.95:
		return 1 + g.rng.Intn(50) // drizzle to light rain
	default:
		return 50 + g.rng.Intn(250) // heavier events
	}
}

func (g *generator) weatherCode(tempC float64) string {
	if tempC < 1.0 {
		codes := []string{"71", "73", "75", "85", "86"}
		return codes[g.rng.Intn(len(codes))] + ",1"
	}
	if g.rng.Float64() < 0.5 {
		codes := []string{"61", "63", "65", "80"}
		return codes[g.rng.Intn(len(codes))] + ",1"
	}
	return ""
}

func writeCSV(path string, records []*domain.RawObservation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(records, f); err != nil {
		f.Close() //nolint:errcheck // the marshal error is the one to report
		return err
	}
	return f.Close()
}

// printStats decodes the generated rows with the real pipeline decoder so
// the reported counts match what a run over the fixture will see.
func printStats(records []*domain.RawObservation) {
	byType := map[string]int{}
	for _, r := range records {
		byType[r.ReportType]++
	}

	var validDepth, sentinelDepth, validTemp, subZero int
	var rainy, snow int
	for _, r := range records {
		o, err := domain.DecodeObservation(*r)
		if err != nil {
			continue
		}
		if o.Precip.Valid {
			validDepth++
		} else if r.AA1 != "" {
			sentinelDepth++
		}
		if o.Temp.Valid {
			validTemp++
			if o.Temp.Celsius < 0 {
				subZero++
			}
		}
		switch domain.ClassifyHour(o, domain.DefaultRainThresholdMM) {
		case domain.ClassRain:
			rainy++
		case domain.ClassSnow:
			snow++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total rows: %d\n", len(records))

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	fmt.Printf("By report type:")
	for _, t := range types {
		fmt.Printf(" %q=%d", t, byType[t])
	}
	fmt.Println()

	fmt.Printf("Valid depths: %d (sentinel/malformed: %d)\n", validDepth, sentinelDepth)
	fmt.Printf("Liquid rain hours (>%g mm): %d\n", domain.DefaultRainThresholdMM, rainy)
	fmt.Printf("Snow hours: %d\n", snow)
	fmt.Printf("Valid temperatures: %d (sub-zero: %d)\n", validTemp, subZero)
}
