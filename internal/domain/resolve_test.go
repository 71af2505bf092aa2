package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// hourObs builds a decoded observation at the given hour of 2023-03-01.
func hourObs(hour int, reportType string) Observation {
	return Observation{
		Station:    testStation,
		Time:       time.Date(2023, 3, 1, hour, 0, 0, 0, time.UTC),
		ReportType: reportType,
	}
}

func TestReportTypesPresent(t *testing.T) {
	rows := []Observation{
		hourObs(0, ReportTypeSynop),
		hourObs(1, ReportTypeMetar),
		hourObs(2, "FM-16"),
		hourObs(3, ReportTypeSynop),
	}

	present := ReportTypesPresent(rows)

	assert.Equal(t, map[string]bool{
		ReportTypeSynop: true,
		ReportTypeMetar: true,
		"FM-16":         true,
	}, present)
	assert.Empty(t, ReportTypesPresent(nil))
}

func TestTemperatureTypes(t *testing.T) {
	tests := []struct {
		name     string
		present  map[string]bool
		expected []string
	}{
		{"synop only", map[string]bool{ReportTypeSynop: true}, []string{ReportTypeSynop}},
		{"metar only", map[string]bool{ReportTypeMetar: true}, []string{ReportTypeMetar}},
		{"synop outranks metar", map[string]bool{ReportTypeSynop: true, ReportTypeMetar: true}, []string{ReportTypeSynop}},
		{"specials alone yield nothing", map[string]bool{"FM-16": true}, nil},
		{"empty history", map[string]bool{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TemperatureTypes(tt.present))
		})
	}
}

func TestSelectPrecipRows(t *testing.T) {
	t.Run("excludes specials and daily summaries", func(t *testing.T) {
		rows := []Observation{
			hourObs(0, ReportTypeMetar),
			hourObs(1, "FM-16"),
			hourObs(2, "SOD  "),
			hourObs(3, ReportTypeSynop),
		}

		selected := SelectPrecipRows(rows)

		assert.Len(t, selected, 2)
		assert.Equal(t, ReportTypeMetar, selected[0].ReportType)
		assert.Equal(t, ReportTypeSynop, selected[1].ReportType)
	})

	t.Run("keeps first duplicate in file order", func(t *testing.T) {
		first := hourObs(9, ReportTypeMetar)
		first.Precip = PrecipDepth{DepthMM: 1.0, Valid: true}
		second := hourObs(9, ReportTypeMetar)
		second.Precip = PrecipDepth{DepthMM: 7.0, Valid: true}

		selected := SelectPrecipRows([]Observation{first, second})

		assert.Len(t, selected, 1)
		assert.Equal(t, 1.0, selected[0].Precip.DepthMM)
	})

	t.Run("sorts by time after dedup", func(t *testing.T) {
		rows := []Observation{
			hourObs(12, ReportTypeMetar),
			hourObs(3, ReportTypeMetar),
			hourObs(8, ReportTypeSynop),
		}

		selected := SelectPrecipRows(rows)

		assert.Len(t, selected, 3)
		assert.Equal(t, 3, selected[0].Time.Hour())
		assert.Equal(t, 8, selected[1].Time.Hour())
		assert.Equal(t, 12, selected[2].Time.Hour())
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SelectPrecipRows(nil))
	})
}

func TestSelectTempRows(t *testing.T) {
	t.Run("station-wide precedence drops metar everywhere", func(t *testing.T) {
		// One FM-12 row in 2022 is enough to exclude FM-15 from temperature
		// in 2023, where only FM-15 was filed.
		history := []Observation{
			{Station: testStation, Time: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), ReportType: ReportTypeSynop},
			{Station: testStation, Time: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), ReportType: ReportTypeMetar},
			{Station: testStation, Time: time.Date(2023, 6, 1, 1, 0, 0, 0, time.UTC), ReportType: ReportTypeMetar},
		}
		eligible := TemperatureTypes(ReportTypesPresent(history))

		selected := SelectTempRows(history, eligible)

		assert.Len(t, selected, 1)
		assert.Equal(t, ReportTypeSynop, selected[0].ReportType)
	})

	t.Run("metar-only station keeps metar", func(t *testing.T) {
		history := []Observation{
			hourObs(0, ReportTypeMetar),
			hourObs(1, ReportTypeMetar),
		}
		eligible := TemperatureTypes(ReportTypesPresent(history))

		selected := SelectTempRows(history, eligible)

		assert.Len(t, selected, 2)
	})

	t.Run("no eligible types selects nothing", func(t *testing.T) {
		history := []Observation{hourObs(0, "FM-16")}
		eligible := TemperatureTypes(ReportTypesPresent(history))

		assert.Empty(t, SelectTempRows(history, eligible))
	})
}
