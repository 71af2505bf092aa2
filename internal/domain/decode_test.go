package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStation = "03772099999"
	testDate    = "2023-01-07T09:00:00"
)

func TestParseAA1DepthMM(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected PrecipDepth
	}{
		{"typical depth", "0005,0050,C,5", PrecipDepth{DepthMM: 5.0, Valid: true}},
		{"zero depth is valid", "0001,0000,C,5", PrecipDepth{DepthMM: 0.0, Valid: true}},
		{"ten millimetres", "0001,0100,C,5", PrecipDepth{DepthMM: 10.0, Valid: true}},
		{"heavy rain", "01,0300,2,5", PrecipDepth{DepthMM: 30.0, Valid: true}},
		{"sentinel depth", "0001,9999,C,5", PrecipDepth{}},
		{"signed sentinel depth", "0001,+9999,C,5", PrecipDepth{}},
		{"empty payload", "", PrecipDepth{}},
		{"single sub-field", "0001", PrecipDepth{}},
		{"non-numeric depth", "0001,abc,C,5", PrecipDepth{}},
		{"missing trailing sub-fields", "01,0025", PrecipDepth{DepthMM: 2.5, Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAA1DepthMM(tt.raw))
		})
	}
}

func TestParseTMPCelsius(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Temperature
	}{
		{"positive tenths", "+0215,1", Temperature{Celsius: 21.5, Valid: true}},
		{"negative tenths", "-0056,1", Temperature{Celsius: -5.6, Valid: true}},
		{"zero", "+0000,1", Temperature{Celsius: 0.0, Valid: true}},
		{"passing flag 0", "+0100,0", Temperature{Celsius: 10.0, Valid: true}},
		{"passing flag 4", "+0100,4", Temperature{Celsius: 10.0, Valid: true}},
		{"passing flag 5", "+0100,5", Temperature{Celsius: 10.0, Valid: true}},
		{"sentinel with missing flag", "+9999,9", Temperature{}},
		{"unsigned sentinel", "9999,1", Temperature{}},
		{"suspect flag", "+0150,2", Temperature{}},
		{"erroneous flag", "+0150,3", Temperature{}},
		{"calculated suspect flag", "+0150,6", Temperature{}},
		{"calculated erroneous flag", "+0150,7", Temperature{}},
		{"missing flag", "+0150,9", Temperature{}},
		{"empty payload", "", Temperature{}},
		{"no quality sub-field", "+0215", Temperature{}},
		{"non-numeric value", "abc,1", Temperature{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTMPCelsius(tt.raw))
		})
	}
}

func TestParseWeatherCode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"code with quality", "71,2", "71"},
		{"bare code", "71", "71"},
		{"padded code", " 61 ,2", "61"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseWeatherCode(tt.raw))
		})
	}
}

func TestFrozenWeatherCode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected bool
	}{
		{"continuous snow", "71,2", true},
		{"range start 70", "70,2", true},
		{"range end 79", "79,2", true},
		{"snow shower 85", "85,2", true},
		{"range start 83", "83,2", true},
		{"range end 89", "89,2", true},
		{"rain shower 80 excluded", "80,2", false},
		{"shower gap 82 excluded", "82,2", false},
		{"hail 90 excluded", "90,2", false},
		{"drizzle excluded", "51,2", false},
		{"below snow range", "69,2", false},
		{"empty", "", false},
		{"non-numeric", "RA,2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FrozenWeatherCode(tt.raw))
		})
	}
}

func TestDecodeObservation(t *testing.T) {
	t.Run("full row", func(t *testing.T) {
		raw := RawObservation{
			Station:    testStation,
			Date:       testDate,
			ReportType: ReportTypeSynop,
			AA1:        "01,0025,2,5",
			TMP:        "+0042,1",
		}

		obs, err := DecodeObservation(raw)

		require.NoError(t, err)
		assert.Equal(t, testStation, obs.Station)
		assert.Equal(t, time.Date(2023, 1, 7, 9, 0, 0, 0, time.UTC), obs.Time)
		assert.Equal(t, ReportTypeSynop, obs.ReportType)
		assert.Equal(t, PrecipDepth{DepthMM: 2.5, Valid: true}, obs.Precip)
		assert.Equal(t, Temperature{Celsius: 4.2, Valid: true}, obs.Temp)
		assert.False(t, obs.FrozenCode)
	})

	t.Run("frozen code in first slot", func(t *testing.T) {
		raw := RawObservation{Station: testStation, Date: testDate, AW1: "71,2"}

		obs, err := DecodeObservation(raw)

		require.NoError(t, err)
		assert.True(t, obs.FrozenCode)
	})

	t.Run("frozen code in last slot", func(t *testing.T) {
		raw := RawObservation{Station: testStation, Date: testDate, AW1: "61,2", AW4: "85,2"}

		obs, err := DecodeObservation(raw)

		require.NoError(t, err)
		assert.True(t, obs.FrozenCode)
	})

	t.Run("liquid codes only", func(t *testing.T) {
		raw := RawObservation{Station: testStation, Date: testDate, AW1: "61,2", AW2: "63,2"}

		obs, err := DecodeObservation(raw)

		require.NoError(t, err)
		assert.False(t, obs.FrozenCode)
	})

	t.Run("malformed fields decode invalid", func(t *testing.T) {
		raw := RawObservation{
			Station: testStation,
			Date:    testDate,
			AA1:     "01,9999,2,5",
			TMP:     "+0150,3",
		}

		obs, err := DecodeObservation(raw)

		require.NoError(t, err)
		assert.False(t, obs.Precip.Valid)
		assert.False(t, obs.Temp.Valid)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		raw := RawObservation{Station: testStation, Date: "   "}

		_, err := DecodeObservation(raw)

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingTimestamp))
	})

	t.Run("unparseable timestamp", func(t *testing.T) {
		raw := RawObservation{Station: testStation, Date: "07/01/2023 09:00"}

		_, err := DecodeObservation(raw)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode observation")
	})

	t.Run("deterministic", func(t *testing.T) {
		raw := RawObservation{
			Station:    testStation,
			Date:       testDate,
			ReportType: ReportTypeMetar,
			AA1:        "01,0300,2,5",
			AW1:        "71,2",
			TMP:        "-0012,1",
		}

		first, err := DecodeObservation(raw)
		require.NoError(t, err)
		second, err := DecodeObservation(raw)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
