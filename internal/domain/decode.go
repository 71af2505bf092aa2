package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// isdTimeLayout matches the DATE column, e.g. "2023-01-07T09:51:00". All ISD
// timestamps are UTC.
const isdTimeLayout = "2006-01-02T15:04:05"

// ErrMissingTimestamp marks a row with an empty DATE column.
var ErrMissingTimestamp = errors.New("missing timestamp")

// missingSentinels are the ISD tokens for an unreported numeric sub-field.
// Both the unsigned and the explicitly signed form occur in the archive.
var missingSentinels = map[string]bool{
	"9999":  true,
	"+9999": true,
}

// tmpRejectQuality lists TMP quality flags whose values must not enter any
// temperature metric: suspect (2), erroneous (3), their calculated variants
// (6, 7), and missing (9). Flags 0, 1, 4 and 5 pass.
var tmpRejectQuality = map[string]bool{
	"2": true,
	"3": true,
	"6": true,
	"7": true,
	"9": true,
}

// ParseAA1DepthMM decodes the AA1 compound field
// "period,depth,condition,quality" into a precipitation depth. The depth
// sub-field (index 1) is in tenths of a millimetre: "01,0025,2,5" → 2.5 mm.
// Sentinel depths and payloads that do not split or parse decode to an
// invalid depth, never an error.
func ParseAA1DepthMM(raw string) PrecipDepth {
	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return PrecipDepth{}
	}
	depth := strings.TrimSpace(parts[1])
	if missingSentinels[depth] {
		return PrecipDepth{}
	}
	tenths, err := strconv.Atoi(depth)
	if err != nil {
		return PrecipDepth{}
	}
	return PrecipDepth{DepthMM: float64(tenths) / 10.0, Valid: true}
}

// ParseTMPCelsius decodes the TMP compound field "+TTTT,Q" (signed tenths of
// a degree plus a quality flag) into degrees Celsius: "+0215,1" → 21.5 °C.
// The sentinel check runs before the quality check; either invalidates the
// value, as does any payload that fails to parse.
func ParseTMPCelsius(raw string) Temperature {
	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return Temperature{}
	}
	value := strings.TrimSpace(parts[0])
	if missingSentinels[value] {
		return Temperature{}
	}
	if tmpRejectQuality[strings.TrimSpace(parts[1])] {
		return Temperature{}
	}
	tenths, err := strconv.Atoi(value)
	if err != nil {
		return Temperature{}
	}
	return Temperature{Celsius: float64(tenths) / 10.0, Valid: true}
}

// ParseWeatherCode extracts the phenomenon code from a present-weather field
// "code,quality", e.g. "71,2" → "71". Empty input yields an empty code.
func ParseWeatherCode(raw string) string {
	return strings.TrimSpace(strings.Split(raw, ",")[0])
}

// FrozenWeatherCode reports whether a present-weather field carries a
// frozen-precipitation code: 70-79 (snow, ice pellets, diamond dust) or
// 83-89 (snow and mixed showers, soft hail).
func FrozenWeatherCode(raw string) bool {
	code := ParseWeatherCode(raw)
	if code == "" {
		return false
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return (n >= 70 && n <= 79) || (n >= 83 && n <= 89)
}

// DecodeObservation decodes one raw row into an Observation. Every compound
// field decodes leniently; the timestamp is the only part that can fail,
// because a row that cannot be placed in time cannot be placed in any period.
// The frozen flag is the OR over all four present-weather slots.
func DecodeObservation(raw RawObservation) (Observation, error) {
	date := strings.TrimSpace(raw.Date)
	if date == "" {
		return Observation{}, fmt.Errorf("decode observation: %w", ErrMissingTimestamp)
	}
	ts, err := time.Parse(isdTimeLayout, date)
	if err != nil {
		return Observation{}, fmt.Errorf("decode observation: %w", err)
	}

	frozen := false
	for _, aw := range []string{raw.AW1, raw.AW2, raw.AW3, raw.AW4} {
		if FrozenWeatherCode(aw) {
			frozen = true
			break
		}
	}

	return Observation{
		Station:    raw.Station,
		Time:       ts,
		ReportType: raw.ReportType,
		Precip:     ParseAA1DepthMM(raw.AA1),
		Temp:       ParseTMPCelsius(raw.TMP),
		FrozenCode: frozen,
	}, nil
}
