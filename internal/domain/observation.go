package domain

import "time"

// Report types accepted as primary hourly observations. Order is the
// temperature precedence: FM-12 outranks FM-15.
const (
	ReportTypeSynop = "FM-12"
	ReportTypeMetar = "FM-15"
)

// HourlyReportTypes lists the accepted report types in precedence order.
// Everything else (FM-16 specials, SOD daily summaries) is out of scope for
// both metric families.
var HourlyReportTypes = []string{ReportTypeSynop, ReportTypeMetar}

// RawObservation is one hourly record exactly as it appears in a station-year
// CSV. Compound fields stay encoded as raw strings; [DecodeObservation] turns
// them into typed values. The CSV carries many more columns than these; gocsv
// binds by header name and ignores the rest.
type RawObservation struct {
	Station    string `csv:"STATION"`
	Date       string `csv:"DATE"`
	ReportType string `csv:"REPORT_TYPE"`
	AA1        string `csv:"AA1"` // liquid precipitation: period,depth,condition,quality
	AW1        string `csv:"AW1"` // present weather: code,quality
	AW2        string `csv:"AW2"`
	AW3        string `csv:"AW3"`
	AW4        string `csv:"AW4"`
	TMP        string `csv:"TMP"` // air temperature: signed tenths °C,quality
}

// PrecipDepth is a decoded liquid-precipitation depth in millimetres.
// Valid is false when the raw field carried a sentinel or failed to parse.
type PrecipDepth struct {
	DepthMM float64
	Valid   bool
}

// Temperature is a decoded air temperature in degrees Celsius.
// Valid is false on sentinel payloads and rejected quality flags.
type Temperature struct {
	Celsius float64
	Valid   bool
}

// Observation is the decoded form of a RawObservation. Field decoding is
// lenient: malformed payloads become invalid values. Only a missing or
// unparseable timestamp makes a row undecodable.
type Observation struct {
	Station    string
	Time       time.Time
	ReportType string
	Precip     PrecipDepth
	Temp       Temperature
	FrozenCode bool // any present-weather slot carried a frozen-precipitation code
}
