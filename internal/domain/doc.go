// Package domain models NOAA Integrated Surface Dataset (ISD) hourly
// observations and the decoding rules that make two stations comparable.
//
// # Data Source
//
// Observations come from the ISD global-hourly CSV archive, one object per
// station and year, available from the public bucket
// https://noaa-global-hourly-pds.s3.amazonaws.com/. The fetch adapter
// retrieves these CSVs; this package consumes the columns STATION, DATE,
// REPORT_TYPE, AA1, AW1-AW4 and TMP and ignores the rest.
//
// # ISD Field Conventions
//
// Precipitation (AA1 column):
//
//	"period,depth,condition,quality"  →  e.g. "01,0025,2,5"
//	depth is the second sub-field, in tenths of a millimetre: 0025 = 2.5 mm.
//	9999 (also written +9999) is the sentinel for an unreported depth.
//	Payloads that do not split or parse decode to invalid, never to an error.
//
// Temperature (TMP column):
//
//	"+TTTT,Q"  →  e.g. "+0215,1" = 21.5 °C with quality flag 1.
//	Signed tenths of a degree Celsius. +9999 is the missing sentinel.
//	Quality flags 2, 3, 6, 7 and 9 (suspect, erroneous, their calculated
//	variants, and missing) invalidate the value; flags 0, 1, 4 and 5 pass.
//
// Present weather (AW1-AW4 columns):
//
//	"code,quality"  →  e.g. "71,2" = continuous light snow.
//	Up to four simultaneous phenomena per hour; every slot is checked.
//	Codes 70-79 (snow, ice pellets, diamond dust) and 83-89 (snow and mixed
//	showers, soft hail) mark the hour's precipitation as frozen.
//
// Report types (REPORT_TYPE column):
//
//	FM-12  SYNOP, primary hourly, temperatures in tenths of a degree.
//	FM-15  METAR, primary hourly, temperatures rounded to whole degrees.
//	FM-16  SPECI, sub-hourly special report: excluded, its accumulation
//	       period is variable and double-counts against the hourly reports.
//	SOD    daily summary (padded with trailing spaces in the data): excluded.
//	Matching is exact string equality on the raw column value.
//
// # Report-Type Precedence
//
// Precipitation reads from both accepted hourly types. Temperature applies a
// station-wide precedence decided once from the station's full history: any
// FM-12 row anywhere makes FM-12 the only temperature source for that
// station, for every period. Mixing FM-15 whole-degree values into an FM-12
// series piles mass on every integer degree, which skews histograms and
// degree-day means; reading one resolution per station avoids that. See
// [TemperatureTypes].
//
// # Classification
//
// An hour with a valid depth strictly above the rain threshold (default
// 0.254 mm, the WMO trace convention) is liquid rain, or snow when any
// present-weather slot carries a frozen code. Depth at or below the
// threshold is no-precipitation regardless of weather codes. Classification
// takes the threshold as a parameter so swept re-evaluation reuses the same
// decoded rows. See [ClassifyHour].
package domain
