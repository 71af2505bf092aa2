package domain

// PrecipClass labels one hour's precipitation phase.
type PrecipClass int

const (
	ClassNone PrecipClass = iota
	ClassRain
	ClassSnow
)

func (c PrecipClass) String() string {
	switch c {
	case ClassRain:
		return "liquid-rain"
	case ClassSnow:
		return "snow"
	default:
		return "none"
	}
}

// DefaultRainThresholdMM is the depth above which an hour counts as rainy:
// 0.01 inch, the WMO trace convention, in millimetres.
const DefaultRainThresholdMM = 0.254

// ClassifyHour labels an hour at the given rain threshold. The depth must be
// valid and strictly above the threshold to count at all; a frozen
// present-weather code then makes the hour snow, otherwise liquid rain. A
// frozen code with depth at or below the threshold stays no-precipitation.
func ClassifyHour(o Observation, thresholdMM float64) PrecipClass {
	if !o.Precip.Valid || o.Precip.DepthMM <= thresholdMM {
		return ClassNone
	}
	if o.FrozenCode {
		return ClassSnow
	}
	return ClassRain
}
