package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHour(t *testing.T) {
	tests := []struct {
		name     string
		precip   PrecipDepth
		frozen   bool
		expected PrecipClass
	}{
		{"invalid depth", PrecipDepth{}, false, ClassNone},
		{"below threshold", PrecipDepth{DepthMM: 0.1, Valid: true}, false, ClassNone},
		{"exactly at threshold", PrecipDepth{DepthMM: 0.254, Valid: true}, false, ClassNone},
		{"above threshold liquid", PrecipDepth{DepthMM: 0.3, Valid: true}, false, ClassRain},
		{"above threshold frozen", PrecipDepth{DepthMM: 0.3, Valid: true}, true, ClassSnow},
		{"frozen code below threshold", PrecipDepth{DepthMM: 0.1, Valid: true}, true, ClassNone},
		{"frozen code invalid depth", PrecipDepth{}, true, ClassNone},
		{"heavy rain", PrecipDepth{DepthMM: 30.0, Valid: true}, false, ClassRain},
		{"heavy snow", PrecipDepth{DepthMM: 30.0, Valid: true}, true, ClassSnow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Observation{Precip: tt.precip, FrozenCode: tt.frozen}
			assert.Equal(t, tt.expected, ClassifyHour(o, DefaultRainThresholdMM))
		})
	}
}

func TestClassifyHour_ThresholdIsParameter(t *testing.T) {
	o := Observation{Precip: PrecipDepth{DepthMM: 1.0, Valid: true}}

	// The same decoded observation reclassifies at any threshold.
	assert.Equal(t, ClassRain, ClassifyHour(o, 0.0))
	assert.Equal(t, ClassRain, ClassifyHour(o, 0.254))
	assert.Equal(t, ClassNone, ClassifyHour(o, 1.0))
	assert.Equal(t, ClassNone, ClassifyHour(o, 5.0))
}

func TestPrecipClassString(t *testing.T) {
	assert.Equal(t, "none", ClassNone.String())
	assert.Equal(t, "liquid-rain", ClassRain.String())
	assert.Equal(t, "snow", ClassSnow.String())
}
