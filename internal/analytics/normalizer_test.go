package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentFullScenarios(t *testing.T) {
	tests := []struct {
		name  string
		safe  float64
		min   float64
		level float64
		want  float64
	}{
		{"large tank", 330000, 0, 200000, 60.6},
		{"small tank near empty", 110000, 0, 14800, 13.5},
		{"with min level", 10000, 1000, 5500, 50},
		{"exactly full", 5000, 0, 5000, 100},
		{"exactly at min", 5000, 500, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PercentFull(f(tt.level), tank(f(tt.safe), tt.min))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentFullInvalidCalibration(t *testing.T) {
	tests := []struct {
		name string
		safe *float64
		min  float64
	}{
		{"missing safe level", nil, 0},
		{"zero safe level", f(0), 0},
		{"negative safe level", f(-100), -500},
		{"safe equals min", f(2000), 2000},
		{"safe below min", f(1000), 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PercentFull(f(500), tank(tt.safe, tt.min))
			assert.ErrorIs(t, err, ErrInvalidCalibration)
		})
	}
}

func TestPercentFullWithoutLevel(t *testing.T) {
	_, err := PercentFull(nil, tank(f(1000), 0))
	assert.ErrorIs(t, err, ErrNoLevel)

	_, err = PercentFull(nil, tank(nil, 0))
	assert.ErrorIs(t, err, ErrInvalidCalibration, "calibration defect reported ahead of missing level")
}

func TestPercentFullAlwaysClamped(t *testing.T) {
	levels := []float64{-1e9, -50, 0, 1, 499.99, 500, 12345, 1e9}
	calibrations := []struct{ safe, min float64 }{
		{1000, 0},
		{1000, 500},
		{330000, 0},
		{10, -10},
	}

	for _, c := range calibrations {
		for _, level := range levels {
			got, err := PercentFull(f(level), tank(f(c.safe), c.min))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, 0.0, "level=%v safe=%v min=%v", level, c.safe, c.min)
			assert.LessOrEqual(t, got, 100.0, "level=%v safe=%v min=%v", level, c.safe, c.min)
		}
	}
}
