package analytics

import (
	"errors"
	"fmt"

	"tank-monitor/analytics/internal/domain"
)

var (
	ErrInvalidCalibration = errors.New("invalid tank calibration")
	ErrNoLevel            = errors.New("no current level")
)

// ValidateCalibration checks the safe/min pair that bounds the percentage.
func ValidateCalibration(t domain.Tank) error {
	switch {
	case t.SafeLevel == nil:
		return fmt.Errorf("%w: safe level missing", ErrInvalidCalibration)
	case !finite(*t.SafeLevel) || !finite(t.MinLevel):
		return fmt.Errorf("%w: non-finite levels", ErrInvalidCalibration)
	case *t.SafeLevel <= 0:
		return fmt.Errorf("%w: safe level %.1f is not positive", ErrInvalidCalibration, *t.SafeLevel)
	case *t.SafeLevel <= t.MinLevel:
		return fmt.Errorf("%w: safe level %.1f not above min level %.1f", ErrInvalidCalibration, *t.SafeLevel, t.MinLevel)
	}
	return nil
}

// PercentFull maps an absolute level onto [0,100] rounded to one decimal.
// Calibration is checked before the level so a catalog defect is always
// reported as such.
func PercentFull(level *float64, t domain.Tank) (float64, error) {
	if err := ValidateCalibration(t); err != nil {
		return 0, err
	}
	if level == nil || !finite(*level) {
		return 0, ErrNoLevel
	}
	span := *t.SafeLevel - t.MinLevel
	pct := roundTo((*level-t.MinLevel)/span*100, 1)
	return clamp(0, 100, pct), nil
}
