package analytics

import "tank-monitor/analytics/internal/domain"

type ClassifierInput struct {
	CurrentLevel *float64
	PercentFull  *float64
	DaysToMin    *float64
}

// Classify maps a percentage and forecast onto a status band. Inputs that
// contradict each other fail closed to unknown.
func Classify(in ClassifierInput, th domain.Thresholds) domain.StatusBand {
	if in.PercentFull == nil || in.CurrentLevel == nil {
		return domain.BandUnknown
	}
	pct := *in.PercentFull
	if !finite(pct) || pct < 0 || pct > 100 {
		return domain.BandUnknown
	}

	if pct < th.CriticalPercent {
		return domain.BandCritical
	}
	if in.DaysToMin != nil && *in.DaysToMin <= th.CriticalDays {
		return domain.BandCritical
	}
	if pct < th.LowPercent {
		return domain.BandLow
	}
	return domain.BandNormal
}
