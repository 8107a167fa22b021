package analytics

import (
	"errors"
	"time"

	"tank-monitor/analytics/internal/domain"
)

type Params struct {
	Window     time.Duration
	Thresholds domain.Thresholds
}

func DefaultParams() Params {
	return Params{
		Window:     domain.DefaultWindow,
		Thresholds: domain.DefaultThresholds,
	}
}

// Evaluate derives the fill status of one tank from a frozen snapshot.
// It never touches shared state, so tanks can be evaluated concurrently.
func Evaluate(snap domain.Snapshot, p Params) domain.FillStatus {
	t := snap.Tank
	status := domain.FillStatus{
		TankID:      t.ID,
		Location:    t.Location,
		ProductType: t.ProductType,
		Group:       t.Group,
		Subgroup:    t.Subgroup,
		AsOf:        snap.AsOf,
		Band:        domain.BandUnknown,
	}

	window := WindowReadings(snap.Readings, snap.AsOf, p.Window)
	status.WindowReadings = len(window)
	status.LastReadingAt = lastReadingAt(window, snap.Latest)

	var level *float64
	if len(window) > 0 {
		level = ptr(window[len(window)-1].Value)
	}
	status.CurrentLevel = level

	est := accumulate(window)
	status.RatePerDay = est.RatePerDay

	pct, err := PercentFull(level, t)
	if err == nil {
		status.PercentFull = ptr(pct)
	}

	if days, ok := DaysToMin(level, t.MinLevel, est.RatePerDay); ok {
		status.DaysToMin = ptr(days)
	}

	switch {
	case errors.Is(err, ErrInvalidCalibration):
		status.Issue = domain.IssueInvalidCalibration
		return status
	case len(window) == 0:
		status.Issue = domain.IssueMissingData
		return status
	case est.Pairs == 0:
		status.Issue = domain.IssueInsufficientData
		return status
	}

	status.Band = Classify(ClassifierInput{
		CurrentLevel: status.CurrentLevel,
		PercentFull:  status.PercentFull,
		DaysToMin:    status.DaysToMin,
	}, p.Thresholds)
	return status
}

func lastReadingAt(window []domain.Reading, latest *domain.Reading) *time.Time {
	var ts *time.Time
	if len(window) > 0 {
		v := window[len(window)-1].Timestamp
		ts = &v
	}
	if latest != nil && (ts == nil || latest.Timestamp.After(*ts)) {
		v := latest.Timestamp
		ts = &v
	}
	return ts
}
