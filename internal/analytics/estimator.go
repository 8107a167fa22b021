package analytics

import (
	"sort"
	"time"

	"tank-monitor/analytics/internal/domain"
)

const secondsPerDay = 86400

// WindowReadings returns a sorted copy of the readings whose timestamp lies
// in [asOf-window, asOf]. Equal timestamps keep insertion order (Seq, then
// input position).
func WindowReadings(readings []domain.Reading, asOf time.Time, window time.Duration) []domain.Reading {
	from := asOf.Add(-window)
	out := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		if r.Timestamp.Before(from) || r.Timestamp.After(asOf) {
			continue
		}
		if !finite(r.Value) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// EstimateConsumption computes the net level change per day across the
// trailing window. Consumption is negative, refills are positive.
func EstimateConsumption(tankID string, readings []domain.Reading, asOf time.Time, window time.Duration) domain.ConsumptionEstimate {
	est := accumulate(WindowReadings(readings, asOf, window))
	est.TankID = tankID
	est.AsOf = asOf
	return est
}

// accumulate expects readings already sorted oldest first.
func accumulate(sorted []domain.Reading) domain.ConsumptionEstimate {
	var (
		sumDelta float64
		sumDays  float64
		pairs    int
	)
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		days := curr.Timestamp.Sub(prev.Timestamp).Seconds() / secondsPerDay
		if days <= 0 {
			continue
		}
		sumDelta += curr.Value - prev.Value
		sumDays += days
		pairs++
	}

	est := domain.ConsumptionEstimate{Pairs: pairs}
	if sumDays > 0 {
		est.RatePerDay = ptr(roundTo(sumDelta/sumDays, 0))
	}
	return est
}
