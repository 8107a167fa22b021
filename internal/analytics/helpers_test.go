package analytics

import (
	"time"

	"tank-monitor/analytics/internal/domain"
)

var base = time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)

func day(n float64) time.Time {
	return base.Add(time.Duration(n * 24 * float64(time.Hour)))
}

func reading(at time.Time, v float64) domain.Reading {
	return domain.Reading{TankID: "t1", Value: v, Timestamp: at, RecordedBy: "dip"}
}

func f(v float64) *float64 { return &v }

func tank(safe *float64, min float64) domain.Tank {
	return domain.Tank{
		ID:          "t1",
		Location:    "Kewdale Depot",
		ProductType: "Diesel",
		SafeLevel:   safe,
		MinLevel:    min,
		Group:       "wa",
	}
}
