package domain

import (
	"errors"
	"time"
)

var ErrTankNotFound = errors.New("tank not found")

// Tank is the canonical catalog record. SafeLevel is nil when the catalog
// row carries no capacity at all.
type Tank struct {
	ID          string
	Location    string
	ProductType string
	SafeLevel   *float64
	MinLevel    float64
	Group       string
	Subgroup    string
}

// InScope reports whether the tank is visible to a caller scoped to group.
// An empty scope sees every tank.
func (t Tank) InScope(group string) bool {
	return group == "" || t.Group == group
}

type Reading struct {
	TankID     string
	Value      float64
	Timestamp  time.Time
	RecordedBy string

	// Seq is the store's insertion order; it breaks timestamp ties.
	Seq int64
}

// Snapshot is the frozen input for a single tank evaluation.
type Snapshot struct {
	Tank     Tank
	Readings []Reading
	Latest   *Reading
	AsOf     time.Time
}

type ConsumptionEstimate struct {
	TankID     string
	AsOf       time.Time
	RatePerDay *float64
	Pairs      int
}

func (e ConsumptionEstimate) Defined() bool {
	return e.RatePerDay != nil
}

type StatusBand string

const (
	BandUnknown  StatusBand = "unknown"
	BandCritical StatusBand = "critical"
	BandLow      StatusBand = "low"
	BandNormal   StatusBand = "normal"
)

// Severity orders bands for digests: critical first, normal last.
func (b StatusBand) Severity() int {
	switch b {
	case BandCritical:
		return 3
	case BandLow:
		return 2
	case BandUnknown:
		return 1
	default:
		return 0
	}
}

// Issue names the data-quality condition behind an unknown band.
type Issue string

const (
	IssueNone               Issue = ""
	IssueMissingData        Issue = "missing_data"
	IssueInsufficientData   Issue = "insufficient_data"
	IssueInvalidCalibration Issue = "invalid_calibration"
	IssueStoreError         Issue = "store_error"
)

type FillStatus struct {
	TankID      string    `json:"tank_id"`
	Location    string    `json:"location"`
	ProductType string    `json:"product_type"`
	Group       string    `json:"group,omitempty"`
	Subgroup    string    `json:"subgroup,omitempty"`
	AsOf        time.Time `json:"as_of"`

	CurrentLevel *float64 `json:"current_level"`
	PercentFull  *float64 `json:"percent_full"`
	RatePerDay   *float64 `json:"rate_per_day"`
	DaysToMin    *float64 `json:"days_to_min"`

	Band  StatusBand `json:"status_band"`
	Issue Issue      `json:"issue,omitempty"`

	LastReadingAt  *time.Time `json:"last_reading_at"`
	WindowReadings int        `json:"window_readings"`
}

type Thresholds struct {
	CriticalPercent float64
	LowPercent      float64
	CriticalDays    float64
}

var DefaultThresholds = Thresholds{
	CriticalPercent: 15,
	LowPercent:      30,
	CriticalDays:    3,
}

const DefaultWindow = 7 * 24 * time.Hour
