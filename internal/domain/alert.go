package domain

type AlertType string

const (
	AlertTankCritical       AlertType = "TANK_CRITICAL"
	AlertTankLow            AlertType = "TANK_LOW"
	AlertTankDeficit        AlertType = "TANK_DEFICIT"
	AlertTankBadCalibration AlertType = "TANK_BAD_CALIBRATION"
)

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

type AlertRule struct {
	Type      AlertType
	Severity  AlertSeverity
	Evaluator func(s *FillStatus) bool
	// Value extracts the figure reported with the alert; nil means none.
	Value func(s *FillStatus) *float64
}

var DefaultAlertRules = []AlertRule{
	{
		Type:     AlertTankCritical,
		Severity: SeverityCritical,
		Evaluator: func(s *FillStatus) bool {
			return s.Band == BandCritical
		},
		Value: func(s *FillStatus) *float64 { return s.PercentFull },
	},
	{
		Type:     AlertTankLow,
		Severity: SeverityWarning,
		Evaluator: func(s *FillStatus) bool {
			return s.Band == BandLow
		},
		Value: func(s *FillStatus) *float64 { return s.PercentFull },
	},
	{
		Type:     AlertTankDeficit,
		Severity: SeverityCritical,
		Evaluator: func(s *FillStatus) bool {
			return s.Issue == IssueNone && s.DaysToMin != nil && *s.DaysToMin < 0
		},
		Value: func(s *FillStatus) *float64 { return s.DaysToMin },
	},
	{
		Type:     AlertTankBadCalibration,
		Severity: SeverityInfo,
		Evaluator: func(s *FillStatus) bool {
			return s.Issue == IssueInvalidCalibration
		},
		Value: func(s *FillStatus) *float64 { return nil },
	},
}

// Alert is the event handed to alert sinks.
type Alert struct {
	ID          string        `json:"id"`
	TankID      string        `json:"tank_id"`
	Group       string        `json:"group,omitempty"`
	Location    string        `json:"location"`
	Type        AlertType     `json:"alert_type"`
	Severity    AlertSeverity `json:"severity"`
	Band        StatusBand    `json:"status_band"`
	Value       *float64      `json:"value"`
	TriggeredAt int64         `json:"triggered_at"`
}
