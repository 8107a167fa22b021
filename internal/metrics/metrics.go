package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"tank-monitor/analytics/internal/domain"
)

var (
	EvaluationRuns      atomic.Int64
	TanksEvaluated      atomic.Int64
	BandCritical        atomic.Int64
	BandLow             atomic.Int64
	BandNormal          atomic.Int64
	BandUnknown         atomic.Int64
	InvalidCalibrations atomic.Int64
	MissingData         atomic.Int64
	StoreErrors         atomic.Int64

	AlertsRaised        atomic.Int64
	AlertsDeduplicated  atomic.Int64
	AlertFailures       atomic.Int64
	StatusLogSuccess    atomic.Int64
	StatusLogFailures   atomic.Int64
	StatusPublished     atomic.Int64
	StatusPublishErrors atomic.Int64

	StatusLogChannelDrops atomic.Int64
	AlertChannelDrops     atomic.Int64
	PublishChannelDrops   atomic.Int64

	StreamClients atomic.Int64
	StreamDrops   atomic.Int64
)

// ObserveStatus counts one evaluated tank.
func ObserveStatus(s *domain.FillStatus) {
	TanksEvaluated.Add(1)
	switch s.Band {
	case domain.BandCritical:
		BandCritical.Add(1)
	case domain.BandLow:
		BandLow.Add(1)
	case domain.BandNormal:
		BandNormal.Add(1)
	default:
		BandUnknown.Add(1)
	}
	switch s.Issue {
	case domain.IssueInvalidCalibration:
		InvalidCalibrations.Add(1)
	case domain.IssueMissingData, domain.IssueInsufficientData:
		MissingData.Add(1)
	case domain.IssueStoreError:
		StoreErrors.Add(1)
	}
}

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "tankalert_evaluation_runs_total %d\n", EvaluationRuns.Load())
	fmt.Fprintf(w, "tankalert_tanks_evaluated_total %d\n", TanksEvaluated.Load())
	fmt.Fprintf(w, "tankalert_status_band_total{band=\"critical\"} %d\n", BandCritical.Load())
	fmt.Fprintf(w, "tankalert_status_band_total{band=\"low\"} %d\n", BandLow.Load())
	fmt.Fprintf(w, "tankalert_status_band_total{band=\"normal\"} %d\n", BandNormal.Load())
	fmt.Fprintf(w, "tankalert_status_band_total{band=\"unknown\"} %d\n", BandUnknown.Load())
	fmt.Fprintf(w, "tankalert_invalid_calibration_total %d\n", InvalidCalibrations.Load())
	fmt.Fprintf(w, "tankalert_missing_data_total %d\n", MissingData.Load())
	fmt.Fprintf(w, "tankalert_store_errors_total %d\n", StoreErrors.Load())
	fmt.Fprintf(w, "tankalert_alerts_raised_total %d\n", AlertsRaised.Load())
	fmt.Fprintf(w, "tankalert_alerts_deduplicated_total %d\n", AlertsDeduplicated.Load())
	fmt.Fprintf(w, "tankalert_alert_failures_total %d\n", AlertFailures.Load())
	fmt.Fprintf(w, "tankalert_status_log_success_total %d\n", StatusLogSuccess.Load())
	fmt.Fprintf(w, "tankalert_status_log_failures_total %d\n", StatusLogFailures.Load())
	fmt.Fprintf(w, "tankalert_status_published_total %d\n", StatusPublished.Load())
	fmt.Fprintf(w, "tankalert_status_publish_errors_total %d\n", StatusPublishErrors.Load())
	fmt.Fprintf(w, "tankalert_status_log_channel_drops_total %d\n", StatusLogChannelDrops.Load())
	fmt.Fprintf(w, "tankalert_alert_channel_drops_total %d\n", AlertChannelDrops.Load())
	fmt.Fprintf(w, "tankalert_publish_channel_drops_total %d\n", PublishChannelDrops.Load())
	fmt.Fprintf(w, "tankalert_stream_clients %d\n", StreamClients.Load())
	fmt.Fprintf(w, "tankalert_stream_drops_total %d\n", StreamDrops.Load())
}
