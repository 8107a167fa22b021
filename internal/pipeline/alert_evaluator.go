package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"tank-monitor/analytics/internal/domain"
	"tank-monitor/analytics/internal/metrics"
)

type AlertDeduper interface {
	CheckAlertDedup(ctx context.Context, tankID string, alertType domain.AlertType) (bool, error)
	SetAlertDedup(ctx context.Context, tankID string, alertType domain.AlertType, ttl time.Duration) error
	ClearAlertDedup(ctx context.Context, tankID string, alertType domain.AlertType) error
}

type AlertRecorder interface {
	InsertAlert(ctx context.Context, a domain.Alert) error
}

type AlertPublisher interface {
	PublishAlert(ctx context.Context, a domain.Alert) error
}

type AlertEvaluator struct {
	ch         <-chan *domain.FillStatus
	dedup      AlertDeduper
	db         AlertRecorder
	publishers []AlertPublisher
	rules      []domain.AlertRule
	ttl        time.Duration
	now        func() time.Time
}

func NewAlertEvaluator(
	ch <-chan *domain.FillStatus,
	dedup AlertDeduper,
	db AlertRecorder,
	ttl time.Duration,
	publishers ...AlertPublisher,
) *AlertEvaluator {
	return &AlertEvaluator{
		ch:         ch,
		dedup:      dedup,
		db:         db,
		publishers: publishers,
		rules:      domain.DefaultAlertRules,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (e *AlertEvaluator) Run(ctx context.Context) {
	for {
		select {
		case st, ok := <-e.ch:
			if !ok {
				return
			}
			e.evaluate(ctx, st)

		case <-ctx.Done():
			return
		}
	}
}

func (e *AlertEvaluator) evaluate(ctx context.Context, st *domain.FillStatus) {
	for _, rule := range e.rules {
		if !rule.Evaluator(st) {
			// Store failures say nothing about the tank, so keep dedup state.
			if st.Issue != domain.IssueStoreError {
				if err := e.dedup.ClearAlertDedup(ctx, st.TankID, rule.Type); err != nil {
					log.Printf("alerts: dedup clear failed for %s/%s: %v", st.TankID, rule.Type, err)
				}
			}
			continue
		}

		isDuplicate, err := e.dedup.CheckAlertDedup(ctx, st.TankID, rule.Type)
		if err != nil {
			log.Printf("alerts: dedup check failed for %s/%s: %v", st.TankID, rule.Type, err)
			metrics.AlertFailures.Add(1)
			continue
		}
		if isDuplicate {
			metrics.AlertsDeduplicated.Add(1)
			continue
		}

		alert := domain.Alert{
			ID:          uuid.NewString(),
			TankID:      st.TankID,
			Group:       st.Group,
			Location:    st.Location,
			Type:        rule.Type,
			Severity:    rule.Severity,
			Band:        st.Band,
			Value:       rule.Value(st),
			TriggeredAt: e.now().Unix(),
		}

		if err := e.db.InsertAlert(ctx, alert); err != nil {
			log.Printf("alerts: insert failed for %s: %v", st.TankID, err)
			metrics.AlertFailures.Add(1)
			continue
		}

		if err := e.dedup.SetAlertDedup(ctx, st.TankID, rule.Type, e.ttl); err != nil {
			log.Printf("alerts: dedup set failed for %s/%s: %v", st.TankID, rule.Type, err)
		}

		for _, p := range e.publishers {
			if err := p.PublishAlert(ctx, alert); err != nil {
				log.Printf("alerts: publish failed for %s: %v", st.TankID, err)
			}
		}
		metrics.AlertsRaised.Add(1)
	}
}
