package pipeline

import (
	"context"
	"log"
	"time"

	"tank-monitor/analytics/internal/domain"
	"tank-monitor/analytics/internal/metrics"
)

type Evaluator interface {
	EvaluateAll(ctx context.Context, group string) ([]domain.FillStatus, error)
}

// Scheduler re-evaluates the whole fleet on a fixed interval and hands each
// status to the dispatcher.
type Scheduler struct {
	eval     Evaluator
	dispatch *Dispatcher
	interval time.Duration
}

func NewScheduler(eval Evaluator, dispatch *Dispatcher, interval time.Duration) *Scheduler {
	return &Scheduler{eval: eval, dispatch: dispatch, interval: interval}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	statuses, err := s.eval.EvaluateAll(ctx, "")
	if err != nil {
		log.Printf("scheduler: evaluation failed: %v", err)
		return
	}
	metrics.EvaluationRuns.Add(1)

	for i := range statuses {
		s.dispatch.Dispatch(&statuses[i])
	}
	log.Printf("scheduler: evaluated %d tanks in %s", len(statuses), time.Since(start).Round(time.Millisecond))
}
