package pipeline

import (
	"context"
	"log"
	"time"

	"tank-monitor/analytics/internal/domain"
	"tank-monitor/analytics/internal/metrics"
)

type StatusSink interface {
	PublishStatuses(ctx context.Context, statuses []domain.FillStatus) error
}

// StatusPublisher fans evaluated statuses out to live dashboards.
type StatusPublisher struct {
	ch   <-chan *domain.FillStatus
	sink StatusSink
}

func NewStatusPublisher(ch <-chan *domain.FillStatus, sink StatusSink) *StatusPublisher {
	return &StatusPublisher{ch: ch, sink: sink}
}

func (p *StatusPublisher) Run(ctx context.Context) {
	batch := make([]domain.FillStatus, 0, 100)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-p.ch:
			if !ok {
				p.flush(context.WithoutCancel(ctx), batch)
				return
			}
			batch = append(batch, *st)
			if len(batch) >= 100 {
				p.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			p.flush(context.WithoutCancel(ctx), batch)
			return
		}
	}
}

func (p *StatusPublisher) flush(ctx context.Context, batch []domain.FillStatus) {
	if len(batch) == 0 {
		return
	}
	if err := p.sink.PublishStatuses(ctx, batch); err != nil {
		log.Printf("status publisher: publish failed (batch=%d): %v", len(batch), err)
		metrics.StatusPublishErrors.Add(int64(len(batch)))
		return
	}
	metrics.StatusPublished.Add(int64(len(batch)))
}
