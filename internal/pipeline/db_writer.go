package pipeline

import (
	"context"
	"log"
	"time"

	"tank-monitor/analytics/internal/domain"
	"tank-monitor/analytics/internal/metrics"
)

type StatusLog interface {
	BatchInsertStatus(ctx context.Context, statuses []domain.FillStatus) error
}

// StatusLogWriter batches evaluated statuses into the status log table.
type StatusLogWriter struct {
	ch         <-chan *domain.FillStatus
	db         StatusLog
	batchSize  int
	flushMS    int
	retryDelay time.Duration
}

func NewStatusLogWriter(
	ch <-chan *domain.FillStatus,
	db StatusLog,
	batchSize int,
	flushMS int,
) *StatusLogWriter {
	return &StatusLogWriter{
		ch:         ch,
		db:         db,
		batchSize:  batchSize,
		flushMS:    flushMS,
		retryDelay: 500 * time.Millisecond,
	}
}

func (w *StatusLogWriter) Run(ctx context.Context) {
	batch := make([]domain.FillStatus, 0, w.batchSize)
	ticker := time.NewTicker(time.Duration(w.flushMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-w.ch:
			if !ok {
				if len(batch) > 0 {
					w.flush(context.WithoutCancel(ctx), batch)
				}
				return
			}
			batch = append(batch, *st)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(context.WithoutCancel(ctx), batch)
			}
			return
		}
	}
}

func (w *StatusLogWriter) flush(ctx context.Context, batch []domain.FillStatus) {
	err := w.db.BatchInsertStatus(ctx, batch)
	if err != nil {
		log.Printf("status log: write failed (batch=%d), retrying: %v", len(batch), err)
		time.Sleep(w.retryDelay)
		err = w.db.BatchInsertStatus(ctx, batch)
		if err != nil {
			log.Printf("status log: write permanently failed (batch=%d): %v", len(batch), err)
			metrics.StatusLogFailures.Add(int64(len(batch)))
			return
		}
	}
	metrics.StatusLogSuccess.Add(int64(len(batch)))
}
