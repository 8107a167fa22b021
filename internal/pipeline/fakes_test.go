package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tank-monitor/analytics/internal/domain"
)

type fakeEvaluator struct {
	statuses []domain.FillStatus
	err      error
	calls    int
}

func (f *fakeEvaluator) EvaluateAll(ctx context.Context, group string) ([]domain.FillStatus, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.FillStatus, len(f.statuses))
	copy(out, f.statuses)
	return out, nil
}

type fakeStatusLog struct {
	mu       sync.Mutex
	failures int
	batches  [][]domain.FillStatus
	attempts int
}

func (f *fakeStatusLog) BatchInsertStatus(ctx context.Context, statuses []domain.FillStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return errors.New("copy failed")
	}
	f.batches = append(f.batches, append([]domain.FillStatus(nil), statuses...))
	return nil
}

func (f *fakeStatusLog) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type fakeStatusSink struct {
	mu        sync.Mutex
	published []domain.FillStatus
}

func (f *fakeStatusSink) PublishStatuses(ctx context.Context, statuses []domain.FillStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, statuses...)
	return nil
}

type fakeDedup struct {
	keys    map[string]bool
	cleared []string
	ttls    []time.Duration
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{keys: make(map[string]bool)}
}

func dedupKey(tankID string, t domain.AlertType) string {
	return fmt.Sprintf("%s/%s", tankID, t)
}

func (f *fakeDedup) CheckAlertDedup(ctx context.Context, tankID string, t domain.AlertType) (bool, error) {
	return f.keys[dedupKey(tankID, t)], nil
}

func (f *fakeDedup) SetAlertDedup(ctx context.Context, tankID string, t domain.AlertType, ttl time.Duration) error {
	f.keys[dedupKey(tankID, t)] = true
	f.ttls = append(f.ttls, ttl)
	return nil
}

func (f *fakeDedup) ClearAlertDedup(ctx context.Context, tankID string, t domain.AlertType) error {
	if f.keys[dedupKey(tankID, t)] {
		f.cleared = append(f.cleared, dedupKey(tankID, t))
	}
	delete(f.keys, dedupKey(tankID, t))
	return nil
}

type fakeRecorder struct {
	alerts []domain.Alert
	err    error
}

func (f *fakeRecorder) InsertAlert(ctx context.Context, a domain.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, a)
	return nil
}

type fakePublisher struct {
	alerts []domain.Alert
	err    error
}

func (f *fakePublisher) PublishAlert(ctx context.Context, a domain.Alert) error {
	f.alerts = append(f.alerts, a)
	return f.err
}
