package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tank-monitor/analytics/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, 1, 1)
	st := &domain.FillStatus{TankID: "t1"}

	d.Dispatch(st)
	d.Dispatch(st)

	assert.Len(t, d.LogChan, 1)
	assert.Len(t, d.AlertChan, 1)
	assert.Len(t, d.PublishChan, 1)
}

func TestSchedulerRunOnceDispatchesEveryStatus(t *testing.T) {
	eval := &fakeEvaluator{statuses: []domain.FillStatus{{TankID: "a"}, {TankID: "b"}}}
	d := NewDispatcher(10, 10, 10)

	NewScheduler(eval, d, time.Minute).RunOnce(context.Background())

	require.Len(t, d.LogChan, 2)
	assert.Equal(t, "a", (<-d.LogChan).TankID)
	assert.Equal(t, "b", (<-d.LogChan).TankID)
	assert.Len(t, d.AlertChan, 2)
}

func TestSchedulerRunOnceSurvivesEvaluationError(t *testing.T) {
	eval := &fakeEvaluator{err: errors.New("catalog down")}
	d := NewDispatcher(10, 10, 10)

	NewScheduler(eval, d, time.Minute).RunOnce(context.Background())

	assert.Equal(t, 1, eval.calls)
	assert.Empty(t, d.LogChan)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	eval := &fakeEvaluator{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		NewScheduler(eval, NewDispatcher(1, 1, 1), time.Hour).Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStatusLogWriterFlushesOnBatchSizeAndClose(t *testing.T) {
	ch := make(chan *domain.FillStatus, 10)
	db := &fakeStatusLog{}
	w := NewStatusLogWriter(ch, db, 2, 60000)

	for _, id := range []string{"a", "b", "c"} {
		ch <- &domain.FillStatus{TankID: id}
	}
	close(ch)
	w.Run(context.Background())

	require.Len(t, db.batches, 2)
	assert.Len(t, db.batches[0], 2)
	assert.Len(t, db.batches[1], 1)
	assert.Equal(t, 3, db.rows())
}

func TestStatusLogWriterRetriesOnce(t *testing.T) {
	db := &fakeStatusLog{failures: 1}
	w := NewStatusLogWriter(nil, db, 10, 1000)
	w.retryDelay = 0

	w.flush(context.Background(), []domain.FillStatus{{TankID: "a"}})

	assert.Equal(t, 2, db.attempts)
	assert.Equal(t, 1, db.rows())
}

func TestStatusLogWriterGivesUpAfterRetry(t *testing.T) {
	db := &fakeStatusLog{failures: 5}
	w := NewStatusLogWriter(nil, db, 10, 1000)
	w.retryDelay = 0

	w.flush(context.Background(), []domain.FillStatus{{TankID: "a"}})

	assert.Equal(t, 2, db.attempts)
	assert.Zero(t, db.rows())
}

func TestStatusPublisherFlushesOnClose(t *testing.T) {
	ch := make(chan *domain.FillStatus, 3)
	sink := &fakeStatusSink{}
	ch <- &domain.FillStatus{TankID: "a"}
	ch <- &domain.FillStatus{TankID: "b"}
	close(ch)

	NewStatusPublisher(ch, sink).Run(context.Background())

	require.Len(t, sink.published, 2)
	assert.Equal(t, "b", sink.published[1].TankID)
}

func newEvaluator(dedup *fakeDedup, rec *fakeRecorder, pubs ...AlertPublisher) *AlertEvaluator {
	e := NewAlertEvaluator(nil, dedup, rec, time.Hour, pubs...)
	e.now = func() time.Time { return time.Unix(1760000000, 0) }
	return e
}

func TestAlertEvaluatorRaisesAndPublishes(t *testing.T) {
	dedup := newFakeDedup()
	rec := &fakeRecorder{}
	redisPub, mqttPub := &fakePublisher{}, &fakePublisher{}
	e := newEvaluator(dedup, rec, redisPub, mqttPub)

	e.evaluate(context.Background(), &domain.FillStatus{
		TankID:      "t1",
		Group:       "wa",
		Location:    "Kewdale",
		Band:        domain.BandCritical,
		PercentFull: f(9.5),
		DaysToMin:   f(-1),
	})

	require.Len(t, rec.alerts, 2)
	assert.Equal(t, domain.AlertTankCritical, rec.alerts[0].Type)
	assert.Equal(t, domain.SeverityCritical, rec.alerts[0].Severity)
	assert.Equal(t, 9.5, *rec.alerts[0].Value)
	assert.Equal(t, int64(1760000000), rec.alerts[0].TriggeredAt)
	assert.NotEmpty(t, rec.alerts[0].ID)
	assert.Equal(t, domain.AlertTankDeficit, rec.alerts[1].Type)
	assert.Equal(t, -1.0, *rec.alerts[1].Value)

	assert.Len(t, redisPub.alerts, 2)
	assert.Len(t, mqttPub.alerts, 2)
	assert.Equal(t, []time.Duration{time.Hour, time.Hour}, dedup.ttls)
}

func TestAlertEvaluatorDeduplicates(t *testing.T) {
	dedup := newFakeDedup()
	rec := &fakeRecorder{}
	e := newEvaluator(dedup, rec)
	st := &domain.FillStatus{TankID: "t1", Band: domain.BandLow, PercentFull: f(22)}

	e.evaluate(context.Background(), st)
	e.evaluate(context.Background(), st)

	assert.Len(t, rec.alerts, 1)
}

func TestAlertEvaluatorClearsDedupOnRecovery(t *testing.T) {
	dedup := newFakeDedup()
	rec := &fakeRecorder{}
	e := newEvaluator(dedup, rec)

	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t1", Band: domain.BandLow, PercentFull: f(22)})
	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t1", Band: domain.BandNormal, PercentFull: f(80)})
	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t1", Band: domain.BandLow, PercentFull: f(21)})

	assert.Len(t, rec.alerts, 2)
	assert.Equal(t, []string{"t1/TANK_LOW"}, dedup.cleared)
}

func TestAlertEvaluatorKeepsDedupOnStoreError(t *testing.T) {
	dedup := newFakeDedup()
	rec := &fakeRecorder{}
	e := newEvaluator(dedup, rec)

	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t1", Band: domain.BandLow, PercentFull: f(22)})
	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t1", Band: domain.BandUnknown, Issue: domain.IssueStoreError})
	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t1", Band: domain.BandLow, PercentFull: f(22)})

	assert.Len(t, rec.alerts, 1)
	assert.Empty(t, dedup.cleared)
}

func TestAlertEvaluatorSkipsPublishWhenInsertFails(t *testing.T) {
	dedup := newFakeDedup()
	rec := &fakeRecorder{err: errors.New("insert failed")}
	pub := &fakePublisher{}
	e := newEvaluator(dedup, rec, pub)

	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t1", Band: domain.BandCritical, PercentFull: f(5)})

	assert.Empty(t, pub.alerts)
	assert.Empty(t, dedup.keys, "failed alerts must be retried next run")
}

func TestAlertEvaluatorBadCalibration(t *testing.T) {
	rec := &fakeRecorder{}
	e := newEvaluator(newFakeDedup(), rec)

	e.evaluate(context.Background(), &domain.FillStatus{TankID: "t9", Band: domain.BandUnknown, Issue: domain.IssueInvalidCalibration})

	require.Len(t, rec.alerts, 1)
	assert.Equal(t, domain.AlertTankBadCalibration, rec.alerts[0].Type)
	assert.Nil(t, rec.alerts[0].Value)
}
