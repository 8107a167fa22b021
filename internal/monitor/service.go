// Package monitor builds per-tank snapshots from the reading store and tank
// catalog and runs them through the analytics core. Nothing is cached
// between calls: each request reads fresh rows and evaluates them.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"tank-monitor/analytics/internal/analytics"
	"tank-monitor/analytics/internal/domain"
	"tank-monitor/analytics/internal/metrics"
)

type TankCatalog interface {
	ListTanks(ctx context.Context) ([]domain.Tank, error)
	GetTank(ctx context.Context, id string) (domain.Tank, error)
}

type ReadingStore interface {
	WindowReadings(ctx context.Context, tankID string, from, to time.Time) ([]domain.Reading, error)
	LatestReading(ctx context.Context, tankID string) (*domain.Reading, error)
}

type Service struct {
	catalog  TankCatalog
	readings ReadingStore
	params   analytics.Params
	workers  int
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewService(catalog TankCatalog, readings ReadingStore, params analytics.Params, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		readings: readings,
		params:   params,
		workers:  4,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateTank returns the fill status of a single tank as of now. A tank
// outside group ("" for all) is reported as not found without reading it.
func (s *Service) EvaluateTank(ctx context.Context, id, group string) (domain.FillStatus, error) {
	tank, err := s.catalog.GetTank(ctx, id)
	if err != nil {
		return domain.FillStatus{}, err
	}
	if !tank.InScope(group) {
		return domain.FillStatus{}, fmt.Errorf("%w: %s", domain.ErrTankNotFound, id)
	}
	snap, err := s.snapshot(ctx, tank, s.now().UTC())
	if err != nil {
		return domain.FillStatus{}, err
	}
	st := analytics.Evaluate(snap, s.params)
	s.observe(tank, &st)
	return st, nil
}

// EvaluateAll evaluates every tank visible to group ("" for all) in
// parallel. A store failure on one tank marks only that tank; the call
// fails only if the catalog cannot be listed or ctx is cancelled.
func (s *Service) EvaluateAll(ctx context.Context, group string) ([]domain.FillStatus, error) {
	tanks, err := s.catalog.ListTanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tanks: %w", err)
	}

	var scoped []domain.Tank
	for _, t := range tanks {
		if t.InScope(group) {
			scoped = append(scoped, t)
		}
	}

	asOf := s.now().UTC()
	out := make([]domain.FillStatus, len(scoped))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, t := range scoped {
		g.Go(func() error {
			snap, err := s.snapshot(gctx, t, asOf)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("monitor: tank %s: %v", t.ID, err)
				out[i] = storeErrorStatus(t, asOf)
			} else {
				out[i] = analytics.Evaluate(snap, s.params)
			}
			s.observe(t, &out[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TankID < out[j].TankID })
	return out, nil
}

type Digest struct {
	AsOf      time.Time           `json:"as_of"`
	Summary   analytics.Summary   `json:"summary"`
	Attention []domain.FillStatus `json:"attention"`
}

// Digest lists the tanks needing attention, worst first, for the periodic
// report senders.
func (s *Service) Digest(ctx context.Context, group string) (Digest, error) {
	statuses, err := s.EvaluateAll(ctx, group)
	if err != nil {
		return Digest{}, err
	}

	d := Digest{
		AsOf:    s.now().UTC(),
		Summary: analytics.Summarize(statuses),
	}
	for _, st := range statuses {
		if st.Band != domain.BandNormal {
			d.Attention = append(d.Attention, st)
		}
	}
	if len(statuses) > 0 {
		d.AsOf = statuses[0].AsOf
	}
	sort.SliceStable(d.Attention, func(i, j int) bool {
		a, b := d.Attention[i], d.Attention[j]
		if a.Band.Severity() != b.Band.Severity() {
			return a.Band.Severity() > b.Band.Severity()
		}
		switch {
		case a.DaysToMin != nil && b.DaysToMin != nil && *a.DaysToMin != *b.DaysToMin:
			return *a.DaysToMin < *b.DaysToMin
		case a.DaysToMin != nil && b.DaysToMin == nil:
			return true
		case a.DaysToMin == nil && b.DaysToMin != nil:
			return false
		}
		return a.TankID < b.TankID
	})
	return d, nil
}

func (s *Service) snapshot(ctx context.Context, t domain.Tank, asOf time.Time) (domain.Snapshot, error) {
	readings, err := s.readings.WindowReadings(ctx, t.ID, asOf.Add(-s.params.Window), asOf)
	if err != nil {
		return domain.Snapshot{}, err
	}
	latest, err := s.readings.LatestReading(ctx, t.ID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{Tank: t, Readings: readings, Latest: latest, AsOf: asOf}, nil
}

// observe counts the status and logs catalog defects on every evaluation.
func (s *Service) observe(t domain.Tank, st *domain.FillStatus) {
	metrics.ObserveStatus(st)
	if st.Issue == domain.IssueInvalidCalibration {
		log.Printf("monitor: tank %s (%s): %v", t.ID, t.Location, analytics.ValidateCalibration(t))
	}
}

func storeErrorStatus(t domain.Tank, asOf time.Time) domain.FillStatus {
	return domain.FillStatus{
		TankID:      t.ID,
		Location:    t.Location,
		ProductType: t.ProductType,
		Group:       t.Group,
		Subgroup:    t.Subgroup,
		AsOf:        asOf,
		Band:        domain.BandUnknown,
		Issue:       domain.IssueStoreError,
	}
}

// IsNotFound reports whether err means the tank does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrTankNotFound)
}
