package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tank-monitor/analytics/internal/catalog"
	"tank-monitor/analytics/internal/config"
	"tank-monitor/analytics/internal/domain"
)

// PostgresStore reads the tank catalog and dip readings owned by the
// dashboard database and writes alert and status-log rows. Readings are
// never modified.
type PostgresStore struct {
	pool *pgxpool.Pool

	tanks     string
	readings  string
	alerts    string
	statusLog string

	cols readingColumns
}

// readingColumns names the reading table columns the queries filter and
// order on. Rows are renamed onto the canonical keys before decoding.
type readingColumns struct {
	tankID    string
	timestamp string
	seq       string
}

func (c readingColumns) canonicalize(row map[string]any) {
	for col, canonical := range map[string]string{
		c.tankID:    "tank_id",
		c.timestamp: "created_at",
		c.seq:       "seq",
	} {
		if col == canonical {
			continue
		}
		if v, ok := row[col]; ok {
			row[canonical] = v
		}
	}
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{
		pool:      pool,
		tanks:     pgx.Identifier{cfg.TanksTable}.Sanitize(),
		readings:  pgx.Identifier{cfg.ReadingsTable}.Sanitize(),
		alerts:    pgx.Identifier{cfg.AlertsTable}.Sanitize(),
		statusLog: cfg.StatusLogTable,
		cols: readingColumns{
			tankID:    cfg.ReadingsTankColumn,
			timestamp: cfg.ReadingsTimeColumn,
			seq:       cfg.ReadingsSeqColumn,
		},
	}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ListTanks returns every catalog row that maps onto a tank. Rows without an
// id are logged and skipped so one bad row cannot hide the rest.
func (s *PostgresStore) ListTanks(ctx context.Context) ([]domain.Tank, error) {
	rows, err := s.pool.Query(ctx, "SELECT * FROM "+s.tanks)
	if err != nil {
		return nil, fmt.Errorf("list tanks: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("list tanks: %w", err)
	}

	tanks := make([]domain.Tank, 0, len(raw))
	for _, row := range raw {
		t, err := catalog.TankFromRow(row)
		if err != nil {
			log.Printf("store: skipping catalog row: %v", err)
			continue
		}
		tanks = append(tanks, t)
	}
	return tanks, nil
}

func (s *PostgresStore) GetTank(ctx context.Context, id string) (domain.Tank, error) {
	rows, err := s.pool.Query(ctx, "SELECT * FROM "+s.tanks+" WHERE id::text = $1", id)
	if err != nil {
		return domain.Tank{}, fmt.Errorf("get tank %s: %w", id, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Tank{}, fmt.Errorf("%w: %s", domain.ErrTankNotFound, id)
	}
	if err != nil {
		return domain.Tank{}, fmt.Errorf("get tank %s: %w", id, err)
	}
	return catalog.TankFromRow(row)
}

// WindowReadings returns readings for one tank with the reading timestamp in
// [from, to], oldest first, the sequence column breaking ties.
func (s *PostgresStore) WindowReadings(ctx context.Context, tankID string, from, to time.Time) ([]domain.Reading, error) {
	tankCol, tsCol, seqCol := s.sanitizedColumns()
	query := "SELECT * FROM " + s.readings +
		" WHERE " + tankCol + "::text = $1" +
		" AND " + tsCol + " >= $2" +
		" AND " + tsCol + " <= $3" +
		" ORDER BY " + tsCol + ", " + seqCol

	rows, err := s.pool.Query(ctx, query, tankID, from, to)
	if err != nil {
		return nil, fmt.Errorf("window readings for %s: %w", tankID, err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("window readings for %s: %w", tankID, err)
	}
	return s.readingsFromRows(tankID, raw), nil
}

// LatestReading returns nil when the tank has never been dipped.
func (s *PostgresStore) LatestReading(ctx context.Context, tankID string) (*domain.Reading, error) {
	tankCol, tsCol, seqCol := s.sanitizedColumns()
	query := "SELECT * FROM " + s.readings +
		" WHERE " + tankCol + "::text = $1" +
		" ORDER BY " + tsCol + " DESC, " + seqCol + " DESC" +
		" LIMIT 1"

	rows, err := s.pool.Query(ctx, query, tankID)
	if err != nil {
		return nil, fmt.Errorf("latest reading for %s: %w", tankID, err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("latest reading for %s: %w", tankID, err)
	}
	readings := s.readingsFromRows(tankID, raw)
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0], nil
}

func (s *PostgresStore) sanitizedColumns() (tankID, ts, seq string) {
	return pgx.Identifier{s.cols.tankID}.Sanitize(),
		pgx.Identifier{s.cols.timestamp}.Sanitize(),
		pgx.Identifier{s.cols.seq}.Sanitize()
}

func (s *PostgresStore) readingsFromRows(tankID string, raw []map[string]any) []domain.Reading {
	out := make([]domain.Reading, 0, len(raw))
	for i, row := range raw {
		s.cols.canonicalize(row)
		r, err := catalog.ReadingFromRow(row)
		if err != nil {
			log.Printf("store: skipping reading row for %s: %v", tankID, err)
			continue
		}
		if r.Seq == 0 {
			r.Seq = int64(i)
		}
		out = append(out, r)
	}
	return out
}

func (s *PostgresStore) InsertAlert(ctx context.Context, a domain.Alert) error {
	query := "INSERT INTO " + s.alerts + `
			(id, tank_id, group_id, alert_type, severity, status_band, triggered_value, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`

	_, err := s.pool.Exec(
		ctx,
		query,
		a.ID,
		a.TankID,
		a.Group,
		string(a.Type),
		string(a.Severity),
		string(a.Band),
		a.Value,
		time.Unix(a.TriggeredAt, 0),
	)
	if err != nil {
		return fmt.Errorf("insert alert for %s: %w", a.TankID, err)
	}
	return nil
}

var statusLogColumns = []string{
	"as_of",
	"tank_id",
	"group_id",
	"current_level",
	"percent_full",
	"rate_per_day",
	"days_to_min",
	"status_band",
	"issue",
	"window_readings",
}

// BatchInsertStatus appends evaluated statuses to the status log consumed by
// the reporting digests.
func (s *PostgresStore) BatchInsertStatus(ctx context.Context, statuses []domain.FillStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(statuses))
	for i, st := range statuses {
		rows[i] = []interface{}{
			st.AsOf,
			st.TankID,
			st.Group,
			st.CurrentLevel,
			st.PercentFull,
			st.RatePerDay,
			st.DaysToMin,
			string(st.Band),
			string(st.Issue),
			st.WindowReadings,
		}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{s.statusLog},
		statusLogColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("CopyFrom failed for batch of %d: %w", len(statuses), err)
	}
	return nil
}
