package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "tank_user"),
		dbGetEnv("DB_PASSWORD", "tank_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "tank_alert"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to Postgres...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Postgres is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_extensions(ctx, conn)
	step2_tanks_table(ctx, conn)
	step3_readings_table(ctx, conn)
	step4_alerts_table(ctx, conn)
	step5_status_log_table(ctx, conn)
	step6_indexes(ctx, conn)
	step7_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run ./scripts/seed_redis")
}

// ─────────────────────────────────────────────────────────────
// Step 1: Extensions
// ─────────────────────────────────────────────────────────────
func step1_extensions(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: Extensions ──────────────────────────")

	// gen_random_uuid() for tank ids
	execOrFatal(ctx, conn,
		"CREATE EXTENSION IF NOT EXISTS pgcrypto;",
		"pgcrypto extension",
	)
}

// ─────────────────────────────────────────────────────────────
// Step 2: fuel_tanks table
// ─────────────────────────────────────────────────────────────
func step2_tanks_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: fuel_tanks table ────────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS fuel_tanks (
			id            UUID             PRIMARY KEY DEFAULT gen_random_uuid(),
			location      TEXT             NOT NULL,
			product_type  TEXT             NOT NULL DEFAULT '',

			-- Calibration. safe_level is the 100% mark; a NULL or
			-- non-positive value leaves the tank unclassifiable
			safe_level    DOUBLE PRECISION,
			min_level     DOUBLE PRECISION NOT NULL DEFAULT 0,

			-- Reporting scope, matched against API key scopes
			group_id      TEXT             NOT NULL DEFAULT '',
			subgroup      TEXT             NOT NULL DEFAULT '',

			created_at    TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "fuel_tanks table created")
}

// ─────────────────────────────────────────────────────────────
// Step 3: dip_readings table
// ─────────────────────────────────────────────────────────────
func step3_readings_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: dip_readings table ──────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS dip_readings (
			-- Insertion order, used to break created_at ties
			id            BIGSERIAL        PRIMARY KEY,
			tank_id       UUID             NOT NULL REFERENCES fuel_tanks (id) ON DELETE CASCADE,

			-- Level in the tank's own units (litres, cm, ...)
			value         DOUBLE PRECISION NOT NULL,
			created_at    TIMESTAMPTZ      NOT NULL,
			recorded_by   TEXT             NOT NULL DEFAULT ''
		);
	`, "dip_readings table created")
}

// ─────────────────────────────────────────────────────────────
// Step 4: tank_alerts table
// ─────────────────────────────────────────────────────────────
func step4_alerts_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: tank_alerts table ───────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS tank_alerts (
			-- uuid assigned by the alert evaluator
			id               TEXT             PRIMARY KEY,

			tank_id          TEXT             NOT NULL,
			group_id         TEXT             NOT NULL DEFAULT '',

			-- Must exactly match domain.AlertType / domain.AlertSeverity
			alert_type       TEXT             NOT NULL,
			severity         TEXT             NOT NULL,
			status_band      TEXT             NOT NULL,

			-- percent full or days to minimum, depending on alert_type
			triggered_value  DOUBLE PRECISION,

			created_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

			-- NULL means not yet acknowledged
			acknowledged_at  TIMESTAMPTZ,
			acknowledged_by  TEXT,

			CONSTRAINT chk_alert_type CHECK (
				alert_type IN ('TANK_CRITICAL', 'TANK_LOW', 'TANK_DEFICIT', 'TANK_BAD_CALIBRATION')
			),
			CONSTRAINT chk_severity CHECK (
				severity IN ('INFO', 'WARNING', 'CRITICAL')
			)
		);
	`, "tank_alerts table created")
}

// ─────────────────────────────────────────────────────────────
// Step 5: tank_status_log table
// ─────────────────────────────────────────────────────────────
func step5_status_log_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 5: tank_status_log table ───────────────")

	// Append-only; one row per tank per evaluation run.
	// Undefined metrics are stored as NULL, never 0.
	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS tank_status_log (
			as_of            TIMESTAMPTZ      NOT NULL,
			tank_id          TEXT             NOT NULL,
			group_id         TEXT             NOT NULL DEFAULT '',
			current_level    DOUBLE PRECISION,
			percent_full     DOUBLE PRECISION,
			rate_per_day     DOUBLE PRECISION,
			days_to_min      DOUBLE PRECISION,
			status_band      TEXT             NOT NULL,
			issue            TEXT             NOT NULL DEFAULT '',
			window_readings  INTEGER          NOT NULL DEFAULT 0
		);
	`, "tank_status_log table created")
}

// ─────────────────────────────────────────────────────────────
// Step 6: Indexes
// ─────────────────────────────────────────────────────────────
func step6_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 6: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_readings_tank_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_readings_tank_time
				  ON dip_readings (tank_id, created_at DESC, id DESC);`,
			why: "query: window + latest reading for one tank",
		},
		{
			name: "idx_tanks_group",
			sql: `CREATE INDEX IF NOT EXISTS idx_tanks_group
				  ON fuel_tanks (group_id);`,
			why: "query: tanks in a reporting group",
		},
		{
			name: "idx_alerts_tank",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_tank
				  ON tank_alerts (tank_id, created_at DESC);`,
			why: "query: alerts for one tank",
		},
		{
			name: "idx_alerts_unacknowledged",
			sql: `CREATE INDEX IF NOT EXISTS idx_alerts_unacknowledged
				  ON tank_alerts (group_id, created_at DESC)
				  WHERE acknowledged_at IS NULL;`,
			why: "query: unacknowledged alerts only (partial index)",
		},
		{
			name: "idx_status_log_tank_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_status_log_tank_time
				  ON tank_status_log (tank_id, as_of DESC);`,
			why: "query: status history for one tank",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-40s ← %s", idx.name, idx.why),
		)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 7: Verify everything was created
// ─────────────────────────────────────────────────────────────
func step7_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 7: Verification ────────────────────────")

	tables := []string{"fuel_tanks", "dip_readings", "tank_alerts", "tank_status_log"}
	for _, table := range tables {
		var exists bool
		err := conn.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&exists)
		if err != nil || !exists {
			log.Fatalf("Table %s was not created: %v", table, err)
		}
		fmt.Printf("  ✓ table: %s\n", table)
	}

	var indexCount int
	err := conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = ANY($1)
		AND indexname LIKE 'idx_%'
	`, tables).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

// execOrFatal runs a SQL statement and prints result or exits on error
func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED: %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
