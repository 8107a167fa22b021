// Package catalog normalises raw catalog and reading rows into the canonical
// domain schema. Stores hand rows over as column maps; nothing past this
// package sees the source column names.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"tank-monitor/analytics/internal/domain"
)

var ErrMissingField = errors.New("missing required field")

// Column aliases in order of preference.
var (
	tankIDFields      = []string{"id", "tank_id"}
	locationFields    = []string{"location", "name", "tank_name"}
	productFields     = []string{"product_type", "product", "fuel_type"}
	safeLevelFields   = []string{"safe_level", "capacity", "safe_fill", "max_level"}
	minLevelFields    = []string{"min_level", "minimum_level", "min_fill"}
	groupFields       = []string{"group_id", "group_name", "group"}
	subgroupFields    = []string{"subgroup", "subgroup_name", "sub_group"}
	readingTankFields = []string{"tank_id", "fuel_tank_id"}
	valueFields       = []string{"value", "dip_value", "level", "reading"}
	timestampFields   = []string{"created_at", "timestamp", "recorded_at", "reading_at"}
	recordedByFields  = []string{"recorded_by", "created_by_name", "source", "created_by"}
	seqFields         = []string{"seq", "id"}
)

// TankFromRow builds a canonical Tank. A missing or unparsable safe level is
// not an error here: the analytics core reports it as invalid calibration.
func TankFromRow(row map[string]any) (domain.Tank, error) {
	id, ok := stringField(row, tankIDFields)
	if !ok || id == "" {
		return domain.Tank{}, fmt.Errorf("%w: tank id", ErrMissingField)
	}

	t := domain.Tank{ID: id}
	t.Location, _ = stringField(row, locationFields)
	t.ProductType, _ = stringField(row, productFields)
	t.Group, _ = stringField(row, groupFields)
	t.Subgroup, _ = stringField(row, subgroupFields)

	if v, ok := floatField(row, safeLevelFields); ok {
		t.SafeLevel = &v
	}
	if v, ok := floatField(row, minLevelFields); ok {
		t.MinLevel = v
	}
	return t, nil
}

func ReadingFromRow(row map[string]any) (domain.Reading, error) {
	tankID, ok := stringField(row, readingTankFields)
	if !ok || tankID == "" {
		return domain.Reading{}, fmt.Errorf("%w: reading tank id", ErrMissingField)
	}
	value, ok := floatField(row, valueFields)
	if !ok {
		return domain.Reading{}, fmt.Errorf("%w: reading value for tank %s", ErrMissingField, tankID)
	}
	ts, ok := timeField(row, timestampFields)
	if !ok {
		return domain.Reading{}, fmt.Errorf("%w: reading timestamp for tank %s", ErrMissingField, tankID)
	}

	r := domain.Reading{TankID: tankID, Value: value, Timestamp: ts}
	r.RecordedBy, _ = stringField(row, recordedByFields)
	if seq, ok := floatField(row, seqFields); ok {
		r.Seq = int64(seq)
	}
	return r, nil
}

func lookup(row map[string]any, names []string) (any, bool) {
	for _, name := range names {
		if v, ok := row[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(row map[string]any, names []string) (string, bool) {
	v, ok := lookup(row, names)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case [16]byte:
		return uuid.UUID(s).String(), true
	case pgtype.UUID:
		if !s.Valid {
			return "", false
		}
		return uuid.UUID(s.Bytes).String(), true
	case pgtype.Text:
		return strings.TrimSpace(s.String), s.Valid
	case fmt.Stringer:
		return s.String(), true
	case int64, int32, int:
		return fmt.Sprintf("%d", s), true
	default:
		return "", false
	}
}

func floatField(row map[string]any, names []string) (float64, bool) {
	v, ok := lookup(row, names)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func timeField(row map[string]any, names []string) (time.Time, bool) {
	v, ok := lookup(row, names)
	if !ok {
		return time.Time{}, false
	}
	switch ts := v.(type) {
	case time.Time:
		return ts, true
	case pgtype.Timestamptz:
		return ts.Time, ts.Valid
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
