// Package market defines the observation row shared by every sink in the
// pipeline. A row is created once at fetch or synthesis time and written to
// its four destinations without alteration.
package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// Row is one observation: a UTC timestamp plus the fixed measurement
// fields. The field set is the contract for the columnar artifact and the
// durable store schema; changing it is a migration, not an edit.
type Row struct {
	ScrapedAt time.Time
	Value1    float64
	Value2    int64
}

// NewRow stamps a row at t, truncated to second precision in UTC so the
// JSON encoding round-trips exactly.
func NewRow(t time.Time, value1 float64, value2 int64) Row {
	return Row{
		ScrapedAt: t.UTC().Truncate(time.Second),
		Value1:    value1,
		Value2:    value2,
	}
}

type rowJSON struct {
	ScrapedAt string  `json:"scraped_at"`
	Value1    float64 `json:"value1"`
	Value2    int64   `json:"value2"`
}

// MarshalJSON renders the canonical encoding: ISO-8601 seconds precision
// with a trailing Z.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		ScrapedAt: r.ScrapedAt.UTC().Format(time.RFC3339),
		Value1:    r.Value1,
		Value2:    r.Value2,
	})
}

// UnmarshalJSON parses the canonical encoding produced by MarshalJSON.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw rowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339, raw.ScrapedAt)
	if err != nil {
		return fmt.Errorf("parse scraped_at: %w", err)
	}
	r.ScrapedAt = ts.UTC()
	r.Value1 = raw.Value1
	r.Value2 = raw.Value2
	return nil
}

// rowFields is the declared schema, used to reject malformed generic rows.
var rowFields = []string{"scraped_at", "value1", "value2"}

// FromMap builds a Row from a generic field map, rejecting any map whose
// field set does not match the declared schema. There is no silent
// coercion: missing fields, unknown fields, and ill-typed values all fail.
func FromMap(fields map[string]any) (Row, error) {
	for _, name := range rowFields {
		if _, ok := fields[name]; !ok {
			return Row{}, fmt.Errorf("row missing field %q", name)
		}
	}
	if len(fields) != len(rowFields) {
		for name := range fields {
			known := false
			for _, f := range rowFields {
				if name == f {
					known = true
					break
				}
			}
			if !known {
				return Row{}, fmt.Errorf("row has unknown field %q", name)
			}
		}
	}

	scrapedAt, ok := fields["scraped_at"].(string)
	if !ok {
		return Row{}, fmt.Errorf("scraped_at must be an ISO-8601 string, got %T", fields["scraped_at"])
	}
	ts, err := time.Parse(time.RFC3339, scrapedAt)
	if err != nil {
		return Row{}, fmt.Errorf("parse scraped_at: %w", err)
	}

	value1, err := asFloat(fields["value1"])
	if err != nil {
		return Row{}, fmt.Errorf("value1: %w", err)
	}
	value2, err := asInt(fields["value2"])
	if err != nil {
		return Row{}, fmt.Errorf("value2: %w", err)
	}

	return Row{ScrapedAt: ts.UTC(), Value1: value1, Value2: value2}, nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("expected integer, got fractional %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
