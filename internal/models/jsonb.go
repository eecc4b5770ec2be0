package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB wraps any value serialized into a jsonb column.
func jsonbValue(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func jsonbScan(src any, dst any) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("jsonb: Scan failed, expected []byte but got %T", src)
	}
	return json.Unmarshal(b, dst)
}

type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	return jsonbScan(value, j)
}

// MetricMap holds numeric evidence metrics in a jsonb column.
type MetricMap map[string]float64

func (m MetricMap) Value() (driver.Value, error) { return jsonbValue(map[string]float64(m)) }

func (m *MetricMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	return jsonbScan(value, m)
}

// StringMap holds extracted document fields in a jsonb column.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) { return jsonbValue(map[string]string(m)) }

func (m *StringMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	return jsonbScan(value, m)
}

// StageTimestamps maps stage name to the unix-millisecond instant the case
// entered that stage.
type StageTimestamps map[CaseStage]int64

func (s StageTimestamps) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StageTimestamps) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	return jsonbScan(value, s)
}
