package models

import (
	"database/sql/driver"
	"encoding/json"
)

// ============================================================================
// DECISION
// ============================================================================

// DecisionResult is the classifier's output for one case.
type DecisionResult struct {
	Band        DecisionBand `json:"band"`
	Score       float64      `json:"score"`
	ReasonCodes []string     `json:"reason_codes"`
	Explanation string       `json:"explanation"`
}

// FraudAssessment is the sentinel's annotation. It never rejects by itself.
type FraudAssessment struct {
	Flagged   bool    `json:"flagged"`
	Deviation float64 `json:"deviation"`
	Note      string  `json:"note,omitempty"`
}

// StringSlice stores an ordered list of reason codes in a jsonb column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	return jsonbScan(value, s)
}
