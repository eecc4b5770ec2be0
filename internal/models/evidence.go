package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ============================================================================
// EVIDENCE
// ============================================================================

// NDVIStats is the satellite provider's summary for one window over one
// boundary. Mean ranges roughly -1..+1.
type NDVIStats struct {
	Mean              float64 `json:"mean"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	HealthyPixelCount int     `json:"healthy_pixel_count"`
	ValidPixelCount   int     `json:"valid_pixel_count"`
	CloudCoverPercent float64 `json:"cloud_cover_percent"`
}

// EvidenceBundle is one retrieved evidence artifact with provenance.
type EvidenceBundle struct {
	SourceType  EvidenceSource  `json:"source_type"`
	RawMetrics  MetricMap       `json:"raw_metrics"`
	Fields      StringMap       `json:"fields,omitempty"`
	Provider    string          `json:"provider"`
	Quality     EvidenceQuality `json:"quality"`
	QualityNote string          `json:"quality_note,omitempty"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// EvidenceSnapshot is the full evidence set joined before scoring, persisted
// on the case record for audit replay.
type EvidenceSnapshot struct {
	Bundles []EvidenceBundle `json:"bundles"`
}

func (e EvidenceSnapshot) Value() (driver.Value, error) {
	if len(e.Bundles) == 0 {
		return nil, nil
	}
	return json.Marshal(e)
}

func (e *EvidenceSnapshot) Scan(value any) error {
	if value == nil {
		*e = EvidenceSnapshot{}
		return nil
	}
	return jsonbScan(value, e)
}

// BySource returns the first bundle with the given source type.
func (e *EvidenceSnapshot) BySource(source EvidenceSource) (EvidenceBundle, bool) {
	for _, b := range e.Bundles {
		if b.SourceType == source {
			return b, true
		}
	}
	return EvidenceBundle{}, false
}

// LowestQuality returns the worst quality across all bundles; an empty
// snapshot reports poor.
func (e *EvidenceSnapshot) LowestQuality() EvidenceQuality {
	if len(e.Bundles) == 0 {
		return EvidenceQualityPoor
	}
	rank := map[EvidenceQuality]int{
		EvidenceQualityGood:     0,
		EvidenceQualityDegraded: 1,
		EvidenceQualityPoor:     2,
	}
	worst := EvidenceQualityGood
	for _, b := range e.Bundles {
		if rank[b.Quality] > rank[worst] {
			worst = b.Quality
		}
	}
	return worst
}
