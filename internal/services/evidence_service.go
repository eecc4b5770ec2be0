package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"
)

type SatelliteProvider interface {
	GetNDVIStats(ctx context.Context, geometryWKT string, from, to time.Time) (models.NDVIStats, error)
}

type OCRProvider interface {
	ExtractFields(ctx context.Context, documentBytes []byte, documentType models.DocumentType) (map[string]string, error)
}

type DocumentStore interface {
	GetDocument(ctx context.Context, key string) ([]byte, error)
}

// EvidenceCollector gathers the evidence bundles a case needs before
// scoring. Provider calls are the pipeline's only suspension points; all
// retry and timeout handling lives in the provider clients.
type EvidenceCollector struct {
	satellite SatelliteProvider
	ocr       OCRProvider
	documents DocumentStore
	cfg       config.ProviderConfig
	now       func() time.Time
}

func NewEvidenceCollector(satellite SatelliteProvider, ocr OCRProvider, documents DocumentStore, cfg config.ProviderConfig) *EvidenceCollector {
	return &EvidenceCollector{
		satellite: satellite,
		ocr:       ocr,
		documents: documents,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CollectClaimEvidence fetches NDVI statistics for the historical baseline
// window and the current window over the property boundary. The two
// fetches run concurrently and are joined here; scoring never starts
// before both have completed. Both windows are mandatory: an exhausted
// source surfaces as EvidenceUnavailable.
func (c *EvidenceCollector) CollectClaimEvidence(ctx context.Context, property *models.Property, incidentDate int64) (models.EvidenceSnapshot, error) {
	if property.Boundary == nil {
		return models.EvidenceSnapshot{}, models.NewEvidenceUnavailableError(
			"MISSING_BOUNDARY", "property has no boundary geometry", nil)
	}

	geometryWKT, err := property.Boundary.ToWKT()
	if err != nil {
		return models.EvidenceSnapshot{}, models.NewEvidenceUnavailableError(
			"INVALID_BOUNDARY", "property boundary is not a usable polygon", err)
	}

	incident := time.Unix(incidentDate, 0).UTC()
	baselineFrom := incident.AddDate(0, 0, -c.cfg.BaselineDays)
	currentTo := c.now().UTC()
	currentFrom := currentTo.AddDate(0, 0, -c.cfg.CurrentDays)

	var (
		baseline    models.NDVIStats
		current     models.NDVIStats
		baselineErr error
		currentErr  error
	)

	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, err := c.satellite.GetNDVIStats(ctx, geometryWKT, baselineFrom, incident)
		mu.Lock()
		defer mu.Unlock()
		baseline, baselineErr = stats, err
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, err := c.satellite.GetNDVIStats(ctx, geometryWKT, currentFrom, currentTo)
		mu.Lock()
		defer mu.Unlock()
		current, currentErr = stats, err
	}()

	wg.Wait()

	if baselineErr != nil {
		slog.Error("baseline NDVI fetch failed", "property_id", property.ID, "error", baselineErr)
		return models.EvidenceSnapshot{}, models.NewEvidenceUnavailableError(
			"BASELINE_EVIDENCE_UNAVAILABLE", "could not retrieve baseline satellite evidence", baselineErr)
	}
	if currentErr != nil {
		slog.Error("current NDVI fetch failed", "property_id", property.ID, "error", currentErr)
		return models.EvidenceSnapshot{}, models.NewEvidenceUnavailableError(
			"CURRENT_EVIDENCE_UNAVAILABLE", "could not retrieve current satellite evidence", currentErr)
	}

	retrievedAt := c.now().UTC()
	snapshot := models.EvidenceSnapshot{
		Bundles: []models.EvidenceBundle{
			c.ndviBundle(models.EvidenceSatelliteBaseline, baseline, retrievedAt),
			c.ndviBundle(models.EvidenceSatelliteCurrent, current, retrievedAt),
		},
	}
	return snapshot, nil
}

func (c *EvidenceCollector) ndviBundle(source models.EvidenceSource, stats models.NDVIStats, retrievedAt time.Time) models.EvidenceBundle {
	quality := models.EvidenceQualityGood
	note := ""
	switch {
	case stats.CloudCoverPercent >= c.cfg.CloudPoor:
		quality = models.EvidenceQualityPoor
		note = fmt.Sprintf("cloud cover %.0f%% obscures the boundary", stats.CloudCoverPercent)
	case stats.CloudCoverPercent >= c.cfg.CloudDegraded:
		quality = models.EvidenceQualityDegraded
		note = fmt.Sprintf("cloud cover %.0f%%", stats.CloudCoverPercent)
	}
	if stats.ValidPixelCount == 0 {
		quality = models.EvidenceQualityPoor
		note = "no valid pixels in window"
	}

	return models.EvidenceBundle{
		SourceType: source,
		RawMetrics: models.MetricMap{
			"mean":                stats.Mean,
			"min":                 stats.Min,
			"max":                 stats.Max,
			"healthy_pixel_count": float64(stats.HealthyPixelCount),
			"valid_pixel_count":   float64(stats.ValidPixelCount),
			"cloud_cover_percent": stats.CloudCoverPercent,
		},
		Provider:    "satellite",
		Quality:     quality,
		QualityNote: note,
		RetrievedAt: retrievedAt,
	}
}

// CollectVerificationEvidence fetches the stored document and runs it
// through the OCR provider. An empty extraction is a valid result for an
// unreadable document; it scores as zero-match, not as a failure.
func (c *EvidenceCollector) CollectVerificationEvidence(ctx context.Context, documentKey string, documentType models.DocumentType) (models.EvidenceSnapshot, map[string]string, error) {
	documentBytes, err := c.documents.GetDocument(ctx, documentKey)
	if err != nil {
		return models.EvidenceSnapshot{}, nil, models.NewEvidenceUnavailableError(
			"DOCUMENT_UNAVAILABLE", "could not retrieve the submitted document", err)
	}

	fields, err := c.ocr.ExtractFields(ctx, documentBytes, documentType)
	if err != nil {
		slog.Error("OCR extraction failed", "document_key", documentKey, "error", err)
		return models.EvidenceSnapshot{}, nil, models.NewEvidenceUnavailableError(
			"OCR_UNAVAILABLE", "could not extract fields from the document", err)
	}

	quality := models.EvidenceQualityGood
	note := ""
	if len(fields) == 0 {
		quality = models.EvidenceQualityPoor
		note = "provider extracted no fields from the document"
	}

	metrics := models.MetricMap{"extracted_field_count": float64(len(fields))}
	bundle := models.EvidenceBundle{
		SourceType:  models.EvidenceDocumentOCR,
		RawMetrics:  metrics,
		Fields:      models.StringMap(fields),
		Provider:    "ocr",
		Quality:     quality,
		QualityNote: note,
		RetrievedAt: c.now().UTC(),
	}

	return models.EvidenceSnapshot{Bundles: []models.EvidenceBundle{bundle}}, fields, nil
}
