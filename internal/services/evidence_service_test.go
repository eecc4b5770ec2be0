package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fakeSatellite struct {
	calls    atomic.Int32
	byWindow func(from, to time.Time) (models.NDVIStats, error)
}

func (f *fakeSatellite) GetNDVIStats(_ context.Context, _ string, from, to time.Time) (models.NDVIStats, error) {
	f.calls.Add(1)
	return f.byWindow(from, to)
}

type fakeOCR struct {
	fields map[string]string
	err    error
}

func (f *fakeOCR) ExtractFields(context.Context, []byte, models.DocumentType) (map[string]string, error) {
	return f.fields, f.err
}

type fakeDocumentStore struct {
	documents map[string][]byte
}

func (f *fakeDocumentStore) GetDocument(_ context.Context, key string) ([]byte, error) {
	data, ok := f.documents[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return data, nil
}

func providerTestConfig() config.ProviderConfig {
	return config.ProviderConfig{
		BaselineDays:  90,
		CurrentDays:   14,
		CloudDegraded: 30,
		CloudPoor:     70,
	}
}

func healthyStats() models.NDVIStats {
	return models.NDVIStats{
		Mean:              0.65,
		Min:               0.30,
		Max:               0.85,
		HealthyPixelCount: 3800,
		ValidPixelCount:   4000,
		CloudCoverPercent: 5,
	}
}

// ============================================================================
// TEST SUITE 1: CLAIM EVIDENCE
// ============================================================================

func TestCollectClaimEvidence_JoinsBothWindows(t *testing.T) {
	incident := time.Now().Add(-48 * time.Hour).Unix()
	satellite := &fakeSatellite{byWindow: func(from, to time.Time) (models.NDVIStats, error) {
		if to.Unix() <= incident {
			return healthyStats(), nil // baseline window ends at the incident
		}
		stats := healthyStats()
		stats.Mean = 0.20
		return stats, nil
	}}
	collector := NewEvidenceCollector(satellite, &fakeOCR{}, &fakeDocumentStore{}, providerTestConfig())

	property := verifiedTestProperty("farmer-1")
	snapshot, err := collector.CollectClaimEvidence(context.Background(), property, incident)

	assert.NoError(t, err)
	assert.Equal(t, int32(2), satellite.calls.Load())
	assert.Len(t, snapshot.Bundles, 2)

	baseline, ok := snapshot.BySource(models.EvidenceSatelliteBaseline)
	assert.True(t, ok)
	assert.Equal(t, 0.65, baseline.RawMetrics["mean"])

	current, ok := snapshot.BySource(models.EvidenceSatelliteCurrent)
	assert.True(t, ok)
	assert.Equal(t, 0.20, current.RawMetrics["mean"])
}

func TestCollectClaimEvidence_BaselineFailureSurfaces(t *testing.T) {
	incident := time.Now().Add(-48 * time.Hour).Unix()
	satellite := &fakeSatellite{byWindow: func(from, to time.Time) (models.NDVIStats, error) {
		if to.Unix() <= incident {
			return models.NDVIStats{}, fmt.Errorf("provider unavailable")
		}
		return healthyStats(), nil
	}}
	collector := NewEvidenceCollector(satellite, &fakeOCR{}, &fakeDocumentStore{}, providerTestConfig())

	_, err := collector.CollectClaimEvidence(context.Background(), verifiedTestProperty("farmer-1"), incident)

	assert.ErrorIs(t, err, models.ErrEvidenceUnavailable)
	assert.Equal(t, "BASELINE_EVIDENCE_UNAVAILABLE", models.ReasonCode(err))
}

func TestCollectClaimEvidence_MissingBoundaryRejected(t *testing.T) {
	collector := NewEvidenceCollector(&fakeSatellite{}, &fakeOCR{}, &fakeDocumentStore{}, providerTestConfig())

	property := &models.Property{ID: uuid.New(), OwnerID: "farmer-1"}
	_, err := collector.CollectClaimEvidence(context.Background(), property, time.Now().Unix())

	assert.ErrorIs(t, err, models.ErrEvidenceUnavailable)
	assert.Equal(t, "MISSING_BOUNDARY", models.ReasonCode(err))
}

func TestCollectClaimEvidence_CloudCoverDegradesQuality(t *testing.T) {
	cases := []struct {
		cloudCover float64
		expected   models.EvidenceQuality
	}{
		{5, models.EvidenceQualityGood},
		{45, models.EvidenceQualityDegraded},
		{85, models.EvidenceQualityPoor},
	}

	for _, tc := range cases {
		satellite := &fakeSatellite{byWindow: func(time.Time, time.Time) (models.NDVIStats, error) {
			stats := healthyStats()
			stats.CloudCoverPercent = tc.cloudCover
			return stats, nil
		}}
		collector := NewEvidenceCollector(satellite, &fakeOCR{}, &fakeDocumentStore{}, providerTestConfig())

		snapshot, err := collector.CollectClaimEvidence(
			context.Background(), verifiedTestProperty("farmer-1"), time.Now().Add(-48*time.Hour).Unix())

		assert.NoError(t, err)
		assert.Equal(t, tc.expected, snapshot.LowestQuality(), "cloud cover %.0f%%", tc.cloudCover)
	}
}

func TestCollectClaimEvidence_NoValidPixelsIsPoor(t *testing.T) {
	satellite := &fakeSatellite{byWindow: func(time.Time, time.Time) (models.NDVIStats, error) {
		return models.NDVIStats{Mean: 0, ValidPixelCount: 0, CloudCoverPercent: 10}, nil
	}}
	collector := NewEvidenceCollector(satellite, &fakeOCR{}, &fakeDocumentStore{}, providerTestConfig())

	snapshot, err := collector.CollectClaimEvidence(
		context.Background(), verifiedTestProperty("farmer-1"), time.Now().Add(-48*time.Hour).Unix())

	assert.NoError(t, err)
	assert.Equal(t, models.EvidenceQualityPoor, snapshot.LowestQuality())
}

// ============================================================================
// TEST SUITE 2: VERIFICATION EVIDENCE
// ============================================================================

func TestCollectVerificationEvidence_HappyPath(t *testing.T) {
	documents := &fakeDocumentStore{documents: map[string][]byte{"doc-1": []byte("scan")}}
	ocr := &fakeOCR{fields: map[string]string{"owner_name": "Ramesh Kumar"}}
	collector := NewEvidenceCollector(&fakeSatellite{}, ocr, documents, providerTestConfig())

	snapshot, fields, err := collector.CollectVerificationEvidence(
		context.Background(), "doc-1", models.DocumentLandCertificate)

	assert.NoError(t, err)
	assert.Equal(t, "Ramesh Kumar", fields["owner_name"])

	bundle, ok := snapshot.BySource(models.EvidenceDocumentOCR)
	assert.True(t, ok)
	assert.Equal(t, models.EvidenceQualityGood, bundle.Quality)
	assert.Equal(t, 1.0, bundle.RawMetrics["extracted_field_count"])
}

func TestCollectVerificationEvidence_EmptyExtractionIsPoorNotError(t *testing.T) {
	documents := &fakeDocumentStore{documents: map[string][]byte{"doc-1": []byte("blurry scan")}}
	collector := NewEvidenceCollector(&fakeSatellite{}, &fakeOCR{fields: map[string]string{}}, documents, providerTestConfig())

	snapshot, fields, err := collector.CollectVerificationEvidence(
		context.Background(), "doc-1", models.DocumentLandCertificate)

	assert.NoError(t, err, "an unreadable document is a valid zero-match result")
	assert.Empty(t, fields)
	assert.Equal(t, models.EvidenceQualityPoor, snapshot.LowestQuality())
}

func TestCollectVerificationEvidence_MissingDocumentFails(t *testing.T) {
	collector := NewEvidenceCollector(&fakeSatellite{}, &fakeOCR{}, &fakeDocumentStore{}, providerTestConfig())

	_, _, err := collector.CollectVerificationEvidence(
		context.Background(), "no-such-key", models.DocumentLandCertificate)

	assert.ErrorIs(t, err, models.ErrEvidenceUnavailable)
	assert.Equal(t, "DOCUMENT_UNAVAILABLE", models.ReasonCode(err))
}

func TestCollectVerificationEvidence_OCRFailureSurfaces(t *testing.T) {
	documents := &fakeDocumentStore{documents: map[string][]byte{"doc-1": []byte("scan")}}
	ocr := &fakeOCR{err: fmt.Errorf("provider timeout")}
	collector := NewEvidenceCollector(&fakeSatellite{}, ocr, documents, providerTestConfig())

	_, _, err := collector.CollectVerificationEvidence(
		context.Background(), "doc-1", models.DocumentLandCertificate)

	assert.ErrorIs(t, err, models.ErrEvidenceUnavailable)
	assert.Equal(t, "OCR_UNAVAILABLE", models.ReasonCode(err))
}
