package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"
)

// SatelliteClient fetches NDVI statistics over a boundary from the remote
// sensing provider. The call is idempotent; the collector issues it twice
// per claim (baseline window, current window).
type SatelliteClient struct {
	httpClient *http.Client
	cfg        config.ProviderConfig
}

func NewSatelliteClient(cfg config.ProviderConfig) *SatelliteClient {
	return &SatelliteClient{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

type ndviStatsRequest struct {
	GeometryWKT string `json:"geometry_wkt"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
}

type ndviStatsResponse struct {
	Mean              float64 `json:"mean"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	HealthyPixelCount int     `json:"healthy_pixel_count"`
	ValidPixelCount   int     `json:"valid_pixel_count"`
	CloudCoverPercent float64 `json:"cloud_cover_percent"`
}

// GetNDVIStats fetches NDVI statistics for the boundary over [from, to],
// retrying transient failures with exponential backoff.
func (c *SatelliteClient) GetNDVIStats(ctx context.Context, geometryWKT string, from, to time.Time) (models.NDVIStats, error) {
	if geometryWKT == "" {
		return models.NDVIStats{}, &ProviderError{
			Provider:  "satellite",
			Transient: false,
			Err:       fmt.Errorf("empty geometry"),
		}
	}

	var stats models.NDVIStats
	err := withRetry(ctx, "satellite", c.cfg.MaxRetries, c.cfg.BackoffBase, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()

		body, err := json.Marshal(ndviStatsRequest{
			GeometryWKT: geometryWKT,
			FromDate:    from.UTC().Format("2006-01-02"),
			ToDate:      to.UTC().Format("2006-01-02"),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal NDVI request: %w", err)
		}

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.SatelliteURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create NDVI request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &ProviderError{Provider: "satellite", Transient: true, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return classifyStatus("satellite", resp.StatusCode,
				fmt.Errorf("unexpected status: %s", string(respBody)))
		}

		var apiResp ndviStatsResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return &ProviderError{Provider: "satellite", Transient: false,
				Err: fmt.Errorf("failed to decode NDVI response: %w", err)}
		}

		stats = models.NDVIStats{
			Mean:              apiResp.Mean,
			Min:               apiResp.Min,
			Max:               apiResp.Max,
			HealthyPixelCount: apiResp.HealthyPixelCount,
			ValidPixelCount:   apiResp.ValidPixelCount,
			CloudCoverPercent: apiResp.CloudCoverPercent,
		}
		return nil
	})
	if err != nil {
		return models.NDVIStats{}, err
	}

	return stats, nil
}
