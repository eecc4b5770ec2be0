package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"
)

// OCRClient submits document bytes to the text-extraction provider and
// returns the extracted field mapping. An empty mapping is a valid result
// for an unreadable document, not an error.
type OCRClient struct {
	httpClient *http.Client
	cfg        config.ProviderConfig
}

func NewOCRClient(cfg config.ProviderConfig) *OCRClient {
	return &OCRClient{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

type extractRequest struct {
	DocumentBase64 string `json:"document_base64"`
	DocumentType   string `json:"document_type"`
}

type extractResponse struct {
	Fields     map[string]string `json:"fields"`
	Confidence float64           `json:"confidence"`
}

// ExtractFields runs the document through the OCR provider with bounded
// retry on transient failures.
func (c *OCRClient) ExtractFields(ctx context.Context, documentBytes []byte, documentType models.DocumentType) (map[string]string, error) {
	if len(documentBytes) == 0 {
		return nil, &ProviderError{
			Provider:  "ocr",
			Transient: false,
			Err:       fmt.Errorf("empty document"),
		}
	}

	var fields map[string]string
	err := withRetry(ctx, "ocr", c.cfg.MaxRetries, c.cfg.BackoffBase, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()

		body, err := json.Marshal(extractRequest{
			DocumentBase64: base64.StdEncoding.EncodeToString(documentBytes),
			DocumentType:   string(documentType),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal OCR request: %w", err)
		}

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.OCRURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create OCR request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &ProviderError{Provider: "ocr", Transient: true, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return classifyStatus("ocr", resp.StatusCode,
				fmt.Errorf("unexpected status: %s", string(respBody)))
		}

		var apiResp extractResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return &ProviderError{Provider: "ocr", Transient: false,
				Err: fmt.Errorf("failed to decode OCR response: %w", err)}
		}

		// nil map means the provider read nothing off the document;
		// normalize to an empty map so callers treat it as a zero-match
		// result rather than an error.
		if apiResp.Fields == nil {
			apiResp.Fields = map[string]string{}
		}
		fields = apiResp.Fields
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fields, nil
}
