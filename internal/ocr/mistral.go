package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultModel is the Mistral OCR model used when none is configured.
const DefaultModel = "mistral-ocr-latest"

// defaultBaseURL is the Mistral API base.
const defaultBaseURL = "https://api.mistral.ai"

// MistralClient implements Extractor using the Mistral OCR REST API.
// The whole PDF is submitted in one call as a base64 data URL; the response
// carries one result per page. Safe for concurrent use.
type MistralClient struct {
	// baseURL is the API base (default: https://api.mistral.ai).
	baseURL string
	// apiKey is the Bearer token for the Mistral API.
	apiKey string
	// model is the OCR model identifier (e.g. "mistral-ocr-latest").
	model string
	// client is the shared HTTP client. OCR of large documents is slow, so
	// the timeout is generous.
	client *http.Client
}

// MistralConfig holds the settings for constructing a MistralClient.
type MistralConfig struct {
	// BaseURL overrides the Mistral API base URL (default: https://api.mistral.ai).
	BaseURL string
	// APIKey is the Mistral API key.
	APIKey string
	// Model is the OCR model identifier (default: mistral-ocr-latest).
	Model string
}

// NewMistralClient constructs a MistralClient from the given config.
func NewMistralClient(cfg *MistralConfig) (*MistralClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ocr: MISTRAL_API_KEY is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &MistralClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// ocrRequest is the JSON body sent to the /v1/ocr endpoint.
type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

// ocrDocument identifies the document to process as a base64 data URL.
type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// ocrResponse is the JSON body returned from the /v1/ocr endpoint.
type ocrResponse struct {
	Pages []struct {
		// Index is the 0-based page index.
		Index int `json:"index"`
		// Markdown is the preferred extracted representation.
		Markdown string `json:"markdown"`
		// Text is the plain-text fallback used when markdown is absent.
		Text string `json:"text"`
	} `json:"pages"`
	Message string `json:"message,omitempty"`
}

// Extract submits the whole PDF at path for OCR and returns the per-page
// text keyed by 1-based page number. Markdown is preferred over plain text.
func (c *MistralClient) Extract(ctx context.Context, path string) (PageText, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ocr: read %s: %w", path, err)
	}

	body := ocrRequest{
		Model: c.model,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(raw),
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ocr: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ocr: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr: request failed: %w", err)
	}
	defer resp.Body.Close()

	var result ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ocr: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Message != "" {
			msg = result.Message
		}
		return nil, fmt.Errorf("ocr: %s", msg)
	}

	pages := make(PageText, len(result.Pages))
	for _, p := range result.Pages {
		text := p.Markdown
		if text == "" {
			text = p.Text
		}
		// Pages the OCR model found nothing on stay absent from the map.
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages[p.Index+1] = text
	}

	return pages, nil
}
