// Package privateai provides an HTTP client for the Private AI community
// text-processing endpoint, used to detect named entities in transcripts.
//
// Configuration is explicit: the API key is passed into the constructor,
// never read from ambient environment state, so callers stay deterministic
// and testable.
package privateai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	eterrors "github.com/otherjamesbrown/entitime/pkg/errors"
	"github.com/otherjamesbrown/entitime/pkg/timeline"
)

// DefaultEndpoint is the Private AI community text-processing endpoint.
const DefaultEndpoint = "https://api.private-ai.com/community/v3/process/text"

// DefaultTimeout bounds a single extraction request.
const DefaultTimeout = 2 * time.Minute

// Config holds client settings.
type Config struct {
	// Endpoint is the text-processing URL. Defaults to DefaultEndpoint.
	Endpoint string

	// APIKey is sent in the x-api-key header. Required.
	APIKey string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Client calls the Private AI text-processing API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("privateai: missing API key: %w", eterrors.ErrNoCredentials)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// entityTypeSelector enables detection for one entity type.
type entityTypeSelector struct {
	Type  string   `json:"type"`
	Value []string `json:"value"`
}

// entityDetection configures which entities to detect.
type entityDetection struct {
	Accuracy     string               `json:"accuracy"`
	EntityTypes  []entityTypeSelector `json:"entity_types"`
	ReturnEntity bool                 `json:"return_entity"`
}

// processedText asks the API to replace entities with numbered markers, which
// become stable keys for grouping occurrences of the same entity.
type processedText struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
}

// processRequest is the text-processing request body.
type processRequest struct {
	Text            []string        `json:"text"`
	LinkBatch       bool            `json:"link_batch"`
	EntityDetection entityDetection `json:"entity_detection"`
	ProcessedText   processedText   `json:"processed_text"`
}

// Location is the character span of a detected entity.
type Location struct {
	StartIndex *int `json:"stt_idx"`
	EndIndex   *int `json:"end_idx"`
}

// DetectedEntity is one entity occurrence in the API response.
type DetectedEntity struct {
	// Text is the surface form in the source transcript.
	Text string `json:"text"`

	// ProcessedText is the numbered marker (e.g. "[NAME_1]") shared by all
	// occurrences of the same entity.
	ProcessedText string `json:"processed_text"`

	// BestLabel is the detected entity type.
	BestLabel string `json:"best_label"`

	// Location is the character span, when the API reports one.
	Location Location `json:"location"`
}

// processResult is one element of the API response array.
type processResult struct {
	Entities []DetectedEntity `json:"entities"`
}

// ProcessText detects entities of the given types in text.
func (c *Client) ProcessText(ctx context.Context, text string, types []timeline.EntityType) ([]DetectedEntity, error) {
	selectors := make([]entityTypeSelector, 0, len(types))
	for _, t := range types {
		selectors = append(selectors, entityTypeSelector{Type: "ENABLE", Value: []string{string(t)}})
	}

	reqBody := processRequest{
		Text:      []string{text},
		LinkBatch: false,
		EntityDetection: entityDetection{
			Accuracy:     "high",
			EntityTypes:  selectors,
			ReturnEntity: true,
		},
		ProcessedText: processedText{
			Type:    "MARKER",
			Pattern: "[UNIQUE_NUMBERED_ENTITY_TYPE]",
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", c.cfg.Endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("extraction API rejected the key: %w", eterrors.ErrUnauthorized)
	case http.StatusForbidden:
		return nil, fmt.Errorf("extraction API: %w", eterrors.ErrRateLimited)
	default:
		return nil, fmt.Errorf("extraction API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var results []processResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}
	return results[0].Entities, nil
}

// truncate shortens s for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
