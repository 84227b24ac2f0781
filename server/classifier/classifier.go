package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/leadbasehq/leadbase/shared"
)

// ConfidenceThreshold is the fixed bar an analysis must clear before its
// status is written back to a property.
const ConfidenceThreshold = 0.7

// Analysis is the classification verdict on an inbound message.
type Analysis struct {
	Status     string  `json:"status,omitempty"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// Conclusive reports whether the verdict is strong enough to act on.
func (analysis *Analysis) Conclusive() bool {
	return analysis.Status != "" && analysis.Confidence > ConfidenceThreshold
}

// Client calls the external lead-status classification API. The
// classification logic itself lives behind that API - this is plumbing.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(config shared.ClassifierConfig) *Client {
	return &Client{
		url:        config.URL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether a classifier endpoint has been configured.
func (c *Client) Enabled() bool {
	return c.url != ""
}

func (c *Client) Classify(ctx context.Context, text string) (*Analysis, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %v", resp.StatusCode)
	}

	analysis := Analysis{}
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, err
	}

	return &analysis, nil
}
