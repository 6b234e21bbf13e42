// Package advisor is the HTTP client for the external financial
// advice generator. The backend passes the financial context through
// opaquely and relays the generated text.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fincontrol/internal/metrics"
)

// Config holds advisor client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the advice generator service.
type Client struct {
	logger  *slog.Logger
	baseURL string
	apiKey  string
	http    *http.Client
	metrics *metrics.Metrics
}

// New creates an advisor client.
func New(cfg Config, logger *slog.Logger, metricRegistry *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		logger:  logger.With("component", "advisor"),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		metrics: metricRegistry,
	}
}

// Advise submits the opaque financial context and returns the advice
// text. Failures are not retried here; the dispatcher maps them to an
// upstream error.
func (c *Client) Advise(ctx context.Context, financialContext []byte) (string, error) {
	body, err := json.Marshal(map[string]json.RawMessage{
		"financialContext": financialContext,
	})
	if err != nil {
		return "", fmt.Errorf("marshal advice payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build advice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.count("error")
		return "", fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.count("error")
		return "", fmt.Errorf("advisor status %d", resp.StatusCode)
	}

	var parsed struct {
		Advice string `json:"advice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.count("error")
		return "", fmt.Errorf("decode advice response: %w", err)
	}
	if parsed.Advice == "" {
		c.count("empty")
		return "", fmt.Errorf("advisor returned empty advice")
	}

	c.count("ok")
	return parsed.Advice, nil
}

func (c *Client) count(status string) {
	if c.metrics != nil {
		c.metrics.AdvisorRequests.WithLabelValues(status).Inc()
	}
}
