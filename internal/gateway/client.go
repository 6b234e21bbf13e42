// Package gateway is the HTTP client for the separate WhatsApp
// messaging gateway service. The backend never speaks the WhatsApp
// protocol itself; it sends rendered replies and fetches pairing QR
// codes through this client.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fincontrol/internal/cache"
	"fincontrol/internal/metrics"
)

const qrCacheKey = "gateway:qr"
const qrCacheTTL = time.Minute

// Config holds gateway client configuration.
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	QRTimeout time.Duration
}

// Client provides typed access to the WhatsApp gateway API.
type Client struct {
	logger    *slog.Logger
	baseURL   string
	secretKey string
	http      *http.Client
	qrTimeout time.Duration
	metrics   *metrics.Metrics
	cache     *cache.Redis
}

// New creates a gateway client.
func New(cfg Config, logger *slog.Logger, metricRegistry *metrics.Metrics, redis *cache.Redis) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	qrTimeout := cfg.QRTimeout
	if qrTimeout <= 0 {
		qrTimeout = 60 * time.Second
	}
	return &Client{
		logger:    logger.With("component", "gateway"),
		baseURL:   base,
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: timeout},
		qrTimeout: qrTimeout,
		metrics:   metricRegistry,
		cache:     redis,
	}
}

// SendMessage delivers a rendered text message to the given phone.
func (c *Client) SendMessage(ctx context.Context, to, text string) error {
	body, err := json.Marshal(map[string]string{"to": to, "text": text})
	if err != nil {
		return fmt.Errorf("marshal send payload: %w", err)
	}

	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	c.observe("send", started, err == nil && resp != nil && resp.StatusCode < 300)
	if err != nil {
		return fmt.Errorf("gateway send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway send status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}

// QR fetches the pairing QR payload from the gateway. The response is
// briefly cached so a polling UI does not hammer the gateway; QR
// retrieval uses its own 60-second timeout.
func (c *Client) QR(ctx context.Context) (json.RawMessage, error) {
	if c.cache != nil {
		var cached json.RawMessage
		if ok, err := c.cache.GetJSON(ctx, qrCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.qrTimeout)
	defer cancel()

	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/qr", nil)
	if err != nil {
		return nil, fmt.Errorf("build qr request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	c.observe("qr", started, err == nil && resp != nil && resp.StatusCode < 300)
	if err != nil {
		return nil, fmt.Errorf("gateway qr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway qr status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read qr payload: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, qrCacheKey, json.RawMessage(payload), qrCacheTTL); err != nil {
			c.logger.Warn("failed caching qr payload", "error", err)
		}
	}
	return payload, nil
}

func (c *Client) observe(endpoint string, started time.Time, ok bool) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	c.metrics.GatewayRequests.WithLabelValues(endpoint, status).Inc()
	c.metrics.GatewayLatency.WithLabelValues(endpoint, status).Observe(time.Since(started).Seconds())
}
