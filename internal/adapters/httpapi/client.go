// Package httpapi talks to the analysis backend over JSON/HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phish-triage/internal/core"
)

const (
	pathAnalyzeEmail = "/api/analyze/email"
	pathAnalyzeURL   = "/api/analyze/url"
	pathNotifyCERT   = "/api/notify-cert"
	pathIncidentLogs = "/api/incident-logs"
	pathThreatFeed   = "/api/threat-feed"

	// maxResponseBytes bounds every response body read from the backend
	maxResponseBytes = 16 << 20
)

// Client implements every backend port over HTTP
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

var (
	_ core.AnalyzerService    = (*Client)(nil)
	_ core.ReportingService   = (*Client)(nil)
	_ core.IncidentLogService = (*Client)(nil)
	_ core.ThreatFeedService  = (*Client)(nil)
)

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Analyze posts the artifact to the mode-specific endpoint and returns the raw body
func (c *Client) Analyze(ctx context.Context, req core.AnalysisRequest) ([]byte, error) {
	var (
		path    string
		payload any
	)
	switch req.Mode {
	case core.ModeEmail:
		path = pathAnalyzeEmail
		payload = map[string]string{"text": req.Content}
	case core.ModeURL:
		path = pathAnalyzeURL
		payload = map[string]string{"url": req.Content}
	default:
		return nil, fmt.Errorf("unsupported analysis mode: %q", req.Mode)
	}

	return c.do(ctx, "analyze "+string(req.Mode), http.MethodPost, path, payload)
}

// NotifyCERT escalates a report and decodes the acknowledgement
func (c *Client) NotifyCERT(ctx context.Context, report core.EscalationReport) (*core.EscalationAck, error) {
	raw, err := c.do(ctx, "notify cert", http.MethodPost, pathNotifyCERT, report)
	if err != nil {
		return nil, err
	}

	var ack core.EscalationAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, &core.TransportError{Op: "notify cert", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &ack, nil
}

// FetchIncidentLogs returns the raw audit history
func (c *Client) FetchIncidentLogs(ctx context.Context) ([]byte, error) {
	return c.do(ctx, "fetch incident logs", http.MethodGet, pathIncidentLogs, nil)
}

// FetchThreatFeed returns the raw threat feed
func (c *Client) FetchThreatFeed(ctx context.Context) ([]byte, error) {
	return c.do(ctx, "fetch threat feed", http.MethodGet, pathThreatFeed, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = closeErr
	}

	c.logger.Debug("Backend call",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &core.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, backendError(raw)),
		}
	}
	if readErr != nil {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("read response: %w", readErr)}
	}

	return raw, nil
}

// backendError extracts the {"error": "..."} message the backend sends on failures
func backendError(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
