package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"change-intake-service/internal/metrics"
)

const maxResponseBytes = 4 << 20

// ErrorKind classifies a failed webhook call.
type ErrorKind string

// ErrorKind constants
const (
	KindUnreachable ErrorKind = "unreachable"
	KindHTTPStatus  ErrorKind = "http_status"
	KindEmptyBody   ErrorKind = "empty_body"
	KindInvalidJSON ErrorKind = "invalid_json"
	KindEncode      ErrorKind = "encode"
)

// WebhookError describes why a webhook call did not produce a JSON reply.
type WebhookError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	// Body is the raw response body for http_status and invalid_json.
	Body string
	Err  error
}

func (e *WebhookError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("webhook %s responded with status %d", e.URL, e.StatusCode)
	case KindEmptyBody:
		return fmt.Sprintf("webhook %s sent an empty response body", e.URL)
	case KindInvalidJSON:
		return fmt.Sprintf("webhook %s sent invalid JSON: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("webhook %s %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the webhook path is not registered.
func (e *WebhookError) NotFound() bool {
	return e.Kind == KindHTTPStatus && e.StatusCode == http.StatusNotFound
}

// Timeout reports whether the call gave up waiting for the engine.
func (e *WebhookError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ConnectionRefused reports whether nothing listens at the webhook address.
func (e *WebhookError) ConnectionRefused() bool {
	return e.Kind == KindUnreachable && e.Err != nil && strings.Contains(e.Err.Error(), "connection refused")
}

// BodyContains reports whether the response body mentions s.
func (e *WebhookError) BodyContains(s string) bool {
	return strings.Contains(e.Body, s)
}

// BodyPreview returns at most n runes of the response body.
func (e *WebhookError) BodyPreview(n int) string {
	runes := []rune(e.Body)
	if len(runes) <= n {
		return e.Body
	}
	return string(runes[:n])
}

// WebhookClient defines the interface for workflow engine communication
type WebhookClient interface {
	// Post sends payload as JSON and returns the JSON reply. Failures are
	// returned as *WebhookError.
	Post(ctx context.Context, payload interface{}) (json.RawMessage, error)
	// Probe checks that the workflow engine answers at all.
	Probe(ctx context.Context) error
	// URL returns the configured webhook URL.
	URL() string
}

// webhookClient implements WebhookClient interface
type webhookClient struct {
	url        string
	probeURL   string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewWebhookClient creates a new workflow engine webhook client
func NewWebhookClient(webhookURL string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) WebhookClient {
	return &webhookClient{
		url:      webhookURL,
		probeURL: healthURL(webhookURL),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// healthURL derives the engine's health endpoint from the webhook URL.
func healthURL(webhookURL string) string {
	u, err := url.Parse(webhookURL)
	if err != nil || u.Host == "" {
		return webhookURL
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/healthz"}).String()
}

func (c *webhookClient) URL() string {
	return c.url
}

// Post sends a JSON payload to the webhook
func (c *webhookClient) Post(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to marshal webhook payload", zap.Error(err))
		return nil, &WebhookError{Kind: KindEncode, URL: c.url, Err: err}
	}

	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		c.logger.Error("Failed to create webhook request", zap.Error(err))
		return nil, &WebhookError{Kind: KindUnreachable, URL: c.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(startTime)
		c.metrics.RecordExternalAPICall(c.url, http.MethodPost, 0, duration, err)
		c.logger.Error("Workflow engine not reachable",
			zap.Error(err),
			zap.String("url", c.url),
			zap.Duration("duration", duration),
		)
		return nil, &WebhookError{Kind: KindUnreachable, URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	duration := time.Since(startTime)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordExternalAPICall(c.url, http.MethodPost, resp.StatusCode, duration, nil)
		c.logger.Warn("Workflow engine returned non-success status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", truncate(string(body), 500)),
			zap.Duration("duration", duration),
		)
		return nil, &WebhookError{Kind: KindHTTPStatus, URL: c.url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if readErr != nil {
		c.metrics.RecordExternalAPICall(c.url, http.MethodPost, resp.StatusCode, duration, readErr)
		c.logger.Error("Failed to read workflow engine response", zap.Error(readErr))
		return nil, &WebhookError{Kind: KindUnreachable, URL: c.url, StatusCode: resp.StatusCode, Err: readErr}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		werr := &WebhookError{Kind: KindEmptyBody, URL: c.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("empty response body")}
		c.metrics.RecordExternalAPICall(c.url, http.MethodPost, resp.StatusCode, duration, werr.Err)
		c.logger.Error("Workflow engine sent an empty response",
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return nil, werr
	}

	if !json.Valid(body) {
		var probe interface{}
		decodeErr := json.Unmarshal(body, &probe)
		werr := &WebhookError{Kind: KindInvalidJSON, URL: c.url, StatusCode: resp.StatusCode, Body: string(body), Err: decodeErr}
		c.metrics.RecordExternalAPICall(c.url, http.MethodPost, resp.StatusCode, duration, fmt.Errorf("invalid JSON in response"))
		c.logger.Error("Workflow engine sent invalid JSON",
			zap.Error(decodeErr),
			zap.String("body", truncate(string(body), 500)),
		)
		return nil, werr
	}

	c.metrics.RecordExternalAPICall(c.url, http.MethodPost, resp.StatusCode, duration, nil)
	c.logger.Debug("Workflow engine call succeeded",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	return json.RawMessage(body), nil
}

// Probe issues a GET against the engine's health endpoint
func (c *webhookClient) Probe(ctx context.Context) error {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.probeURL, nil)
	if err != nil {
		return &WebhookError{Kind: KindUnreachable, URL: c.probeURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		c.metrics.RecordExternalAPICall(c.probeURL, http.MethodGet, 0, duration, err)
		return &WebhookError{Kind: KindUnreachable, URL: c.probeURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	c.metrics.RecordExternalAPICall(c.probeURL, http.MethodGet, resp.StatusCode, duration, nil)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &WebhookError{Kind: KindHTTPStatus, URL: c.probeURL, StatusCode: resp.StatusCode}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// NoOpWebhookClient answers every call with an empty JSON object. It backs
// the service when no webhook URL is configured.
type NoOpWebhookClient struct{}

func NewNoOpWebhookClient() WebhookClient {
	return &NoOpWebhookClient{}
}

func (c *NoOpWebhookClient) Post(ctx context.Context, payload interface{}) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (c *NoOpWebhookClient) Probe(ctx context.Context) error {
	return nil
}

func (c *NoOpWebhookClient) URL() string {
	return ""
}
