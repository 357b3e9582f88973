// Package webhook delivers JSON notification payloads to configured
// webhook endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Result describes one delivery attempt. Failures are reported in band,
// never returned as errors, so sweep processors can record them per
// order and keep going.
type Result struct {
	OrderID  string `json:"order_id,omitempty"`
	Status   int    `json:"webhook_status,omitempty"`
	Success  bool   `json:"success"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Sender posts payloads to webhook URLs.
type Sender struct {
	http *http.Client
}

type options struct {
	timeout time.Duration
}

// Options represents an optional function to override Sender default values.
type Options func(*options)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Options {
	return func(o *options) {
		o.timeout = d
	}
}

// New returns a webhook sender.
func New(args ...Options) *Sender {
	opts := options{
		timeout: 30 * time.Second,
	}
	for _, opt := range args {
		opt(&opts)
	}

	return &Sender{
		http: &http.Client{Timeout: opts.timeout},
	}
}

// Send posts the payload to the given URL. 200, 201 and 202 count as
// success; anything else, including transport failures, yields a failed
// result with the cause recorded.
func (s *Sender) Send(ctx context.Context, url string, payload map[string]any) Result {
	orderID, _ := payload["order_id"].(string)
	result := Result{OrderID: orderID}

	body, err := json.Marshal(payload)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		slog.Warn("Webhook delivery failed", "order", orderID, "err", err)
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	result.Success = resp.StatusCode == http.StatusOK ||
		resp.StatusCode == http.StatusCreated ||
		resp.StatusCode == http.StatusAccepted

	raw, _ := io.ReadAll(resp.Body)
	if result.Success {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			result.Response = parsed
		} else {
			result.Response = string(raw)
		}
		slog.Debug("Webhook sent", "order", orderID, "status", result.Status)
	} else {
		result.Error = string(raw)
		slog.Warn("Webhook rejected", "order", orderID, "status", result.Status)
	}
	return result
}
