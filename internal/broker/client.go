// Package broker implements the client for the downstream broker
// ingestion API that load events are pushed to.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/brokerlink/loadsync/internal/transform"
)

// Config is the sink configuration for one broker environment.
type Config struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
	OrgID  string `json:"org_id"`
}

// Client pushes load events to a broker ingestion endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

type options struct {
	timeout time.Duration
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Options {
	return func(o *options) {
		o.timeout = d
	}
}

// New returns a client for the given broker environment. A client with
// no URL or API key is valid but disabled: pushes report Enabled=false
// instead of failing.
func New(cfg Config, args ...Options) *Client {
	opts := options{
		timeout: 30 * time.Second,
	}
	for _, opt := range args {
		opt(&opts)
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: opts.timeout},
	}
}

// Report describes one push attempt. Pushes never fail the caller: a
// broker outage is recorded here, not propagated, since load delivery
// is best-effort alongside the primary response.
type Report struct {
	Enabled  bool   `json:"enabled"`
	Sent     bool   `json:"sent"`
	Status   int    `json:"status,omitempty"`
	Response any    `json:"response,omitempty"`
	Count    int    `json:"count,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// LoadID digs the broker-assigned load id out of the push response, or
// "" when the response does not carry one.
func (r Report) LoadID() string {
	body, ok := r.Response.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"load_id", "id"} {
		if id, ok := body[key].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// PushLoadEvents delivers the given events to the broker. A single
// event is sent as an object, several as an array, matching what the
// ingestion API expects. OrgID is attached to every event when
// configured.
func (c *Client) PushLoadEvents(ctx context.Context, events []transform.LoadEvent) Report {
	if c.cfg.URL == "" || c.cfg.APIKey == "" {
		return Report{Reason: "broker sink not configured"}
	}
	if len(events) == 0 {
		return Report{Enabled: true, Reason: "no events to push"}
	}

	if c.cfg.OrgID != "" {
		for i := range events {
			if events[i].OrgID == "" {
				events[i].OrgID = c.cfg.OrgID
			}
		}
	}

	var payload any = events
	if len(events) == 1 {
		payload = events[0]
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Report{Enabled: true, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Report{Enabled: true, Error: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("Broker push failed", "err", err)
		return Report{Enabled: true, Error: err.Error()}
	}
	defer resp.Body.Close()

	report := Report{
		Enabled: true,
		Sent:    true,
		Status:  resp.StatusCode,
		Count:   len(events),
	}

	var parsed any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
		report.Response = parsed
	}
	slog.Debug("Pushed load events", "count", report.Count, "status", report.Status)
	return report
}
