// Package mcleod implements the client for the McLeod order search API,
// the upstream TMS this service syncs loads from.
package mcleod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ubuntu/decorate"
)

// ErrEmptyBaseURL is returned when a client is created without a base URL.
var ErrEmptyBaseURL = errors.New("base URL cannot be an empty string")

const searchPath = "/ws/orders/search"

// Config is the connection configuration for one TMS environment.
type Config struct {
	BaseURL   string `json:"base_url"`
	AuthToken string `json:"auth_token"`
	AuthType  string `json:"auth_type"`
	CompanyID string `json:"company_id"`
}

// Client talks to a single McLeod instance.
type Client struct {
	cfg  Config
	http *http.Client
}

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Options {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTransport overrides the HTTP transport. For tests.
func WithTransport(rt http.RoundTripper) Options {
	return func(o *options) {
		o.transport = rt
	}
}

// New returns a client for the given TMS environment.
func New(cfg Config, args ...Options) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	opts := options{
		timeout: 90 * time.Second,
	}
	for _, opt := range args {
		opt(&opts)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   opts.timeout,
			Transport: opts.transport,
		},
	}, nil
}

// SearchQuery is the set of supported order search filters. Zero values
// are left out of the request. Extra carries filters with no dedicated
// field, passed through verbatim.
type SearchQuery struct {
	ID                string `mapstructure:"load_number"`
	Status            string `mapstructure:"status"`
	ShipperLocationID string `mapstructure:"shipper_location_id"`
	ConsigneeState    string `mapstructure:"consignee_state"`
	CustomerID        string `mapstructure:"customer_id"`
	RecordLength      int    `mapstructure:"record_length"`
	RecordOffset      int    `mapstructure:"record_offset"`
	OrderBy           string `mapstructure:"order_by"`
	ChangedAfterDate  string `mapstructure:"changed_after_date"`
	ChangedAfterType  string `mapstructure:"changed_after_type"`

	Extra map[string]string `mapstructure:"-"`
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("id", q.ID)
	set("orders.status", q.Status)
	set("shipper.location_id", q.ShipperLocationID)
	set("consignee.state", q.ConsigneeState)
	set("customer.id", q.CustomerID)
	if q.RecordLength > 0 {
		v.Set("recordLength", strconv.Itoa(q.RecordLength))
	}
	if q.RecordOffset > 0 {
		v.Set("recordOffset", strconv.Itoa(q.RecordOffset))
	}
	set("orderBy", q.OrderBy)
	set("changedAfterDate", q.ChangedAfterDate)
	set("changedAfterType", q.ChangedAfterType)
	for key, val := range q.Extra {
		set(key, val)
	}
	return v
}

// Search queries orders matching the given filters.
func (c *Client) Search(ctx context.Context, query SearchQuery) (orders []map[string]any, err error) {
	defer decorate.OnError(&err, "order search failed")
	return c.get(ctx, query.values())
}

// SearchWindow queries orders whose first pickup is scheduled inside
// [start, end), both in the TMS's own date-time encoding.
func (c *Client) SearchWindow(ctx context.Context, start, end string) (orders []map[string]any, err error) {
	defer decorate.OnError(&err, "order window search failed")

	v := url.Values{}
	v.Add("shipper.sched_arrive_early", ">="+start)
	v.Add("shipper.sched_arrive_early", "<"+end)
	return c.get(ctx, v)
}

func (c *Client) get(ctx context.Context, params url.Values) ([]map[string]any, error) {
	u := c.cfg.BaseURL + searchPath
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	slog.Debug("Querying TMS", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authorization())
	if c.cfg.CompanyID != "" {
		req.Header.Set("X-com.mcleodsoftware.CompanyID", c.cfg.CompanyID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %v", err)
	}
	return NormalizeOrders(data), nil
}

// authorization builds the Authorization header value. An auth type of
// "none" (or empty) sends the bare token.
func (c *Client) authorization() string {
	if t := c.cfg.AuthType; t != "" && !strings.EqualFold(t, "none") {
		return t + " " + c.cfg.AuthToken
	}
	return c.cfg.AuthToken
}

// NormalizeOrders flattens the search response shapes the TMS is known
// to produce into a list of order objects: an array of orders, a single
// order object, or anything else (empty list). Non-object array elements
// are kept as nil entries for the transformer to reject.
func NormalizeOrders(data any) []map[string]any {
	switch d := data.(type) {
	case []any:
		orders := make([]map[string]any, 0, len(d))
		for _, el := range d {
			m, _ := el.(map[string]any)
			orders = append(orders, m)
		}
		return orders
	case map[string]any:
		return []map[string]any{d}
	default:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
