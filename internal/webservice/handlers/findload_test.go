package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brokerlink/loadsync/internal/broker"
	"github.com/brokerlink/loadsync/internal/config"
	"github.com/brokerlink/loadsync/internal/mcleod"
	"github.com/brokerlink/loadsync/internal/transform"
	"github.com/brokerlink/loadsync/internal/webservice/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnvs struct {
	envs []config.Environment
}

func (f fakeEnvs) Environments() []config.Environment {
	return f.envs
}

func (f fakeEnvs) Environment(name string) (config.Environment, bool) {
	for _, e := range f.envs {
		if e.Name == name {
			return e, true
		}
	}
	return config.Environment{}, false
}

// tmsOrder is a representative order as the TMS returns it.
func tmsOrder(id string) map[string]any {
	return map[string]any{
		"__type":               "orders",
		"id":                   id,
		"__statusDescr":        "Available",
		"__equipmentTypeDescr": "Van",
		"weight":               42000.0,
		"weight_um":            "LBS",
		"bill_distance":        512.0,
		"bill_distance_um":     "MI",
		"blnum":                "BOL-9",
		"customer_id":          "CUST1",
		"customer":             map[string]any{"name": "Acme Foods"},
		"ordered_date":         "20240601120000-0500",
		"planning_comment":     "call ahead",
		"stops": []any{
			map[string]any{
				"stop_type":          "PU",
				"location_name":      "Dock A",
				"city_name":          "Dallas",
				"state":              "TX",
				"zip_code":           "75201",
				"sched_arrive_early": "20240610100000-0500",
				"cases":              10.0,
				"movement_sequence":  1.0,
			},
			map[string]any{
				"stop_type":          "SO",
				"city_name":          "Tulsa",
				"state":              "OK",
				"sched_arrive_early": "20240612090000-0500",
				"movement_sequence":  2.0,
			},
		},
		"movement": []any{map[string]any{
			"id":                 7.0,
			"brokerage_status":   "AVAIL",
			"override_max_pay_n": 1500.0,
		}},
	}
}

// newTMSServer serves the given orders for any search and records the
// query parameters of the last request.
func newTMSServer(t *testing.T, orders []map[string]any) (*httptest.Server, *http.Request) {
	t.Helper()

	var last http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = *r
		require.NoError(t, json.NewEncoder(w).Encode(orders), "Setup: encoding orders should not fail")
	}))
	t.Cleanup(ts.Close)
	return ts, &last
}

func newBrokerServer(t *testing.T, response map[string]any) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(response), "Setup: encoding response should not fail")
	}))
	t.Cleanup(ts.Close)
	return ts
}

func environmentFor(tms, brokerURL string) config.Environment {
	return config.Environment{
		Name:   "production",
		TMS:    mcleod.Config{BaseURL: tms, AuthToken: "token"},
		Broker: broker.Config{URL: brokerURL, APIKey: "key", OrgID: "org-1"},
	}
}

func getJSON(t *testing.T, h http.Handler, target string, wantStatus int) map[string]any {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, wantStatus, rec.Code, "Unexpected response status")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "Response should be JSON")
	return body
}

func TestFindLoad(t *testing.T) {
	t.Parallel()

	tms, lastReq := newTMSServer(t, []map[string]any{tmsOrder("123")})
	brk := newBrokerServer(t, map[string]any{"id": "BL-77"})
	h := handlers.NewFindLoad(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, brk.URL)}}, nil, nil)

	body := getJSON(t, h, "/find-load?order_id=123", http.StatusOK)

	assert.Equal(t, "123", body["load_number"], "Load number should match the order")
	assert.Equal(t, "123", lastReq.URL.Query().Get("id"), "order_id should map to the id filter")
	assert.Equal(t, transform.InternalNextSteps, body["internal_next_steps"], "Found loads should carry the pitch guidance")
	assert.Equal(t, "BL-77", body["broker_load_id"], "The broker assigned id should be attached")

	pickup, ok := body["pickup"].(map[string]any)
	require.True(t, ok, "Pickup should be an object")
	assert.Equal(t, "2024-06-10T10:00:00", pickup["scheduled_early"], "Timestamps should be normalized")

	assert.NotContains(t, body, "rate", "The rate must never be exposed")
	assert.NotContains(t, body, "broker_response", "The raw broker response is only for the negotiation endpoint")
}

func TestFindLoadNotFound(t *testing.T) {
	t.Parallel()

	tms, _ := newTMSServer(t, []map[string]any{})
	h := handlers.NewFindLoad(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, "")}}, nil, nil)

	body := getJSON(t, h, "/find-load?order_id=999", http.StatusOK)

	assert.Nil(t, body["load_number"], "A missing load should have a null load number")
	assert.Equal(t, transform.NotFoundNextSteps, body["internal_next_steps"], "Missing loads should ask for the reference number again")
}

func TestFindLoadExtraFilters(t *testing.T) {
	t.Parallel()

	tms, lastReq := newTMSServer(t, []map[string]any{tmsOrder("123")})
	h := handlers.NewFindLoad(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, "")}}, nil, nil)

	getJSON(t, h, "/find-load?load_number=123&record_length=5&reference_number=REF-1", http.StatusOK)

	q := lastReq.URL.Query()
	assert.Equal(t, "123", q.Get("id"), "load_number should map to the id filter")
	assert.Equal(t, "5", q.Get("recordLength"), "record_length should decode weakly from a string")
	assert.Equal(t, "REF-1", q.Get("reference_number"), "Unknown filters should pass through verbatim")
}

func TestFindLoadTMSError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	h := handlers.NewFindLoad(fakeEnvs{envs: []config.Environment{environmentFor(ts.URL, "")}}, nil, nil)
	body := getJSON(t, h, "/find-load?order_id=123", http.StatusBadGateway)
	assert.Contains(t, body["message"], "order search failed", "The upstream failure should be reported")
}

func TestFindLoadUnknownEnvironment(t *testing.T) {
	t.Parallel()

	tms, _ := newTMSServer(t, []map[string]any{tmsOrder("123")})
	h := handlers.NewFindLoad(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, "")}}, nil, nil)

	body := getJSON(t, h, "/find-load?order_id=123&environment=staging", http.StatusInternalServerError)
	assert.Contains(t, body["message"], "environment", "The unknown environment should be reported")
}

func TestFindLoadNoEnvironments(t *testing.T) {
	t.Parallel()

	h := handlers.NewFindLoad(fakeEnvs{}, nil, nil)
	getJSON(t, h, "/find-load?order_id=123", http.StatusInternalServerError)
}

func TestFindLoadBrokerDown(t *testing.T) {
	t.Parallel()

	tms, _ := newTMSServer(t, []map[string]any{tmsOrder("123")})
	h := handlers.NewFindLoad(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, "http://localhost:1")}}, nil, nil)

	body := getJSON(t, h, "/find-load?order_id=123", http.StatusOK)
	assert.Equal(t, "123", body["load_number"], "A broker outage must not fail the lookup")
	assert.NotContains(t, body, "broker_load_id", "No broker id is available when the push fails")
}

func TestFindLoadDroppedOrderStillServed(t *testing.T) {
	t.Parallel()

	// The second order is structurally broken: it gets dropped from the
	// broker push without failing the lookup.
	broken := map[string]any{"id": "BAD", "stops": []any{"not an object"}}
	tms, _ := newTMSServer(t, []map[string]any{tmsOrder("123"), broken})

	var pushed string
	brk := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err, "Setup: reading the broker payload should not fail")
		pushed = string(body)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"id": "BL-77"}), "Setup: encoding response should not fail")
	}))
	t.Cleanup(brk.Close)

	h := handlers.NewFindLoad(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, brk.URL)}}, nil, nil)

	body := getJSON(t, h, "/find-load?order_id=123", http.StatusOK)
	assert.Equal(t, "123", body["load_number"], "The lookup should still serve the first order")
	assert.Contains(t, pushed, `"123"`, "The good order should reach the broker")
	assert.NotContains(t, pushed, "BAD", "The broken order should be left out of the push")
}

func TestFindLoadBeforeNegotiation(t *testing.T) {
	t.Parallel()

	tms, _ := newTMSServer(t, []map[string]any{tmsOrder("123")})
	brk := newBrokerServer(t, map[string]any{"id": "BL-77"})
	h := handlers.NewFindLoadBeforeNegotiation(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, brk.URL)}}, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/find-load-before-negotiation", strings.NewReader(`{"load_number": "123"}`))
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "Unexpected response status")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "Response should be JSON")

	assert.Equal(t, 1500.0, body["rate"], "The rate should come from the movement override")
	assert.Equal(t, "BL-77", body["broker_load_id"], "The broker assigned id should be attached")
	assert.NotNil(t, body["broker_response"], "The raw broker response should be included")

	pickup, ok := body["pickup"].(map[string]any)
	require.True(t, ok, "Pickup should be an object")
	assert.Equal(t, "20240610100000-0500", pickup["scheduled_early"], "Timestamps should stay raw")
}

func TestFindLoadBeforeNegotiationNoRate(t *testing.T) {
	t.Parallel()

	order := tmsOrder("123")
	delete(order["movement"].([]any)[0].(map[string]any), "override_max_pay_n")
	tms, _ := newTMSServer(t, []map[string]any{order})
	h := handlers.NewFindLoadBeforeNegotiation(fakeEnvs{envs: []config.Environment{environmentFor(tms.URL, "")}}, nil, nil)

	body := getJSON(t, h, "/find-load-before-negotiation?load_number=123", http.StatusOK)
	assert.Equal(t, "TBD", body["rate"], "A missing override should read TBD")
}
