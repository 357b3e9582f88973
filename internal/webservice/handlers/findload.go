package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brokerlink/loadsync/internal/broker"
	"github.com/brokerlink/loadsync/internal/config"
	"github.com/brokerlink/loadsync/internal/mcleod"
	"github.com/brokerlink/loadsync/internal/transform"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
)

// FindLoad serves on-demand load lookups: it searches the TMS, forwards
// the result to the broker as a load event, and responds with the
// compact view of the first matching order.
type FindLoad struct {
	envs Environments

	// negotiation keeps raw TMS timestamps and exposes the carrier
	// rate, for the pre-negotiation variant of the endpoint.
	negotiation bool

	tmsOptions    []mcleod.Options
	brokerOptions []broker.Options
}

// NewFindLoad creates the handler for /find-load.
func NewFindLoad(envs Environments, tmsOptions []mcleod.Options, brokerOptions []broker.Options) *FindLoad {
	return &FindLoad{envs: envs, tmsOptions: tmsOptions, brokerOptions: brokerOptions}
}

// NewFindLoadBeforeNegotiation creates the handler for
// /find-load-before-negotiation.
func NewFindLoadBeforeNegotiation(envs Environments, tmsOptions []mcleod.Options, brokerOptions []broker.Options) *FindLoad {
	h := NewFindLoad(envs, tmsOptions, brokerOptions)
	h.negotiation = true
	return h
}

// ServeHTTP handles a load lookup request.
func (h *FindLoad) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()

	params, err := requestParams(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		slog.Error("Failed to parse request", "req_id", reqID, "err", err)
		return
	}

	envName, _ := params["environment"].(string)
	delete(params, "environment")

	query, err := decodeQuery(params)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		slog.Error("Failed to decode search filters", "req_id", reqID, "err", err)
		return
	}

	env, ok := h.environment(envName)
	if !ok {
		errorJSON(w, http.StatusInternalServerError, "no such environment configured")
		slog.Error("Unknown environment requested", "req_id", reqID, "environment", envName)
		return
	}

	tms, err := mcleod.New(env.TMS, h.tmsOptions...)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "TMS connection is not configured")
		slog.Error("TMS client misconfigured", "req_id", reqID, "environment", env.Name, "err", err)
		return
	}

	slog.Info("Load lookup", "req_id", reqID, "environment", env.Name, "load_number", query.ID)
	orders, err := tms.Search(r.Context(), query)
	if err != nil {
		errorJSON(w, http.StatusBadGateway, fmt.Sprintf("order search failed: %v", err))
		slog.Error("Order search failed", "req_id", reqID, "environment", env.Name, "err", err)
		return
	}

	// The broker push rides along on every lookup but never fails it.
	events, dropped := transform.Orders(orders)
	for _, d := range dropped {
		slog.Warn("Order left out of broker push", "req_id", reqID, "order_id", d.OrderID, "reason", d.Reason)
	}
	report := broker.New(env.Broker, h.brokerOptions...).PushLoadEvents(r.Context(), events)
	if report.Error != "" {
		slog.Warn("Broker push failed", "req_id", reqID, "environment", env.Name, "err", report.Error)
	}

	var order map[string]any
	if len(orders) > 0 {
		order = orders[0]
	}

	view := transform.Compact(order, !h.negotiation)
	if view.LoadNumber == nil || *view.LoadNumber == "" {
		view.InternalNextSteps = transform.NotFoundNextSteps
	}
	view.BrokerLoadID = report.LoadID()

	if h.negotiation {
		if rate := movementRate(order); rate != nil {
			view.Rate = rate
		} else {
			view.Rate = "TBD"
		}
		view.BrokerResponse = report.Response
	}

	writeJSON(w, http.StatusOK, view)
}

// environment resolves the requested environment, defaulting to the
// first configured one.
func (h *FindLoad) environment(name string) (config.Environment, bool) {
	if name != "" {
		return h.envs.Environment(name)
	}
	envs := h.envs.Environments()
	if len(envs) == 0 {
		return config.Environment{}, false
	}
	return envs[0], true
}

// requestParams flattens the search filters out of the request: the
// JSON body for POST, the query string otherwise. order_id is accepted
// as an alias for load_number.
func requestParams(r *http.Request) (map[string]any, error) {
	params := make(map[string]any)
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			return nil, err
		}
	} else {
		for key, vals := range r.URL.Query() {
			params[key] = vals[0]
		}
	}

	if id, ok := params["order_id"]; ok {
		if _, exists := params["load_number"]; !exists {
			params["load_number"] = id
		}
		delete(params, "order_id")
	}
	return params, nil
}

// decodeQuery weakly decodes the flattened parameters into a search
// query. Keys with no dedicated field pass through as extra filters.
func decodeQuery(params map[string]any) (mcleod.SearchQuery, error) {
	var query mcleod.SearchQuery
	var meta mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &query,
		WeaklyTypedInput: true,
		Metadata:         &meta,
	})
	if err != nil {
		return query, err
	}
	if err := decoder.Decode(params); err != nil {
		return query, err
	}

	for _, key := range meta.Unused {
		if query.Extra == nil {
			query.Extra = make(map[string]string)
		}
		query.Extra[key] = fmt.Sprint(params[key])
	}
	return query, nil
}

func movementRate(order map[string]any) any {
	movements, _ := order["movement"].([]any)
	if len(movements) == 0 {
		return nil
	}
	first, _ := movements[0].(map[string]any)
	return first["override_max_pay_n"]
}
