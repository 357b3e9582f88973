package transform_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/brokerlink/loadsync/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder(t *testing.T) {
	t.Parallel()

	order := map[string]any{
		"id":              "123",
		"status":          "A",
		"__statusDescr":   "Available",
		"commodity":       "PAPER",
		"bill_distance":   195.0,
		"pieces":          12.0,
		"ltl":             "N",
		"hazmat":          "Y",
		"blnum":           "BOL-9",
		"revenue_code_id": "DAL",
		"customer_id":     "ACME01",
		"movement": []any{
			map[string]any{
				"carrier_tractor": "T-100",
				"carrier_trailer": "TR-200",
				"max_buy":         1500.0,
				"target_pay":      1200.0,
			},
		},
		"operationsUser": map[string]any{
			"name":          "Pat Doe",
			"email_address": "pat@example.com",
			"phone":         "(555) 123-4567",
		},
		"stops": []any{
			map[string]any{
				"stop_type":          "PU",
				"city_name":          "Dallas",
				"state":              "TX",
				"zip_code":           "75201",
				"sched_arrive_early": "20240101080000-0600",
				"sched_arrive_late":  "20240101120000-0600",
				"weight":             42000.0,
				"referenceNumbers": []any{
					map[string]any{"reference_qual": "OQ", "reference_number": "PN-1"},
					map[string]any{"__referenceQualDescr": "Purchase Order Number", "reference_number": "PO-2"},
				},
				"stopNotes": []any{
					map[string]any{"comments": "call ahead"},
					map[string]any{"comments": "dock 4"},
				},
			},
			map[string]any{
				"stop_type":          "SO",
				"city_name":          "Austin",
				"state":              "TX",
				"sched_arrive_early": "20240102090000-0600",
				"sched_arrive_late":  "20240102170000-0600",
			},
		},
		"__equipmentTypeDescr": "Van",
	}

	ev, err := transform.Order(order)
	require.NoError(t, err, "Order should not error")

	assert.Equal(t, "load_upsert", ev.EventType, "Event type is fixed")
	assert.Equal(t, "123", ev.CustomLoadID, "Load id should match")
	assert.Equal(t, transform.StatusAvailable, ev.Status, "Status should resolve to available")
	assert.Equal(t, "owned", ev.Type, "Load type is fixed")

	assert.Equal(t, "Van", ev.EquipmentTypeName, "Equipment should fall back to the descriptor")
	require.NotNil(t, ev.Miles, "Miles should be set")
	assert.Equal(t, 195, *ev.Miles, "Miles should come from the billed distance")
	require.NotNil(t, ev.MaxBuy, "Max buy should be set")
	assert.InEpsilon(t, 1500.0, *ev.MaxBuy, 1e-9, "Max buy should match")
	require.NotNil(t, ev.PostedCarrierRate, "Posted rate should be set")
	assert.InEpsilon(t, 1200.0, *ev.PostedCarrierRate, 1e-9, "Posted rate should come from target pay")
	require.NotNil(t, ev.Weight, "Weight should come from the first stop")
	assert.InEpsilon(t, 42000.0, *ev.Weight, 1e-9, "Weight should match")
	assert.Equal(t, "PAPER", ev.CommodityType, "Commodity should match")
	require.NotNil(t, ev.IsPartial, "Partial flag should be set")
	assert.False(t, *ev.IsPartial, "N means false")
	require.NotNil(t, ev.IsHazmat, "Hazmat flag should be set")
	assert.True(t, *ev.IsHazmat, "Y means true")
	assert.Equal(t, ev.IsHazmat, ev.IsHazardous, "Hazardous mirrors hazmat")
	assert.Nil(t, ev.IsTeamRequired, "Absent flag should stay unset")

	assert.Equal(t, "T-100", ev.TruckNumber, "Truck should come from the first movement")
	assert.Equal(t, "TR-200", ev.TrailerNumber, "Trailer should come from the first movement")
	assert.Equal(t, "DAL", ev.Branch, "Branch should come from the revenue code")

	require.NotNil(t, ev.Origin, "Origin should be set")
	assert.Equal(t, "Dallas", *ev.Origin.City, "Origin city should match")
	require.NotNil(t, ev.Destination, "Destination should be set")
	assert.Equal(t, "Austin", *ev.Destination.City, "Destination city should match")
	require.Len(t, ev.Stops, 2, "Both stops should be classified")

	assert.Equal(t, "PN-1", ev.PickupNumber, "Pickup number should match the OQ reference")
	assert.Equal(t, "PO-2", ev.PONumber, "PO number should match the descriptive reference")

	assert.Equal(t, "2024-01-01T08:00:00", ev.PickupDateOpen, "Pickup window open should match")
	assert.Equal(t, "2024-01-01T12:00:00", ev.PickupDateClose, "Pickup window close should match")
	assert.Equal(t, "2024-01-02T09:00:00", ev.DeliveryDateOpen, "Delivery window open should match")
	assert.Equal(t, "2024-01-02T17:00:00", ev.DeliveryDateClose, "Delivery window close should match")

	require.Len(t, ev.Contacts, 1, "Operations user should become a contact")
	assert.Equal(t, "Pat Doe", ev.Contacts[0].Name, "Contact name should match")
	assert.Equal(t, "5551234567", ev.Contacts[0].Phone, "Contact phone should be digits only")
	assert.Equal(t, "assigned", ev.Contacts[0].Type, "Contact type is fixed")

	assert.Equal(t, "call ahead \ndock 4", ev.SaleNotes, "Sale notes join the pickup stop's comments")
}

func TestOrderSparseOutput(t *testing.T) {
	t.Parallel()

	// A minimal order must still produce a valid event, and the payload
	// must omit everything the order did not carry.
	ev, err := transform.Order(map[string]any{"id": "77", "status": "A"})
	require.NoError(t, err, "Order should not error")

	raw, err := json.Marshal(ev)
	require.NoError(t, err, "Event should marshal")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload), "Payload should round trip")

	assert.Equal(t, map[string]any{
		"event_type":     "load_upsert",
		"custom_load_id": "77",
		"status":         "available",
		"type":           "owned",
	}, payload, "Only the mandatory fields should be emitted")
}

func TestOrderErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		order map[string]any
	}{
		"Nil order":           {order: nil},
		"Non object stop":     {order: map[string]any{"id": "1", "stops": []any{42.0}}},
		"Non object movement": {order: map[string]any{"id": "1", "movement": []any{"x"}}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := transform.Order(tc.order)
			require.Error(t, err, "Order should error")
		})
	}
}

func TestOrders(t *testing.T) {
	t.Parallel()

	orders := []map[string]any{
		{"id": "1", "status": "A"},
		{"id": "2", "stops": []any{"bad"}},
		{"id": "3", "status": "D"},
	}

	events, dropped := transform.Orders(orders)
	require.Len(t, events, 2, "Good orders should transform")
	assert.Equal(t, "1", events[0].CustomLoadID, "First event should match")
	assert.Equal(t, "3", events[1].CustomLoadID, "Third event should match")
	assert.Equal(t, transform.StatusDelivered, events[1].Status, "Status code D means delivered")

	require.Len(t, dropped, 1, "The malformed order should be dropped")
	assert.Equal(t, "2", dropped[0].OrderID, "Dropped order id should match")
	assert.Contains(t, dropped[0].Reason, "not an object", "Drop reason should explain the failure")
}

func TestOrderIsIdempotent(t *testing.T) {
	t.Parallel()

	order := map[string]any{
		"id":     "9",
		"status": "A",
		"stops": []any{
			map[string]any{"stop_type": "PU", "city_name": "Dallas"},
			map[string]any{"stop_type": "SO", "city_name": "Austin"},
		},
	}

	first, err := transform.Order(order)
	require.NoError(t, err, "First transform should not error")
	second, err := transform.Order(order)
	require.NoError(t, err, "Second transform should not error")
	assert.Equal(t, first, second, "Transforming twice should yield identical events")
}

func TestOrderEquipmentFromReference(t *testing.T) {
	t.Parallel()

	order := map[string]any{
		"id":                   "5",
		"__equipmentTypeDescr": "Van",
		"stops": []any{
			map[string]any{
				"stop_type": "PU",
				"referenceNumbers": []any{
					map[string]any{"__referenceQualDescr": "Equipment Initial", "reference_number": " RF-77 "},
				},
			},
			map[string]any{"stop_type": "SO"},
		},
	}

	ev, err := transform.Order(order)
	require.NoError(t, err, "Order should not error")
	assert.Equal(t, "RF-77", ev.EquipmentTypeName, "Equipment reference should win over the descriptor")
}

func TestOrderIDFallback(t *testing.T) {
	t.Parallel()

	ev, err := transform.Order(map[string]any{
		"freightGroup": map[string]any{"lme_order_id": " FG-42 "},
	})
	require.NoError(t, err, "Order should not error")
	assert.Equal(t, "FG-42", ev.CustomLoadID, "Load id should fall back to the freight group")
}

func TestOrderSaleNotesCap(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 3000)
	ev, err := transform.Order(map[string]any{
		"id": "8",
		"stops": []any{
			map[string]any{
				"stop_type": "PU",
				"stopNotes": []any{map[string]any{"comments": long}},
			},
			map[string]any{"stop_type": "SO"},
		},
	})
	require.NoError(t, err, "Order should not error")
	assert.Len(t, ev.SaleNotes, 2000, "Sale notes should be capped")
}
