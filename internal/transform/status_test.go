package transform_test

import (
	"testing"

	"github.com/brokerlink/loadsync/internal/transform"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		order map[string]any

		want transform.Status
	}{
		"Brokerage status wins": {
			order: map[string]any{
				"status":        "A",
				"__statusDescr": "Available",
				"movement": []any{
					map[string]any{"brokerage_status": "DISP"},
				},
			},
			want: transform.StatusDispatched,
		},
		"Brokerage status canonical spelling": {
			order: map[string]any{
				"movement": []any{
					map[string]any{"brokerage_status": "in_transit"},
				},
			},
			want: transform.StatusInTransit,
		},
		"Brokerage status descriptive spelling": {
			order: map[string]any{
				"movement": []any{
					map[string]any{"brokerage_status": "Picked Up"},
				},
			},
			want: transform.StatusPickedUp,
		},
		"Unrecognized brokerage status falls through": {
			order: map[string]any{
				"__statusDescr": "Delivered",
				"movement": []any{
					map[string]any{"brokerage_status": "whatever"},
				},
			},
			want: transform.StatusDelivered,
		},
		"Display status prefix match": {
			order: map[string]any{"__statusDescr": "Delivery Completed"},
			want:  transform.StatusDelivered,
		},
		"Status code D means delivered": {
			order: map[string]any{"status": "D"},
			want:  transform.StatusDelivered,
		},
		"Status code A means available": {
			order: map[string]any{"status": "A"},
			want:  transform.StatusAvailable,
		},
		"Status code review means available": {
			order: map[string]any{"status": "REVIEW"},
			want:  transform.StatusAvailable,
		},
		"Display status available without code": {
			order: map[string]any{"__statusDescr": "AVAILABLE"},
			want:  transform.StatusAvailable,
		},
		"Unknown status defaults to covered": {
			order: map[string]any{"status": "X", "__statusDescr": "Planning"},
			want:  transform.StatusCovered,
		},
		"Empty order defaults to covered": {
			order: map[string]any{},
			want:  transform.StatusCovered,
		},
		"Nil movement entry is tolerated": {
			order: map[string]any{
				"status":   "A",
				"movement": []any{nil},
			},
			want: transform.StatusAvailable,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := transform.DeriveStatus(tc.order)
			assert.Equal(t, tc.want, got, "DeriveStatus should match")
		})
	}
}
