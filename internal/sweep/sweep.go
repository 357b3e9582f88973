// Package sweep implements the scheduled notification passes over TMS
// order batches: pre-shipment, pre-pickup and in-transit.
package sweep

import (
	"context"
	"time"

	"github.com/brokerlink/loadsync/internal/webhook"
)

// Sweep names, used in summaries and metric labels.
const (
	NamePreShipment = "pre_shipment"
	NamePrePickup   = "pre_pickup"
	NameInTransit   = "in_transit"
)

// Per-order outcome reasons.
const (
	ReasonNoStops          = "no_stops"
	ReasonNoMovement       = "no_movement"
	ReasonMovementNotFound = "movement_not_found"
	ReasonAlreadyPickedUp  = "already_picked_up"
	ReasonNotInTransit     = "not_in_transit"
	ReasonNoPickupTime     = "no_pickup_time"
	ReasonUnknownTimezone  = "unknown_timezone"
	ReasonNoPhone          = "no_phone"
	ReasonAlreadyCalled    = "already_called"
	ReasonWebhookSent      = "webhook_sent"
	ReasonWebhookFailed    = "webhook_failed"
)

// WebhookSender delivers a notification payload.
type WebhookSender interface {
	Send(ctx context.Context, url string, payload map[string]any) webhook.Result
}

// DedupStore remembers which orders were already notified.
type DedupStore interface {
	HasBeenCalled(ctx context.Context, orderID string) bool
	MarkCalled(ctx context.Context, orderID, pickupTime string) bool
}

// Outcome is the per-order result of one sweep pass.
type Outcome struct {
	OrderID  string `json:"order_id"`
	CallType string `json:"call_type,omitempty"`
	Reason   string `json:"reason"`
	Success  bool   `json:"success"`
	Status   int    `json:"webhook_status,omitempty"`
}

// Summary aggregates one sweep run over one environment.
type Summary struct {
	Environment   string    `json:"environment,omitempty"`
	Sweep         string    `json:"sweep"`
	CallType      string    `json:"call_type,omitempty"`
	OrdersChecked int       `json:"orders_checked"`
	WebhooksSent  int       `json:"webhooks_sent"`
	Outcomes      []Outcome `json:"webhook_results"`
	Error         string    `json:"error,omitempty"`
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Reason == ReasonWebhookSent || o.Reason == ReasonWebhookFailed {
		s.WebhooksSent++
	}
}

type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type options struct {
	// Private member exported for tests.
	clock clock
}

// Options represents an optional function to override sweep processor default values.
type Options func(*options)

func defaultOptions() options {
	return options{clock: realClock{}}
}
