package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// defaultStopZone is assumed when a stop carries no timezone
// abbreviation. Pre-pickup keeps calling rather than skipping, so a
// reasonable central default beats dropping the order.
const defaultStopZone = "America/Chicago"

// PrePickup notifies about loads picking up within the next couple of
// hours, once per order, with a dedup check so reruns of the sweep do
// not call the same driver twice.
type PrePickup struct {
	sender WebhookSender
	dedup  DedupStore
	clock  clock
}

// NewPrePickup returns a pre-pickup sweep processor.
func NewPrePickup(sender WebhookSender, dedup DedupStore, args ...Options) *PrePickup {
	opts := defaultOptions()
	for _, opt := range args {
		opt(&opts)
	}
	return &PrePickup{sender: sender, dedup: dedup, clock: opts.clock}
}

// Process filters the fetched orders and sends one notification per
// qualifying order. An order qualifies when it has stops and a
// movement, has not been picked up, its first movement is COVERED, it
// has a phone number, and it was not already called.
func (p *PrePickup) Process(ctx context.Context, orders []map[string]any, webhookURL string) []Outcome {
	outcomes := make([]Outcome, 0, len(orders))
	for _, order := range orders {
		outcomes = append(outcomes, p.processOrder(ctx, order, webhookURL))
	}
	return outcomes
}

func (p *PrePickup) processOrder(ctx context.Context, order map[string]any, webhookURL string) Outcome {
	id := orderID(order)
	skip := func(reason string) Outcome {
		slog.Debug("Pre-pickup skip", "order", id, "reason", reason)
		return Outcome{OrderID: id, Reason: reason}
	}

	stops := orderStops(order)
	if len(stops) == 0 {
		return skip(ReasonNoStops)
	}
	movements := orderMovements(order)
	if len(movements) == 0 || movements[0] == nil {
		return skip(ReasonNoMovement)
	}

	first := stops[0]
	if first["actual_arrival"] != nil && str(first["actual_arrival"]) != "" {
		return skip(ReasonAlreadyPickedUp)
	}

	sched := str(first["sched_arrive_early"])
	if sched == "" {
		return skip(ReasonNoPickupTime)
	}

	tz := str(first["__timezone"])
	loc, ok := stopLocation(tz)
	if !ok {
		if tz != "" {
			// The fallback is for stops without a timezone only. An
			// abbreviation we cannot resolve skips the order.
			return skip(ReasonUnknownTimezone)
		}
		var err error
		if loc, err = time.LoadLocation(defaultStopZone); err != nil {
			return skip(ReasonUnknownTimezone)
		}
	}
	pickupTime, err := parseStopTime(sched, loc)
	if err != nil {
		return skip(ReasonNoPickupTime)
	}

	movement := movements[0]
	if status := str(movement["brokerage_status"]); status != "COVERED" {
		return skip(fmt.Sprintf("status_%s", status))
	}

	driverPhone := str(movement["override_drvr_cell"])
	dispatchPhone := str(movement["carrier_phone"])
	if driverPhone == "" && dispatchPhone == "" {
		return skip(ReasonNoPhone)
	}

	if p.dedup != nil && p.dedup.HasBeenCalled(ctx, id) {
		return skip(ReasonAlreadyCalled)
	}

	payload := map[string]any{
		"order_id":              id,
		"movement_id":           order["curr_movement_id"],
		"driver_phone":          digitsOnly(driverPhone),
		"dispatch_phone":        digitsOnly(dispatchPhone),
		"carrier_name":          movement["carrier_contact"],
		"carrier_tractor":       movement["carrier_tractor"],
		"carrier_trailer":       movement["carrier_trailer"],
		"scheduled_pickup_time": pickupTime.Format(time.RFC3339),
		"pickup_location": map[string]any{
			"city":    firstNonEmpty(str(first["city_name"]), str(first["city"])),
			"state":   first["state"],
			"zip":     firstNonEmpty(str(first["zip_code"]), str(first["zip"])),
			"address": first["address"],
		},
		"source":    "load_sync_pre_pickup",
		"timestamp": p.clock.Now().UTC().Format(time.RFC3339),
	}

	res := p.sender.Send(ctx, webhookURL, payload)
	outcome := Outcome{
		OrderID: id,
		Success: res.Success,
		Status:  res.Status,
		Reason:  ReasonWebhookFailed,
	}
	if res.Success {
		outcome.Reason = ReasonWebhookSent
		if p.dedup != nil {
			p.dedup.MarkCalled(ctx, id, pickupTime.Format(time.RFC3339))
		}
	}
	return outcome
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
