package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Call types of the two pre-shipment notifications per order.
const (
	CallTwoHourBefore      = "2_hour_before"
	CallThirtyMinuteBefore = "30_minute_before"
)

// PreShipment notifies about loads picking up within the next day. Each
// qualifying order gets two webhooks carrying a countdown to the 2-hour
// and 30-minute marks before the scheduled pickup.
type PreShipment struct {
	sender WebhookSender
	clock  clock
}

// NewPreShipment returns a pre-shipment sweep processor.
func NewPreShipment(sender WebhookSender, args ...Options) *PreShipment {
	opts := defaultOptions()
	for _, opt := range args {
		opt(&opts)
	}
	return &PreShipment{sender: sender, clock: opts.clock}
}

// Process filters the fetched orders and sends the notification pair
// for each one that qualifies. An order qualifies when its first stop
// has not been arrived at, carries a scheduled pickup time in a known
// timezone, its current movement is BOOKED, and it has a phone number.
func (p *PreShipment) Process(ctx context.Context, orders []map[string]any, webhookURL string) []Outcome {
	var outcomes []Outcome
	for _, order := range orders {
		outcomes = append(outcomes, p.processOrder(ctx, order, webhookURL)...)
	}
	return outcomes
}

func (p *PreShipment) processOrder(ctx context.Context, order map[string]any, webhookURL string) []Outcome {
	id := orderID(order)
	skip := func(reason string) []Outcome {
		slog.Debug("Pre-shipment skip", "order", id, "reason", reason)
		return []Outcome{{OrderID: id, Reason: reason}}
	}

	stops := orderStops(order)
	if len(stops) == 0 {
		return skip(ReasonNoStops)
	}

	first := stops[0]
	if first["actual_arrival"] != nil && str(first["actual_arrival"]) != "" {
		return skip(ReasonAlreadyPickedUp)
	}

	sched := str(first["sched_arrive_early"])
	if sched == "" {
		return skip(ReasonNoPickupTime)
	}

	loc, ok := stopLocation(str(first["__timezone"]))
	if !ok {
		return skip(ReasonUnknownTimezone)
	}
	pickupTime, err := parseStopTime(sched, loc)
	if err != nil {
		return skip(ReasonNoPickupTime)
	}

	movements := orderMovements(order)
	if len(movements) == 0 {
		return skip(ReasonNoMovement)
	}

	// The pickup belongs to the order's current movement, not
	// necessarily the first one.
	movementID := order["curr_movement_id"]
	var current map[string]any
	for _, m := range movements {
		if m != nil && scalar(m["id"]) == scalar(movementID) {
			current = m
			break
		}
	}
	if current == nil {
		return skip(ReasonMovementNotFound)
	}

	if status := str(current["brokerage_status"]); status != "BOOKED" {
		return skip(fmt.Sprintf("status_%s", status))
	}

	driverPhone := str(current["override_drvr_cell"])
	dispatchPhone := str(current["carrier_phone"])
	if driverPhone == "" && dispatchPhone == "" {
		return skip(ReasonNoPhone)
	}

	now := p.clock.Now().In(loc)
	twoHoursBefore := pickupTime.Add(-2 * time.Hour)
	thirtyMinutesBefore := pickupTime.Add(-30 * time.Minute)

	base := map[string]any{
		"order_id":              id,
		"movement_id":           movementID,
		"carrier_phone":         driverPhone,
		"dispatch_phone":        dispatchPhone,
		"total_stops":           len(stops),
		"carrier_tractor":       current["carrier_tractor"],
		"carrier_trailer":       current["carrier_trailer"],
		"scheduled_pickup_time": pickupTime.Format(time.RFC3339),
		"source":                "load_sync_pre_shipment",
		"timestamp":             p.clock.Now().UTC().Format(time.RFC3339),
	}

	var outcomes []Outcome
	for _, call := range []struct {
		callType string
		at       time.Time
	}{
		{CallTwoHourBefore, twoHoursBefore},
		{CallThirtyMinuteBefore, thirtyMinutesBefore},
	} {
		payload := make(map[string]any, len(base)+3)
		for k, v := range base {
			payload[k] = v
		}
		payload["call_type"] = call.callType
		payload["seconds_until_call"] = int(call.at.Sub(now).Seconds())
		payload["scheduled_call_time"] = call.at.Format(time.RFC3339)

		res := p.sender.Send(ctx, webhookURL, payload)
		outcome := Outcome{
			OrderID:  id,
			CallType: call.callType,
			Success:  res.Success,
			Status:   res.Status,
			Reason:   ReasonWebhookFailed,
		}
		if res.Success {
			outcome.Reason = ReasonWebhookSent
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
