package sweep

import (
	"context"
	"fmt"
	"log/slog"
)

// In-transit check-in call types, matched to the two daily runs.
const (
	CallMorning   = "morning"
	CallAfternoon = "afternoon"
)

// InTransit notifies about loads on the road: picked up at the first
// stop, not yet arrived at the last, with the movement marked TRANSIT.
// Every in-transit load gets both daily check-in calls.
type InTransit struct {
	sender WebhookSender
}

// NewInTransit returns an in-transit sweep processor.
func NewInTransit(sender WebhookSender) *InTransit {
	return &InTransit{sender: sender}
}

// Process filters the fetched orders and sends one check-in
// notification per in-transit order, tagged with the call type.
func (p *InTransit) Process(ctx context.Context, orders []map[string]any, webhookURL, callType string) []Outcome {
	outcomes := make([]Outcome, 0, len(orders))
	for _, order := range orders {
		outcomes = append(outcomes, p.processOrder(ctx, order, webhookURL, callType))
	}
	return outcomes
}

func (p *InTransit) processOrder(ctx context.Context, order map[string]any, webhookURL, callType string) Outcome {
	id := orderID(order)
	skip := func(reason string) Outcome {
		slog.Debug("In-transit skip", "order", id, "reason", reason)
		return Outcome{OrderID: id, CallType: callType, Reason: reason}
	}

	if !isInTransit(order) {
		return skip(ReasonNotInTransit)
	}

	movements := orderMovements(order)
	if len(movements) == 0 || movements[0] == nil {
		return skip(ReasonNoMovement)
	}
	movement := movements[0]
	if status := str(movement["brokerage_status"]); status != "TRANSIT" {
		return skip(fmt.Sprintf("status_%s", status))
	}

	driverPhone := str(movement["override_drvr_cell"])
	dispatchPhone := str(movement["carrier_phone"])
	if driverPhone == "" && dispatchPhone == "" {
		return skip(ReasonNoPhone)
	}

	payload := map[string]any{
		"order_id":        id,
		"movement_id":     movement["id"],
		"driver_phone":    driverPhone,
		"dispatch_phone":  dispatchPhone,
		"carrier_tractor": movement["carrier_tractor"],
		"carrier_trailer": movement["carrier_trailer"],
	}

	res := p.sender.Send(ctx, webhookURL, payload)
	outcome := Outcome{
		OrderID:  id,
		CallType: callType,
		Success:  res.Success,
		Status:   res.Status,
		Reason:   ReasonWebhookFailed,
	}
	if res.Success {
		outcome.Reason = ReasonWebhookSent
	}
	return outcome
}

// isInTransit reports whether the order was picked up at its first stop
// but has not arrived at its last. Single-stop orders are never in
// transit.
func isInTransit(order map[string]any) bool {
	stops := orderStops(order)
	if len(stops) < 2 {
		return false
	}
	first, last := stops[0], stops[len(stops)-1]
	pickedUp := first["actual_arrival"] != nil && str(first["actual_arrival"]) != ""
	delivered := last["actual_arrival"] != nil && str(last["actual_arrival"]) != ""
	return pickedUp && !delivered
}
