package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/brokerlink/loadsync/internal/sweep"
	"github.com/google/uuid"
)

// SweepRunner triggers the notification sweeps across every configured
// environment. Implemented by sweep.Runner.
type SweepRunner interface {
	PreShipment(ctx context.Context) []sweep.Summary
	PrePickup(ctx context.Context) []sweep.Summary
	InTransit(ctx context.Context, callType string) []sweep.Summary
}

// Sync serves the on-demand sweep triggers, mirroring what the
// scheduler runs in the background.
type Sync struct {
	runner SweepRunner
}

// NewSync creates the sweep trigger handler.
func NewSync(runner SweepRunner) *Sync {
	return &Sync{runner: runner}
}

// PreShipment triggers the pre-shipment sweep and reports the outcome.
func (h *Sync) PreShipment(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, sweep.NamePreShipment, h.runner.PreShipment(r.Context()))
}

// PrePickup triggers the pre-pickup sweep and reports the outcome.
func (h *Sync) PrePickup(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, sweep.NamePrePickup, h.runner.PrePickup(r.Context()))
}

// InTransit triggers the in-transit sweep. The call_type query
// parameter selects the morning or afternoon check-in.
func (h *Sync) InTransit(w http.ResponseWriter, r *http.Request) {
	callType := r.URL.Query().Get("call_type")
	h.respond(w, r, sweep.NameInTransit, h.runner.InTransit(r.Context(), callType))
}

func (h *Sync) respond(w http.ResponseWriter, r *http.Request, sweepName string, summaries []sweep.Summary) {
	reqID := uuid.New().String()

	sent := 0
	for _, s := range summaries {
		sent += s.WebhooksSent
	}
	slog.Info("Sweep triggered", "req_id", reqID, "sweep", sweepName, "environments", len(summaries), "webhooks_sent", sent)

	writeJSON(w, http.StatusOK, map[string]any{
		"sweep":     sweepName,
		"summaries": summaries,
	})
}
