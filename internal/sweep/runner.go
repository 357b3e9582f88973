package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/brokerlink/loadsync/internal/config"
	"github.com/brokerlink/loadsync/internal/constants"
	"github.com/brokerlink/loadsync/internal/mcleod"
)

// OrderSource fetches orders whose first pickup falls inside a window.
type OrderSource interface {
	SearchWindow(ctx context.Context, start, end string) ([]map[string]any, error)
}

// Runner executes sweeps across every configured environment.
type Runner struct {
	provider config.Provider
	sender   WebhookSender
	dedup    DedupStore
	metrics  *Metrics
	clock    clock

	newSource func(cfg mcleod.Config) (OrderSource, error)

	preShipmentLookahead time.Duration
	prePickupLookahead   time.Duration
	inTransitLookback    time.Duration
}

type runnerOptions struct {
	// Private members exported for tests.
	clock     clock
	newSource func(cfg mcleod.Config) (OrderSource, error)
}

// RunnerOptions represents an optional function to override Runner default values.
type RunnerOptions func(*runnerOptions)

// NewRunner returns a sweep runner over the provider's environments.
func NewRunner(provider config.Provider, sender WebhookSender, dedup DedupStore, metrics *Metrics, args ...RunnerOptions) *Runner {
	opts := runnerOptions{
		clock: realClock{},
		newSource: func(cfg mcleod.Config) (OrderSource, error) {
			return mcleod.New(cfg)
		},
	}
	for _, opt := range args {
		opt(&opts)
	}

	return &Runner{
		provider:  provider,
		sender:    sender,
		dedup:     dedup,
		metrics:   metrics,
		clock:     opts.clock,
		newSource: opts.newSource,

		preShipmentLookahead: constants.DefaultPreShipmentLookahead,
		prePickupLookahead:   constants.DefaultPrePickupLookahead,
		inTransitLookback:    constants.DefaultInTransitLookback,
	}
}

// PreShipment runs the pre-shipment sweep over every environment with a
// pre-shipment webhook configured.
func (r *Runner) PreShipment(ctx context.Context) []Summary {
	processor := NewPreShipment(r.sender, withClock(r.clock))
	return r.run(ctx, NamePreShipment, "",
		func(env config.Environment) string { return env.Webhooks.PreShipment },
		func(now time.Time) (string, string, error) {
			return PreShipmentWindow(now, r.preShipmentLookahead)
		},
		func(ctx context.Context, orders []map[string]any, url, _ string) []Outcome {
			return processor.Process(ctx, orders, url)
		})
}

// PrePickup runs the pre-pickup sweep over every environment with a
// pre-pickup webhook configured.
func (r *Runner) PrePickup(ctx context.Context) []Summary {
	processor := NewPrePickup(r.sender, r.dedup, withClock(r.clock))
	return r.run(ctx, NamePrePickup, "",
		func(env config.Environment) string { return env.Webhooks.PrePickup },
		func(now time.Time) (string, string, error) {
			start, end := PrePickupWindow(now, r.prePickupLookahead)
			return start, end, nil
		},
		func(ctx context.Context, orders []map[string]any, url, _ string) []Outcome {
			return processor.Process(ctx, orders, url)
		})
}

// InTransit runs the in-transit sweep over every environment with an
// in-transit webhook configured.
func (r *Runner) InTransit(ctx context.Context, callType string) []Summary {
	if callType != CallMorning && callType != CallAfternoon {
		callType = CallMorning
	}
	processor := NewInTransit(r.sender)
	return r.run(ctx, NameInTransit, callType,
		func(env config.Environment) string { return env.Webhooks.InTransit },
		func(now time.Time) (string, string, error) {
			return InTransitWindow(now, r.inTransitLookback)
		},
		func(ctx context.Context, orders []map[string]any, url, ct string) []Outcome {
			return processor.Process(ctx, orders, url, ct)
		})
}

func (r *Runner) run(ctx context.Context, sweepName, callType string,
	webhookOf func(config.Environment) string,
	window func(time.Time) (string, string, error),
	process func(context.Context, []map[string]any, string, string) []Outcome,
) []Summary {
	var summaries []Summary
	for _, env := range r.provider.Environments() {
		url := webhookOf(env)
		if url == "" || url == "N/A" {
			slog.Debug("Sweep disabled for environment", "sweep", sweepName, "environment", env.Name)
			continue
		}

		summary := Summary{Environment: env.Name, Sweep: sweepName, CallType: callType}

		start, end, err := window(r.clock.Now())
		if err != nil {
			summary.Error = err.Error()
			summaries = append(summaries, summary)
			continue
		}

		source, err := r.newSource(env.TMS)
		if err != nil {
			summary.Error = err.Error()
			summaries = append(summaries, summary)
			continue
		}

		slog.Info("Running sweep", "sweep", sweepName, "environment", env.Name, "start", start, "end", end)
		orders, err := source.SearchWindow(ctx, start, end)
		if err != nil {
			slog.Warn("Sweep fetch failed", "sweep", sweepName, "environment", env.Name, "err", err)
			summary.Error = err.Error()
			summaries = append(summaries, summary)
			continue
		}

		summary.OrdersChecked = len(orders)
		for _, o := range process(ctx, orders, url, callType) {
			summary.add(o)
		}

		r.metrics.record(sweepName, env.Name, summary.Outcomes)
		summaries = append(summaries, summary)
	}
	return summaries
}

func withClock(c clock) Options {
	return func(o *options) {
		o.clock = c
	}
}
