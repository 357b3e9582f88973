package sweep

import (
	"time"

	"github.com/brokerlink/loadsync/internal/mcleod"
)

type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// WithClock sets the clock for a sweep processor.
func WithClock(c clock) Options {
	return withClock(c)
}

// WithRunnerClock sets the clock for the runner.
func WithRunnerClock(c clock) RunnerOptions {
	return func(o *runnerOptions) {
		o.clock = c
	}
}

// WithNewSource sets the order source factory for the runner.
func WithNewSource(f func(cfg mcleod.Config) (OrderSource, error)) RunnerOptions {
	return func(o *runnerOptions) {
		o.newSource = f
	}
}
