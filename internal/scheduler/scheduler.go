// Package scheduler drives periodic, cron-triggered core operations: cache
// warm/refresh passes over the tracked universe, and the daily paper-trader
// rebalance. It holds no domain logic itself — every tick is one Dispatch
// call, kept uniform with every other entry point into the core.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/core/dispatcher"
)

// Job is one schedulable unit: a (module, capability) dispatch invocation
// run on a cron expression, with fixed params.
type Job struct {
	Name         string
	Schedule     string // 6-field cron expression (seconds minutes hours dom month dow)
	ModuleID     string
	CapabilityID string
	Params       map[string]any
}

// Scheduler wraps robfig/cron, dispatching each registered Job's capability
// on its own schedule.
type Scheduler struct {
	cron *cron.Cron
	d    *dispatcher.Dispatcher
	log  zerolog.Logger
}

// New builds a Scheduler bound to a Dispatcher. Cron expressions take a
// required leading seconds field (six fields), as robfig/cron's
// WithSeconds parser expects.
func New(d *dispatcher.Dispatcher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		d:    d,
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds a Job to the cron schedule. Returns an error if the cron
// expression cannot be parsed.
func (s *Scheduler) Register(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() {
		s.run(job)
	})
	return err
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatcher.DefaultTimeout)
	defer cancel()

	result := s.d.Dispatch(ctx, dispatcher.Request{
		ModuleID:     job.ModuleID,
		CapabilityID: job.CapabilityID,
		Params:       job.Params,
	})
	if !result.OK {
		s.log.Warn().Str("job", job.Name).Str("kind", string(result.Error.Kind)).Str("message", result.Error.Message).Msg("scheduled job failed")
		return
	}
	s.log.Info().Str("job", job.Name).Int64("duration_ms", result.Meta.DurationMS).Msg("scheduled job completed")
}

// Start begins running the cron schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron schedule, waiting for any running job to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
	}
}
