package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"ArticleSignals/internal/ports"
)

// Scheduler drives RunAll from an interval driver. Triggers that arrive while
// a run is still in flight are dropped.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger

	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
}

func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start hands the trigger handler to the driver. A nil driver or pipeline
// leaves scheduling off.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) { s.trigger(ctx, trigger) })
}

func (s *Scheduler) trigger(ctx context.Context, at time.Time) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, trigger skipped", "trigger", at)
		return
	}
	defer s.running.Store(false)

	started := time.Now()
	err := s.pipeline.RunAll(ctx, at)
	n := s.runs.Add(1)
	if err != nil {
		s.failures.Add(1)
		s.logger.Error("scheduled run failed", "run", n, "trigger", at, "error", err)
		return
	}
	s.logger.Debug("scheduled run finished", "run", n, "elapsed", time.Since(started))
}

// Stats reports how many triggers ran and how many of those failed.
func (s *Scheduler) Stats() (runs, failures int64) {
	return s.runs.Load(), s.failures.Load()
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
