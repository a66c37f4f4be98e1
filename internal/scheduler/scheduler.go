// Package scheduler drives the pipeline: one cycle immediately, then one
// cycle per interval measured from the end of the previous cycle. Cycles
// never overlap.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Snapshot is a point-in-time view of the scheduler, safe to serialize.
type Snapshot struct {
	State          State              `json:"state"`
	Interval       string             `json:"interval"`
	Cycles         int                `json:"cycles"`
	Failures       int                `json:"failures"`
	LastStartedAt  time.Time          `json:"last_started_at"`
	LastFinishedAt time.Time          `json:"last_finished_at"`
	NextRunAt      time.Time          `json:"next_run_at"`
	LastError      string             `json:"last_error,omitempty"`
	LastReport     *types.CycleReport `json:"last_report,omitempty"`
}

// Sink receives every cycle report, including reports of failed cycles.
// Sink errors are logged and otherwise ignored.
type Sink func(ctx context.Context, report *types.CycleReport) error

type Scheduler struct {
	cycle    interfaces.Cycle
	interval time.Duration
	sinks    []Sink
	now      func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

func New(cycle interfaces.Cycle, interval time.Duration, sinks ...Sink) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		cycle:    cycle,
		interval: interval,
		sinks:    sinks,
		now:      time.Now,
		snap:     Snapshot{State: StateIdle, Interval: interval.String()},
	}
}

// Run blocks until ctx is cancelled. Cycle errors are logged and never stop
// the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info(ctx, "Scheduler started", "interval", s.interval.String())
	defer s.setState(StateStopped)

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			logger.ErrorWithErr(ctx, "Cycle failed, waiting for next run", err)
		}
		if ctx.Err() != nil {
			logger.Info(ctx, "Scheduler stopped")
			return nil
		}

		next := s.now().Add(s.interval)
		s.mu.Lock()
		s.snap.NextRunAt = next
		s.mu.Unlock()
		logger.Debug(ctx, "Next cycle scheduled", "next_run_at", next)

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info(ctx, "Scheduler stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce executes a single cycle, updates the snapshot and feeds the sinks.
// Panics inside the cycle are converted into errors.
func (s *Scheduler) RunOnce(ctx context.Context) (*types.CycleReport, error) {
	started := s.now()
	s.mu.Lock()
	s.snap.State = StateRunning
	s.snap.LastStartedAt = started
	s.mu.Unlock()

	report, err := s.runCycle(ctx)
	if report == nil {
		report = &types.CycleReport{StartedAt: started, FinishedAt: s.now()}
		if err != nil {
			report.Error = err.Error()
		}
	}

	s.mu.Lock()
	s.snap.State = StateIdle
	s.snap.Cycles++
	s.snap.LastFinishedAt = s.now()
	s.snap.LastReport = report
	s.snap.LastError = ""
	if err != nil {
		s.snap.Failures++
		s.snap.LastError = err.Error()
	}
	s.mu.Unlock()

	for _, sink := range s.sinks {
		if serr := sink(ctx, report); serr != nil {
			logger.Warn(ctx, "Cycle report sink failed", "error", serr, "cycle_id", report.ID)
		}
	}
	return report, err
}

func (s *Scheduler) runCycle(ctx context.Context) (report *types.CycleReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return s.cycle.RunCycle(ctx)
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.snap.State = st
	s.mu.Unlock()
}
