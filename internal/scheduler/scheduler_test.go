package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-lens/internal/types"
)

type scriptedCycle struct {
	mu       sync.Mutex
	calls    int
	inFlight int32
	overlap  bool
	results  []error
	panicAt  int
	onCall   func(n int)
	duration time.Duration
}

func (c *scriptedCycle) RunCycle(ctx context.Context) (*types.CycleReport, error) {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		c.overlap = true
	}
	defer atomic.AddInt32(&c.inFlight, -1)

	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()

	if c.duration > 0 {
		time.Sleep(c.duration)
	}
	if c.onCall != nil {
		c.onCall(n)
	}
	if c.panicAt == n {
		panic("boom")
	}
	var err error
	if n <= len(c.results) {
		err = c.results[n-1]
	}
	report := &types.CycleReport{ID: "cycle", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err != nil {
		report.Error = err.Error()
	}
	return report, err
}

func TestRunStartsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := &scriptedCycle{onCall: func(int) { cancel() }}
	s := New(cycle, time.Hour)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not run immediately")
	}
	assert.Equal(t, 1, cycle.calls)
	assert.Equal(t, StateStopped, s.Snapshot().State)
}

func TestErrorsDoNotStopScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := &scriptedCycle{
		results: []error{errors.New("classifier failed"), nil, nil},
		panicAt: 2,
		onCall: func(n int) {
			if n == 3 {
				cancel()
			}
		},
	}
	var reports []*types.CycleReport
	sink := func(_ context.Context, r *types.CycleReport) error {
		reports = append(reports, r)
		return errors.New("disk full")
	}
	s := New(cycle, 5*time.Millisecond, sink)

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 3, cycle.calls)
	require.Len(t, reports, 3)
	assert.Equal(t, "classifier failed", reports[0].Error)
	assert.Contains(t, reports[1].Error, "panicked")

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Cycles)
	assert.Equal(t, 2, snap.Failures)
	assert.Empty(t, snap.LastError)
}

func TestCyclesNeverOverlap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := &scriptedCycle{
		duration: 20 * time.Millisecond,
		onCall: func(n int) {
			if n == 4 {
				cancel()
			}
		},
	}
	s := New(cycle, time.Millisecond)
	require.NoError(t, s.Run(ctx))
	assert.False(t, cycle.overlap)
}

func TestIntervalMeasuredFromCycleEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var starts []time.Time
	cycle := &scriptedCycle{
		duration: 30 * time.Millisecond,
		onCall: func(n int) {
			starts = append(starts, time.Now())
			if n == 2 {
				cancel()
			}
		},
	}
	s := New(cycle, 30*time.Millisecond)
	require.NoError(t, s.Run(ctx))

	require.Len(t, starts, 2)
	// each onCall fires after the cycle's own 30ms, plus the 30ms wait
	assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), 60*time.Millisecond)
}

func TestRunOnceUpdatesSnapshot(t *testing.T) {
	s := New(&scriptedCycle{results: []error{errors.New("db locked")}}, time.Minute)
	assert.Equal(t, StateIdle, s.Snapshot().State)
	assert.Equal(t, "1m0s", s.Snapshot().Interval)

	report, err := s.RunOnce(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 1, snap.Cycles)
	assert.Equal(t, "db locked", snap.LastError)
	assert.Same(t, report, snap.LastReport)
	assert.False(t, snap.LastFinishedAt.Before(snap.LastStartedAt))
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&scriptedCycle{}, 0)
	assert.Equal(t, time.Hour, s.interval)
}
