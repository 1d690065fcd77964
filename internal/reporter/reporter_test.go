package reporter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/sqlsink/internal/metrics"
)

type fakeScheduler struct {
	interval time.Duration
	fn       func()
	stopped  bool
}

func (s *fakeScheduler) Schedule(_ context.Context, interval time.Duration, fn func()) {
	s.interval = interval
	s.fn = fn
}

func (s *fakeScheduler) Stop() {
	s.stopped = true
}

func TestReporter_StartPullsSnapshotPerTick(t *testing.T) {
	reg := metrics.NewRegistry()
	require.NoError(t, reg.RegisterGauge("queue.depth", metrics.GaugeFunc(func() any {
		return 7
	})))

	cfg := DefaultConfig()
	cfg.Interval = 5 * time.Second

	conn := newFakeConn()
	sched := &fakeScheduler{}

	r, err := New(testLog(), cfg, reg, &fakeSource{conn: conn},
		WithClock(fixedClock),
		WithScheduler(sched),
	)
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	require.NotNil(t, sched.fn)
	assert.Equal(t, 5*time.Second, sched.interval)

	// Drive two cycles by hand.
	sched.fn()
	sched.fn()

	assert.Equal(t, 2, conn.commits)

	gaugeRows := 0
	for _, call := range conn.execs {
		if len(call.rows) > 0 {
			gaugeRows += len(call.rows)
		}
	}

	assert.Equal(t, 2, gaugeRows)
}

func TestReporter_StopOwnsScheduler(t *testing.T) {
	sched := &fakeScheduler{}

	r, err := New(testLog(), DefaultConfig(), metrics.NewRegistry(),
		&fakeSource{conn: newFakeConn()}, WithScheduler(sched))
	require.NoError(t, err)

	require.NoError(t, r.Stop())
	assert.True(t, sched.stopped)
}

func TestReporter_StopLeavesExternalScheduler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShutdownSchedulerOnStop = false

	sched := &fakeScheduler{}

	r, err := New(testLog(), cfg, metrics.NewRegistry(),
		&fakeSource{conn: newFakeConn()}, WithScheduler(sched))
	require.NoError(t, err)

	require.NoError(t, r.Stop())
	assert.False(t, sched.stopped)
}

func TestSnapshotOf(t *testing.T) {
	reg := metrics.NewRegistry()
	require.NoError(t, reg.RegisterCounter("requests", staticCounter(42)))
	require.NoError(t, reg.RegisterMeter("throughput", staticMeter{n: 1}))

	snap := SnapshotOf(reg)

	assert.Len(t, snap.Counters, 1)
	assert.Len(t, snap.Meters, 1)
	assert.Empty(t, snap.Gauges)
	assert.Empty(t, snap.Histograms)
	assert.Empty(t, snap.Timers)
}

func TestTickerScheduler(t *testing.T) {
	sched := newTickerScheduler()

	var ticks atomic.Int64

	sched.Schedule(context.Background(), 10*time.Millisecond, func() {
		ticks.Add(1)
	})

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	sched.Stop()
	// Stop is idempotent.
	sched.Stop()

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}
