package infra

import (
	"context"
	"testing"
	"time"

	"request-governor/middleware/governor/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestInFlightRegistry_AdmitsOncePerFingerprint(t *testing.T) {
	r := NewInFlightRegistry()

	require.True(t, r.TryAdmit("GET /a"))
	assert.False(t, r.TryAdmit("GET /a"))
	assert.True(t, r.TryAdmit("GET /b"))

	r.Release("GET /a")
	assert.True(t, r.TryAdmit("GET /a"))
	assert.Equal(t, 2, r.Len())
}

func TestLedger_IsCoolingDown(t *testing.T) {
	l := NewLedger()
	l.RecordCompletion("GET /a", t0)

	assert.True(t, l.IsCoolingDown("GET /a", t0.Add(999*time.Millisecond), time.Second))
	assert.False(t, l.IsCoolingDown("GET /a", t0.Add(time.Second), time.Second))
	assert.False(t, l.IsCoolingDown("GET /b", t0, time.Second))
}

func TestLedger_SweepIsTimeDriven(t *testing.T) {
	l := NewLedger()
	l.RecordCompletion("GET /old", t0)
	l.RecordCompletion("GET /new", t0.Add(4*time.Minute))

	l.Sweep(t0.Add(5*time.Minute), 5*time.Minute)
	assert.Equal(t, 2, l.Len(), "entry exactly at retention is kept")

	l.Sweep(t0.Add(5*time.Minute+time.Millisecond), 5*time.Minute)
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.IsCoolingDown("GET /old", t0.Add(5*time.Minute+time.Millisecond), 10*time.Minute),
		"pruned entry must no longer block")
}

func TestLedger_JanitorSweepsWithoutRequests(t *testing.T) {
	l := NewLedger()
	l.RecordCompletion("GET /a", time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.StartJanitor(ctx, SystemClock{}, 2*time.Millisecond, time.Minute)

	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 2*time.Millisecond)
}

func TestGate_LatestEngagementWins(t *testing.T) {
	g := NewGate()
	assert.False(t, g.IsEngaged(t0))

	g.Engage(t0, 10*time.Second)
	assert.True(t, g.IsEngaged(t0.Add(9*time.Second)))

	// novo trip reinicia o relógio mesmo com duração menor
	g.Engage(t0.Add(2*time.Second), 2*time.Second)
	assert.Equal(t, time.Second, g.Remaining(t0.Add(3*time.Second)))
	assert.False(t, g.IsEngaged(t0.Add(4*time.Second)))
	assert.Equal(t, time.Duration(0), g.Remaining(t0.Add(time.Hour)))
}

func TestBackoff_ExponentialDelaysUntilCap(t *testing.T) {
	var b domain.Backoff = NewBackoff(3, time.Second)

	var got []time.Duration
	for {
		d, ok := b.NextDelay()
		if !ok {
			break
		}
		got = append(got, d)
	}

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, got)
	assert.Equal(t, 3, b.Attempts())

	b.Reset()
	d, ok := b.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
}

func TestBackoff_ManyRetriesSaturateInsteadOfOverflowing(t *testing.T) {
	b := NewBackoff(64, time.Second)

	prev := time.Duration(0)
	for i := 1; i <= 64; i++ {
		d, ok := b.NextDelay()
		require.True(t, ok)
		require.GreaterOrEqual(t, d, prev, "retry %d", i)
		require.LessOrEqual(t, d, domain.MaxDelay, "retry %d", i)
		prev = d
	}
	assert.Equal(t, domain.MaxDelay, prev)
}

func TestBackoff_ZeroRetriesNeverRetries(t *testing.T) {
	b := NewBackoff(0, time.Second)
	_, ok := b.NextDelay()
	assert.False(t, ok)
}

func TestSystemClock_SleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SystemClock{}.Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SystemClock{}.Sleep(context.Background(), time.Millisecond))
}

func TestMemoryStatsStore_CountsByOutcomeAndRoute(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSuccess, Method: "GET", Path: "/a"})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeGated, Method: "GET", Path: "/a"})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeGated, Method: "POST", Path: "/b"})

	assert.Equal(t, int64(2), s.Count(domain.OutcomeGated))
	assert.Equal(t, int64(1), s.Count(domain.OutcomeSuccess))
	assert.Equal(t, int64(1), s.ByRoute()["GET /a"][domain.OutcomeGated])
	assert.Equal(t, int64(1), s.ByRoute()["POST /b"][domain.OutcomeGated])
}

func TestChanPool_BlocksWhenFull(t *testing.T) {
	p := NewChanPool(1)

	release, ok := p.Acquire(context.Background())
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok = p.Acquire(ctx)
	assert.False(t, ok)

	release()
	release2, ok := p.Acquire(context.Background())
	require.True(t, ok)
	release2()
}
