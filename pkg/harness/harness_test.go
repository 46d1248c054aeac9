package harness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func costly(clock *fakeClock, name string, cost time.Duration) timer.Candidate {
	return timer.Func(name, func(v any) any {
		clock.now += cost
		return v
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHarness(clock timer.Clock, out io.Writer, opts ...Option) *Harness {
	base := []Option{WithClock(clock), WithOutput(out), WithLogger(quietLogger())}
	return New(append(base, opts...)...)
}

func TestMeasure_SingleCandidate(t *testing.T) {
	clock := &fakeClock{}
	var out bytes.Buffer
	h := newTestHarness(clock, &out)

	ranked, err := h.Measure(context.Background(), timer.Single("x"), costly(clock, "identity", time.Microsecond))
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	r := ranked[0]
	assert.Equal(t, "identity", r.Name)
	assert.Equal(t, 1, r.Index)
	assert.Equal(t, 999990, r.Iterations)
	assert.Equal(t, 4, r.CalibrationSteps)
	assert.Equal(t, timer.StrategyInline, r.Strategy)
	assert.Equal(t, "x", r.Preview)
	assert.InDelta(t, 1e6, r.OpsPerSec, 1)
	assert.False(t, r.Compared)

	assert.Contains(t, out.String(), "identity")
	assert.NotContains(t, out.String(), report.ColCompareToFastest)
}

func TestMeasure_SlowCandidateRanksLast(t *testing.T) {
	clock := &fakeClock{}
	var out bytes.Buffer
	h := newTestHarness(clock, &out)

	ranked, err := h.Measure(context.Background(), timer.Single("x"),
		costly(clock, "fast", time.Microsecond),
		costly(clock, "slow", 100*time.Microsecond),
	)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "fast", ranked[0].Name)
	assert.Equal(t, "slow", ranked[1].Name)
	assert.True(t, ranked[0].Fastest)
	assert.True(t, ranked[1].Slowest)
	assert.GreaterOrEqual(t, ranked[1].PercentSlower, 90.0)

	// Slowest throughput is 10,000 calls per second: 1000 * 1s / 100.1ms.
	assert.Equal(t, 9990, ranked[1].Iterations)

	for _, want := range []string{"fast", "slow", "Fastest", "Slowest", report.ColCompareToSlowest} {
		assert.Contains(t, out.String(), want)
	}
}

func TestMeasure_KeepsInputOrder(t *testing.T) {
	clock := &fakeClock{}
	h := newTestHarness(clock, io.Discard)

	ranked, err := h.Measure(context.Background(), timer.Single("x"),
		costly(clock, "c", 300*time.Microsecond),
		costly(clock, "a", 10*time.Microsecond),
		costly(clock, "b", 100*time.Microsecond),
	)
	require.NoError(t, err)

	var names []string
	for _, r := range ranked {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
	assert.True(t, ranked[0].Slowest)
	assert.True(t, ranked[1].Fastest)
}

func TestMeasure_PanicAbortsRun(t *testing.T) {
	clock := &fakeClock{}
	h := newTestHarness(clock, io.Discard)

	calls := 0
	ranked, err := h.Measure(context.Background(), timer.Single("x"),
		timer.Func("bad", func(v any) any { panic("boom") }),
		timer.Func("good", func(v any) any {
			calls++
			return v
		}),
	)
	require.Error(t, err)
	assert.Nil(t, ranked)
	assert.Zero(t, calls)

	var fault *timer.InvocationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "bad", fault.Candidate)
	assert.Equal(t, 1, fault.Index)
	assert.Equal(t, timer.PhasePreview, fault.Phase)
	assert.Equal(t, "x", fault.Input)

	var p *timer.PanicError
	require.ErrorAs(t, err, &p)
	assert.Equal(t, "boom", p.Value)
	assert.Contains(t, err.Error(), "bad")
}

func TestMeasure_PanicDuringCalibration(t *testing.T) {
	clock := &fakeClock{}
	h := newTestHarness(clock, io.Discard)

	calls := 0
	_, err := h.Measure(context.Background(), timer.Single("x"), timer.Func("flaky", func(v any) any {
		calls++
		clock.now += time.Microsecond
		if calls == 50 {
			panic(errors.New("worn out"))
		}
		return v
	}))

	var fault *timer.InvocationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, timer.PhaseCalibration, fault.Phase)
	// The first call was the untimed preview.
	assert.Equal(t, 48, fault.Iteration)
	assert.EqualError(t, errors.Unwrap(errors.Unwrap(err)), "worn out")
}

func TestMeasure_ContinueModeRanksSurvivors(t *testing.T) {
	clock := &fakeClock{}
	h := newTestHarness(clock, io.Discard, WithFaultMode(FaultContinue))

	ranked, err := h.Measure(context.Background(), timer.Single("x"),
		timer.Func("broken", func(v any) (any, error) { return nil, errors.New("nope") }),
		costly(clock, "ok", time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorContains(t, err, "nope")

	var fault *timer.InvocationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "broken", fault.Candidate)

	require.Len(t, ranked, 1)
	assert.Equal(t, "ok", ranked[0].Name)
	assert.Equal(t, 2, ranked[0].Index)
	assert.False(t, ranked[0].Compared)
}

func TestMeasure_ArityMismatch(t *testing.T) {
	h := newTestHarness(&fakeClock{}, io.Discard)

	_, err := h.Measure(context.Background(), timer.Single("x"),
		timer.Func("pair", func(a, b string) string { return a + b }))
	require.ErrorIs(t, err, timer.ErrArityMismatch)

	var fault *timer.InvocationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, timer.PhasePrepare, fault.Phase)
	assert.Equal(t, -1, fault.Iteration)
}

func TestMeasure_NonConvergence(t *testing.T) {
	h := newTestHarness(&fakeClock{}, io.Discard, WithMaxScalingSteps(2))

	_, err := h.Measure(context.Background(), timer.Single("x"), timer.Func("free", func(v any) any { return v }))
	require.ErrorIs(t, err, timer.ErrCalibrationNonConvergence)
}

func TestMeasure_InvalidOptions(t *testing.T) {
	h := newTestHarness(&fakeClock{}, io.Discard, WithStrategy("guess"))

	_, err := h.Measure(context.Background(), timer.Single("x"), timer.Func("id", func(v any) any { return v }))
	require.Error(t, err)
	assert.ErrorContains(t, err, "guess")
}

func TestMeasure_CancelledContextSkipsCandidates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	h := newTestHarness(&fakeClock{}, io.Discard)
	_, err := h.Measure(ctx, timer.Single("x"), timer.Func("id", func(v any) any {
		calls++
		return v
	}))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

type cancelAfterFirst struct {
	NopObserver
	cancel context.CancelFunc
}

func (c cancelAfterFirst) CandidateFinished(context.Context, Outcome) { c.cancel() }

func TestMeasure_CancelBetweenCandidates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{}
	second := 0
	h := newTestHarness(clock, io.Discard, WithObserver(cancelAfterFirst{cancel: cancel}))
	_, err := h.Measure(ctx, timer.Single("x"),
		costly(clock, "first", time.Millisecond),
		timer.Func("second", func(v any) any {
			second++
			return v
		}),
	)
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "candidate 2 of 2")
	assert.Zero(t, second)
}

type recorder struct {
	events []string
}

func (r *recorder) RunStarted(ctx context.Context, args timer.ArgumentSet, n int) context.Context {
	r.events = append(r.events, "run:"+args.String())
	return ctx
}

func (r *recorder) CandidateStarted(ctx context.Context, _ int, name string) context.Context {
	r.events = append(r.events, "start:"+name)
	return ctx
}

func (r *recorder) CheckpointSampled(_ context.Context, name string, st timer.CalibrationState) {
	if st.Converged {
		r.events = append(r.events, "converged:"+name)
	}
}

func (r *recorder) CandidateFinished(_ context.Context, o Outcome) {
	r.events = append(r.events, "finish:"+o.Name)
}

func (r *recorder) RunFinished(_ context.Context, ranked []report.RankedResult, err error) {
	r.events = append(r.events, "done")
}

func TestMeasure_NotifiesObserver(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	h := newTestHarness(clock, io.Discard, WithObserver(Observers{NopObserver{}, rec}))

	_, err := h.Measure(context.Background(), timer.Multi("a", "b"),
		timer.Func("concat", func(a, b string) string {
			clock.now += time.Millisecond
			return a + b
		}))
	require.NoError(t, err)

	assert.Equal(t, []string{"run:a, b", "start:concat", "converged:concat", "finish:concat", "done"}, rec.events)
}

func TestHarness_WithDoesNotModifyOriginal(t *testing.T) {
	h := New(WithTargetDuration(time.Second))
	h2 := h.With(WithTargetDuration(2*time.Second), WithFaultMode(FaultContinue))

	assert.Equal(t, time.Second, h.Options.TargetDuration)
	assert.Equal(t, FaultAbort, h.FaultMode)
	assert.Equal(t, 2*time.Second, h2.Options.TargetDuration)
	assert.Equal(t, FaultContinue, h2.FaultMode)
}

func TestParseFaultMode(t *testing.T) {
	m, err := ParseFaultMode("")
	require.NoError(t, err)
	assert.Equal(t, FaultAbort, m)

	m, err = ParseFaultMode("continue")
	require.NoError(t, err)
	assert.Equal(t, FaultContinue, m)

	_, err = ParseFaultMode("retry")
	assert.Error(t, err)
}

func shortRun() []Option {
	return []Option{
		WithTargetDuration(50 * time.Millisecond),
		WithMinSampleDuration(5 * time.Millisecond),
		WithOutput(io.Discard),
		WithLogger(quietLogger()),
	}
}

func TestOverhead_RealClock(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the wall clock")
	}

	single, err := Overhead(context.Background(), shortRun()...)
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Greater(t, single[0].OpsPerSec, 1e6)
	assert.GreaterOrEqual(t, single[0].Elapsed, 25*time.Millisecond)
	assert.LessOrEqual(t, single[0].Elapsed, 150*time.Millisecond)

	spread, err := OverheadArgArray(context.Background(), shortRun()...)
	require.NoError(t, err)
	require.Len(t, spread, 1)
	assert.Greater(t, single[0].OpsPerSec, spread[0].OpsPerSec)
}

func TestMeasure_RealClockNamesAndTable(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the wall clock")
	}

	var out bytes.Buffer
	opts := append(shortRun(), WithOutput(&out))
	ranked, err := Measure(context.Background(), timer.Single("hello"), []timer.Candidate{
		{Fn: strings.ToUpper},
		{Fn: func(s string) string { return s }},
	}, opts...)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "ToUpper", ranked[0].Name)
	assert.Equal(t, "#2", ranked[1].Name)
	assert.Equal(t, "HELLO", ranked[0].Preview)
	assert.Contains(t, out.String(), "ToUpper")
}
