package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock only moves when a candidate advances it, which makes every
// calibration path deterministic.
type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func costly(clock *fakeClock, cost time.Duration) Candidate {
	return Func("costly", func(v any) any {
		clock.now += cost
		return v
	})
}

func newRun(t *testing.T, clock *fakeClock, c Candidate, opts Options) *Run {
	t.Helper()
	inv, err := NewInvoker(c, Single("x"))
	require.NoError(t, err)
	return &Run{
		Name:    c.Name,
		Index:   1,
		Input:   "x",
		Clock:   clock,
		Invoker: inv,
		Options: opts,
	}
}

func TestInline_ExtrapolatesFromFirstUsableSample(t *testing.T) {
	clock := &fakeClock{}
	run := newRun(t, clock, costly(clock, time.Millisecond), DefaultOptions())

	var samples []CalibrationState
	run.OnSample = func(st CalibrationState) { samples = append(samples, st) }

	s, err := Inline{}.Measure(run)
	require.NoError(t, err)

	// 11 calls at index 10 take 11ms, below the 35ms threshold, so the
	// checkpoint moves to 100. 101ms there projects 100 * 1s / 101ms = 990.
	assert.Equal(t, 990, s.Iterations)
	assert.Equal(t, 990*time.Millisecond, s.Elapsed)
	assert.Equal(t, 1, s.Steps)

	require.Len(t, samples, 2)
	assert.False(t, samples[0].Converged)
	assert.Equal(t, 100, samples[0].Checkpoint)
	assert.Equal(t, 11*time.Millisecond, samples[0].Elapsed)
	assert.True(t, samples[1].Converged)
	assert.Equal(t, 990, samples[1].Projected)
}

func TestInline_RaisesIterationCapWithCheckpoint(t *testing.T) {
	clock := &fakeClock{}
	opts := DefaultOptions()
	opts.InitialIterationCap = 50
	run := newRun(t, clock, costly(clock, time.Microsecond), opts)

	s, err := Inline{}.Measure(run)
	require.NoError(t, err)

	// Checkpoints 10, 100, 1000 and 10000 all sample under 35ms; each one
	// pushes the cap past the new checkpoint. 100001 calls take ~100ms.
	assert.Equal(t, 4, s.Steps)
	assert.Equal(t, 999990, s.Iterations)
	assert.Equal(t, 999990*time.Microsecond, s.Elapsed)
}

func TestInline_ElapsedNearTarget(t *testing.T) {
	costs := []time.Duration{
		50 * time.Nanosecond,
		time.Microsecond,
		37 * time.Microsecond,
		time.Millisecond,
		20 * time.Millisecond,
	}
	target := DefaultTargetDuration
	for _, cost := range costs {
		t.Run(cost.String(), func(t *testing.T) {
			clock := &fakeClock{}
			run := newRun(t, clock, costly(clock, cost), DefaultOptions())

			s, err := Inline{}.Measure(run)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, s.Elapsed, target/2)
			assert.LessOrEqual(t, s.Elapsed, 3*target)
			assert.InDelta(t, float64(time.Second)/float64(cost), float64(s.Iterations)/s.Elapsed.Seconds(), 1)
		})
	}
}

func TestInline_SlowCandidateOvershoots(t *testing.T) {
	clock := &fakeClock{}
	run := newRun(t, clock, costly(clock, 500*time.Millisecond), DefaultOptions())

	s, err := Inline{}.Measure(run)
	require.NoError(t, err)

	// The first checkpoint already costs 5.5s; the projection of a single
	// iteration is below the calls already made, so the loop stops there.
	assert.Equal(t, 11, s.Iterations)
	assert.Equal(t, 5500*time.Millisecond, s.Elapsed)
	assert.Equal(t, 0, s.Steps)
}

func TestInline_NonConvergence(t *testing.T) {
	clock := &fakeClock{}
	opts := DefaultOptions()
	opts.MaxScalingSteps = 3
	run := newRun(t, clock, costly(clock, 0), opts)

	_, err := Inline{}.Measure(run)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCalibrationNonConvergence))

	var nce *NonConvergenceError
	require.True(t, errors.As(err, &nce))
	assert.Equal(t, "costly", nce.Candidate)
	assert.Equal(t, 3, nce.Steps)
	assert.Equal(t, 10000, nce.Checkpoint)
}

func TestInline_ReturnedErrorIsFault(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	c := Func("flaky", func(s string) (string, error) {
		calls++
		if calls == 3 {
			return "", errBoom
		}
		return s, nil
	})
	clock := &fakeClock{}
	run := newRun(t, clock, c, DefaultOptions())

	_, err := Inline{}.Measure(run)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	var fault *InvocationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "flaky", fault.Candidate)
	assert.Equal(t, 2, fault.Iteration)
	assert.Equal(t, PhaseCalibration, fault.Phase)
}

func TestInline_PanicIsFault(t *testing.T) {
	clock := &fakeClock{}
	c := Func("explodes", func(v any) any {
		clock.now += time.Millisecond
		if clock.now > 200*time.Millisecond {
			panic("late")
		}
		return v
	})
	run := newRun(t, clock, c, DefaultOptions())

	_, err := Inline{}.Measure(run)
	var fault *InvocationFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, PhaseMeasurement, fault.Phase)
	assert.Equal(t, 200, fault.Iteration)

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "late", pe.Value)
}

func TestSeparate_TimesOnlyProjectedCalls(t *testing.T) {
	clock := &fakeClock{}
	calls := 0
	c := Func("counted", func(v any) any {
		calls++
		clock.now += time.Millisecond
		return v
	})
	run := newRun(t, clock, c, DefaultOptions())

	s, err := Separate{}.Measure(run)
	require.NoError(t, err)

	// Calibration stops at the converging checkpoint (101 calls); the timed
	// window holds exactly the projected 990.
	assert.Equal(t, 990, s.Iterations)
	assert.Equal(t, 990*time.Millisecond, s.Elapsed)
	assert.Equal(t, 1, s.Steps)
	assert.Equal(t, 101+990, calls)
}

func TestSeparate_NonConvergence(t *testing.T) {
	clock := &fakeClock{}
	opts := DefaultOptions()
	opts.MaxScalingSteps = 2
	run := newRun(t, clock, costly(clock, 0), opts)

	_, err := Separate{}.Measure(run)
	assert.ErrorIs(t, err, ErrCalibrationNonConvergence)
}

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: StrategyInline},
		{name: "inline", want: StrategyInline},
		{name: "separate", want: StrategySeparate},
		{name: "warmup", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := StrategyByName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
		})
	}
}

func TestMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()
	a := c.Now()
	time.Sleep(2 * time.Millisecond)
	b := c.Now()
	assert.GreaterOrEqual(t, b-a, 2*time.Millisecond)
}
