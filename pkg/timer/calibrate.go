package timer

import (
	"fmt"
	"time"
)

// Strategy names accepted by StrategyByName.
const (
	StrategyInline   = "inline"
	StrategySeparate = "separate"
)

// CalibrationState is the per-candidate state of the checkpoint search.
type CalibrationState struct {
	// Checkpoint is the iteration index at which elapsed time is next sampled.
	Checkpoint int
	// Projected is the current iteration bound of the loop.
	Projected int
	// Elapsed is the duration observed at the most recent sample.
	Elapsed time.Duration
	// Steps is how often the checkpoint has been scaled up.
	Steps int
	// Converged is set once a sample was long enough to extrapolate from.
	Converged bool
}

// Run is the input to a Strategy: one prepared candidate and its settings.
type Run struct {
	Name    string
	Index   int
	Input   string
	Clock   Clock
	Invoker Invoker
	Options Options
	// OnSample, if set, is called after every checkpoint sample.
	OnSample func(CalibrationState)
}

// Sample is what a Strategy measured.
type Sample struct {
	Iterations int
	Elapsed    time.Duration
	Steps      int
}

// Strategy turns a prepared candidate into a timed sample.
type Strategy interface {
	Name() string
	Measure(r *Run) (Sample, error)
}

// StrategyByName returns the strategy registered under name.
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", StrategyInline:
		return Inline{}, nil
	case StrategySeparate:
		return Separate{}, nil
	default:
		return nil, fmt.Errorf("unknown calibration strategy %q (want %q or %q)", name, StrategyInline, StrategySeparate)
	}
}

func newState(o Options) CalibrationState {
	return CalibrationState{
		Checkpoint: o.GetFirstCheckpoint(),
		Projected:  o.GetInitialIterationCap(),
	}
}

// sample records the elapsed time observed at loop index i. Short samples
// scale the checkpoint by ten; a usable sample projects the iteration count
// that fills the target duration.
func (st *CalibrationState) sample(r *Run, i int, elapsed time.Duration) error {
	st.Elapsed = elapsed
	if elapsed < r.Options.GetMinSampleDuration() {
		if st.Steps >= r.Options.GetMaxScalingSteps() {
			return &NonConvergenceError{
				Candidate:  r.Name,
				Steps:      st.Steps,
				Checkpoint: st.Checkpoint,
				Elapsed:    elapsed,
			}
		}
		st.Steps++
		st.Checkpoint *= 10
		if st.Checkpoint >= st.Projected {
			st.Projected *= 10
		}
	} else {
		target := r.Options.GetTargetDuration()
		st.Projected = int(float64(i) * float64(target) / float64(elapsed))
		st.Converged = true
	}
	if r.OnSample != nil {
		r.OnSample(*st)
	}
	return nil
}

func (r *Run) fault(phase Phase, i int, err error) *InvocationFault {
	return &InvocationFault{
		Candidate: r.Name,
		Index:     r.Index,
		Input:     r.Input,
		Phase:     phase,
		Iteration: i,
		Err:       err,
	}
}

// Inline calibrates inside the timed window: the loop that discovers the
// iteration count is the loop that is measured, and time spent before the
// first usable sample counts toward the result.
type Inline struct{}

func (Inline) Name() string { return StrategyInline }

func (Inline) Measure(r *Run) (s Sample, err error) {
	st := newState(r.Options)
	phase := PhaseCalibration
	i := 0
	defer func() {
		if p := recover(); p != nil {
			err = r.fault(phase, i, &PanicError{Value: p})
		}
	}()

	start := r.Clock.Now()
	for i = 0; i < st.Projected; i++ {
		if _, ierr := r.Invoker.Invoke(); ierr != nil {
			return Sample{}, r.fault(phase, i, ierr)
		}
		if i == st.Checkpoint {
			if serr := st.sample(r, i, r.Clock.Now()-start); serr != nil {
				return Sample{}, serr
			}
			if st.Converged {
				phase = PhaseMeasurement
			}
		}
	}
	elapsed := r.Clock.Now() - start

	return Sample{Iterations: i, Elapsed: elapsed, Steps: st.Steps}, nil
}

// Separate runs the checkpoint search untimed, then restarts the clock and
// times exactly the projected number of calls.
type Separate struct{}

func (Separate) Name() string { return StrategySeparate }

func (Separate) Measure(r *Run) (s Sample, err error) {
	st := newState(r.Options)
	phase := PhaseCalibration
	i := 0
	defer func() {
		if p := recover(); p != nil {
			err = r.fault(phase, i, &PanicError{Value: p})
		}
	}()

	start := r.Clock.Now()
	for i = 0; !st.Converged; i++ {
		if _, ierr := r.Invoker.Invoke(); ierr != nil {
			return Sample{}, r.fault(phase, i, ierr)
		}
		if i == st.Checkpoint {
			if serr := st.sample(r, i, r.Clock.Now()-start); serr != nil {
				return Sample{}, serr
			}
		}
	}

	n := max(st.Projected, 1)
	phase = PhaseMeasurement
	start = r.Clock.Now()
	for i = 0; i < n; i++ {
		if _, ierr := r.Invoker.Invoke(); ierr != nil {
			return Sample{}, r.fault(phase, i, ierr)
		}
	}
	elapsed := r.Clock.Now() - start

	return Sample{Iterations: n, Elapsed: elapsed, Steps: st.Steps}, nil
}
