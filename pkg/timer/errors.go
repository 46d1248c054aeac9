package timer

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrArityMismatch is returned when a candidate's signature cannot accept
	// the supplied ArgumentSet.
	ErrArityMismatch = errors.New("candidate signature does not match argument shape")

	// ErrCalibrationNonConvergence is returned when calibration keeps
	// sampling durations below the minimum threshold.
	ErrCalibrationNonConvergence = errors.New("calibration did not converge")
)

// Phase names the part of a measurement during which a fault occurred.
type Phase string

const (
	PhasePrepare     Phase = "prepare"
	PhasePreview     Phase = "preview"
	PhaseCalibration Phase = "calibration"
	PhaseMeasurement Phase = "measurement"
)

// InvocationFault reports a candidate that panicked or returned an error.
type InvocationFault struct {
	// Candidate is the display name of the failing candidate.
	Candidate string
	// Index is the candidate's 1-based position in its run.
	Index int
	// Input is a preview of the arguments it was called with.
	Input string
	Phase Phase
	// Iteration is the loop index of the failing call, -1 outside the loop.
	Iteration int
	// Err is the returned error, or a *PanicError for panics.
	Err error
}

func (f *InvocationFault) Error() string {
	where := string(f.Phase)
	if f.Iteration >= 0 {
		where = fmt.Sprintf("%s iteration %d", f.Phase, f.Iteration)
	}
	return fmt.Sprintf("candidate %d (%s) failed during %s with input %q: %v",
		f.Index, f.Candidate, where, f.Input, f.Err)
}

func (f *InvocationFault) Unwrap() error {
	return f.Err
}

// PanicError carries the value a candidate panicked with.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As.
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// NonConvergenceError is returned when the checkpoint had to be scaled more
// than the configured number of times.
type NonConvergenceError struct {
	Candidate  string
	Steps      int
	Checkpoint int
	Elapsed    time.Duration
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s: candidate %s still under the minimum sample duration after %d scaling steps (checkpoint %d, elapsed %s)",
		ErrCalibrationNonConvergence, e.Candidate, e.Steps, e.Checkpoint, e.Elapsed)
}

func (e *NonConvergenceError) Is(target error) bool {
	return target == ErrCalibrationNonConvergence
}
