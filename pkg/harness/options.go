package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/justjake/fntimer/pkg/timer"
)

// FaultMode decides what a failing candidate does to the rest of the run.
type FaultMode string

const (
	// FaultAbort stops the run at the first failing candidate and returns
	// no results.
	FaultAbort FaultMode = "abort"
	// FaultContinue records the failure and measures the remaining
	// candidates; Measure ranks the successes and returns the joined faults.
	FaultContinue FaultMode = "continue"
)

// ParseFaultMode accepts "abort", "continue" or "" (abort).
func ParseFaultMode(s string) (FaultMode, error) {
	switch FaultMode(s) {
	case "", FaultAbort:
		return FaultAbort, nil
	case FaultContinue:
		return FaultContinue, nil
	default:
		return "", fmt.Errorf("unknown fault mode %q (want %q or %q)", s, FaultAbort, FaultContinue)
	}
}

// Option adjusts a Harness.
type Option func(*Harness)

func WithTargetDuration(d time.Duration) Option {
	return func(h *Harness) { h.Options.TargetDuration = d }
}

func WithFirstCheckpoint(n int) Option {
	return func(h *Harness) { h.Options.FirstCheckpoint = n }
}

func WithMinSampleDuration(d time.Duration) Option {
	return func(h *Harness) { h.Options.MinSampleDuration = d }
}

func WithInitialIterationCap(n int) Option {
	return func(h *Harness) { h.Options.InitialIterationCap = n }
}

func WithMaxScalingSteps(n int) Option {
	return func(h *Harness) { h.Options.MaxScalingSteps = n }
}

// WithStrategy selects the calibration strategy by name.
func WithStrategy(name string) Option {
	return func(h *Harness) { h.Options.Strategy = name }
}

// WithOptions replaces all calibration settings at once.
func WithOptions(o timer.Options) Option {
	return func(h *Harness) { h.Options = o }
}

func WithFaultMode(m FaultMode) Option {
	return func(h *Harness) { h.FaultMode = m }
}

// WithOutput sets where the rendered table is written.
func WithOutput(w io.Writer) Option {
	return func(h *Harness) { h.Out = w }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.Logger = l }
}

func WithClock(c timer.Clock) Option {
	return func(h *Harness) { h.Clock = c }
}

func WithObserver(o Observer) Option {
	return func(h *Harness) { h.Observer = o }
}
