package timer

import (
	"errors"
	"fmt"
	"time"
)

// Defaults for Options. They reproduce the behaviour of the interactive tool
// this harness grew out of.
const (
	DefaultTargetDuration      = time.Second
	DefaultFirstCheckpoint     = 10
	DefaultMinSampleDuration   = 35 * time.Millisecond
	DefaultInitialIterationCap = 1_000_000
	DefaultMaxScalingSteps     = 9
	DefaultPreviewLength       = 200
)

// Options configures calibration and measurement. Zero fields take the
// package defaults; use the Get accessors to read effective values.
type Options struct {
	// TargetDuration is the wall-clock budget each candidate's run approximates.
	TargetDuration time.Duration
	// FirstCheckpoint is the iteration index at which elapsed time is first sampled.
	FirstCheckpoint int
	// MinSampleDuration is the shortest sample trusted for extrapolation.
	MinSampleDuration time.Duration
	// InitialIterationCap bounds the loop until the first reliable sample.
	InitialIterationCap int
	// MaxScalingSteps bounds how often the checkpoint may be multiplied by ten.
	MaxScalingSteps int
	// Strategy names the calibration strategy: "inline" (default) or "separate".
	Strategy string
	// PreviewLength limits the rune length of result and argument previews.
	PreviewLength int
}

// DefaultOptions returns Options with every field set to its default.
func DefaultOptions() Options {
	return Options{
		TargetDuration:      DefaultTargetDuration,
		FirstCheckpoint:     DefaultFirstCheckpoint,
		MinSampleDuration:   DefaultMinSampleDuration,
		InitialIterationCap: DefaultInitialIterationCap,
		MaxScalingSteps:     DefaultMaxScalingSteps,
		Strategy:            StrategyInline,
		PreviewLength:       DefaultPreviewLength,
	}
}

func (o Options) GetTargetDuration() time.Duration {
	if o.TargetDuration <= 0 {
		return DefaultTargetDuration
	}
	return o.TargetDuration
}

func (o Options) GetFirstCheckpoint() int {
	if o.FirstCheckpoint <= 0 {
		return DefaultFirstCheckpoint
	}
	return o.FirstCheckpoint
}

func (o Options) GetMinSampleDuration() time.Duration {
	if o.MinSampleDuration <= 0 {
		return DefaultMinSampleDuration
	}
	return o.MinSampleDuration
}

func (o Options) GetInitialIterationCap() int {
	if o.InitialIterationCap <= 0 {
		return DefaultInitialIterationCap
	}
	return o.InitialIterationCap
}

func (o Options) GetMaxScalingSteps() int {
	if o.MaxScalingSteps <= 0 {
		return DefaultMaxScalingSteps
	}
	return o.MaxScalingSteps
}

func (o Options) GetStrategy() string {
	if o.Strategy == "" {
		return StrategyInline
	}
	return o.Strategy
}

func (o Options) GetPreviewLength() int {
	if o.PreviewLength == 0 {
		return DefaultPreviewLength
	}
	return o.PreviewLength
}

// Validate reports every field that holds an unusable value.
func (o Options) Validate() error {
	var errs []error
	if o.TargetDuration < 0 {
		errs = append(errs, fmt.Errorf("target duration must not be negative, got %s", o.TargetDuration))
	}
	if o.MinSampleDuration < 0 {
		errs = append(errs, fmt.Errorf("min sample duration must not be negative, got %s", o.MinSampleDuration))
	}
	if o.GetMinSampleDuration() > o.GetTargetDuration() {
		errs = append(errs, fmt.Errorf("min sample duration %s exceeds target duration %s",
			o.GetMinSampleDuration(), o.GetTargetDuration()))
	}
	if o.FirstCheckpoint < 0 {
		errs = append(errs, fmt.Errorf("first checkpoint must not be negative, got %d", o.FirstCheckpoint))
	}
	if o.InitialIterationCap < 0 {
		errs = append(errs, fmt.Errorf("initial iteration cap must not be negative, got %d", o.InitialIterationCap))
	}
	if o.GetFirstCheckpoint() >= o.GetInitialIterationCap() {
		errs = append(errs, fmt.Errorf("first checkpoint %d must be below the initial iteration cap %d",
			o.GetFirstCheckpoint(), o.GetInitialIterationCap()))
	}
	if o.MaxScalingSteps < 0 {
		errs = append(errs, fmt.Errorf("max scaling steps must not be negative, got %d", o.MaxScalingSteps))
	}
	if _, err := StrategyByName(o.GetStrategy()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
