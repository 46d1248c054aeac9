// Package config handles interpreting the fntimer.json config file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/justjake/fntimer/pkg/timer"
)

// Fault handling modes accepted by on_fault.
const (
	OnFaultAbort    = "abort"
	OnFaultContinue = "continue"
)

// Config holds the fntimer configuration. Every field is optional; zero
// values fall back to the calibration defaults.
type Config struct {
	// TargetDuration is how long each candidate should be timed. Default: "1s".
	TargetDuration Duration `json:"target_duration,omitzero"`

	// FirstCheckpoint is the loop index of the first elapsed-time sample.
	// Default: 10.
	FirstCheckpoint int `json:"first_checkpoint,omitzero"`

	// MinSampleDuration is the shortest sample calibration will extrapolate
	// from. Default: "35ms".
	MinSampleDuration Duration `json:"min_sample_duration,omitzero"`

	// InitialIterationCap is the loop bound before calibration. Default: 1000000.
	InitialIterationCap int `json:"initial_iteration_cap,omitzero"`

	// MaxScalingSteps is how often the checkpoint may grow tenfold before the
	// candidate is reported as too fast to measure. Default: 9.
	MaxScalingSteps int `json:"max_scaling_steps,omitzero"`

	// Strategy is "inline" or "separate". Default: "inline".
	Strategy string `json:"strategy,omitzero"`

	// OnFault is "abort" or "continue". Default: "abort".
	OnFault string `json:"on_fault,omitzero"`

	// PreviewLength is the rune limit for result and argument previews. Default: 200.
	// Negative disables truncation.
	PreviewLength int `json:"preview_length,omitzero"`

	// OutputDir is the directory that receives results.json and BENCHMARK.md
	// for every run.
	// Empty disables run artifacts.
	OutputDir string `json:"output_dir,omitzero"`

	// OpenTelemetry is the tracing configuration. Nil disables tracing.
	OpenTelemetry *OpenTelemetryConfig `json:"opentelemetry,omitzero"`

	// Prometheus is the metrics export configuration. Nil disables metrics.
	Prometheus *PrometheusConfig `json:"prometheus,omitzero"`
}

// ParseConfig parses a JSON configuration string and returns a Config.
func ParseConfig(jsonStr string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadConfigFile reads and parses a configuration file from the given path.
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// GetOnFault returns the fault mode, defaulting to "abort".
func (c *Config) GetOnFault() string {
	if c.OnFault == "" {
		return OnFaultAbort
	}
	return c.OnFault
}

// TimerOptions converts the calibration settings to timer.Options.
func (c *Config) TimerOptions() timer.Options {
	return timer.Options{
		TargetDuration:      c.TargetDuration.Duration(),
		FirstCheckpoint:     c.FirstCheckpoint,
		MinSampleDuration:   c.MinSampleDuration.Duration(),
		InitialIterationCap: c.InitialIterationCap,
		MaxScalingSteps:     c.MaxScalingSteps,
		Strategy:            c.Strategy,
		PreviewLength:       c.PreviewLength,
	}
}

// Validate verifies the configuration is valid. It does not stop at the
// first error; all errors are accumulated and returned together.
func (c *Config) Validate() error {
	var errs []error

	if err := c.TimerOptions().Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.GetOnFault() {
	case OnFaultAbort, OnFaultContinue:
	default:
		errs = append(errs, fmt.Errorf("on_fault must be %q or %q, got %q", OnFaultAbort, OnFaultContinue, c.OnFault))
	}

	if c.OpenTelemetry != nil {
		if err := c.OpenTelemetry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("opentelemetry: %w", err))
		}
	}
	if c.Prometheus != nil {
		if err := c.Prometheus.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("prometheus: %w", err))
		}
	}

	return errors.Join(errs...)
}
