// Package harness measures a list of candidate functions one after another
// under a shared argument set, ranks them and prints the comparison.
//
// Candidates run strictly in input order on the calling goroutine so that
// one candidate's cache and scheduler state cannot leak into another's
// numbers. A run blocks for roughly the number of candidates times the
// target duration.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

// Outcome is the per-candidate result of a run: a RunResult or an error.
type Outcome struct {
	Index  int
	Name   string
	Result timer.RunResult
	Err    error
}

// OK reports whether the candidate was measured.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Harness runs candidates through calibration, ranking and reporting.
type Harness struct {
	// Options configures calibration. Zero fields take the timer defaults.
	Options timer.Options
	// FaultMode is FaultAbort unless set.
	FaultMode FaultMode

	Clock    timer.Clock
	Logger   *slog.Logger
	Observer Observer
	Reporter *report.Reporter
	// Out receives the rendered table. Defaults to os.Stdout.
	Out io.Writer
	// Renderer draws the table; it defaults to one bound to Out.
	Renderer *report.Renderer
}

// New returns a Harness with default settings adjusted by opts.
func New(opts ...Option) *Harness {
	h := &Harness{
		Options:   timer.DefaultOptions(),
		FaultMode: FaultAbort,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// With returns a copy of h with opts applied. h is not modified.
func (h *Harness) With(opts ...Option) *Harness {
	c := *h
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Harness) clock() timer.Clock {
	if h.Clock == nil {
		return timer.NewMonotonicClock()
	}
	return h.Clock
}

func (h *Harness) observer() Observer {
	if h.Observer == nil {
		return NopObserver{}
	}
	return h.Observer
}

func (h *Harness) out() io.Writer {
	if h.Out == nil {
		return os.Stdout
	}
	return h.Out
}

// Run measures every candidate in order and returns one Outcome per
// candidate attempted. In FaultAbort mode the first failure ends the run
// and is returned as the error alongside the outcomes gathered so far.
// Cancelling ctx stops the run before the next candidate starts; a
// candidate already being measured always finishes.
func (h *Harness) Run(ctx context.Context, args timer.ArgumentSet, candidates []timer.Candidate) ([]Outcome, error) {
	if err := h.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	mode, err := ParseFaultMode(string(h.FaultMode))
	if err != nil {
		return nil, err
	}
	strategy, err := timer.StrategyByName(h.Options.GetStrategy())
	if err != nil {
		return nil, err
	}

	clock := h.clock()
	logger := h.logger()
	outcomes := make([]Outcome, 0, len(candidates))

	for i, c := range candidates {
		index := i + 1
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("run interrupted before candidate %d of %d: %w", index, len(candidates), err)
		}

		o := h.measure(ctx, clock, strategy, index, c, args)
		outcomes = append(outcomes, o)
		if o.Err == nil {
			continue
		}

		logger.Error("candidate failed", "index", index, "candidate", o.Name, "error", o.Err)
		if mode == FaultAbort {
			return outcomes, o.Err
		}
	}
	return outcomes, nil
}

func (h *Harness) measure(ctx context.Context, clock timer.Clock, strategy timer.Strategy, index int, c timer.Candidate, args timer.ArgumentSet) (o Outcome) {
	name := timer.NameOf(c, index)
	o = Outcome{Index: index, Name: name}
	obs := h.observer()
	ctx = obs.CandidateStarted(ctx, index, name)
	defer func() { obs.CandidateFinished(ctx, o) }()

	previewLen := h.Options.GetPreviewLength()
	input := timer.Preview(args, previewLen)
	fault := func(phase timer.Phase, err error) error {
		return &timer.InvocationFault{
			Candidate: name,
			Index:     index,
			Input:     input,
			Phase:     phase,
			Iteration: -1,
			Err:       err,
		}
	}

	inv, err := timer.NewInvoker(c, args)
	if err != nil {
		o.Err = fault(timer.PhasePrepare, err)
		return o
	}

	// The first call happens outside the timed window so a broken candidate
	// fails before any time is spent on it.
	first, err := invokeOnce(inv)
	if err != nil {
		o.Err = fault(timer.PhasePreview, err)
		return o
	}
	preview := timer.Preview(first, previewLen)
	h.logger().Info(fmt.Sprintf("%d. %s begun", index, name), "result", preview)

	run := &timer.Run{
		Name:    name,
		Index:   index,
		Input:   input,
		Clock:   clock,
		Invoker: inv,
		Options: h.Options,
		OnSample: func(st timer.CalibrationState) {
			obs.CheckpointSampled(ctx, name, st)
		},
	}
	sample, err := strategy.Measure(run)
	if err != nil {
		o.Err = err
		return o
	}

	o.Result = timer.RunResult{
		Name:             name,
		Index:            index,
		Iterations:       sample.Iterations,
		Elapsed:          sample.Elapsed,
		Strategy:         strategy.Name(),
		CalibrationSteps: sample.Steps,
		Preview:          preview,
	}
	h.logger().Debug("candidate measured",
		"candidate", name,
		"iterations", o.Result.Iterations,
		"elapsed", o.Result.Elapsed,
		"calibration_steps", o.Result.CalibrationSteps)
	return o
}

func invokeOnce(inv timer.Invoker) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &timer.PanicError{Value: p}
		}
	}()
	return inv.Invoke()
}

// Measure runs candidates (one or many) under args, writes the ranked table
// to the harness output and returns the ranked results in input order.
//
// In FaultAbort mode a failure returns nil results and the fault. In
// FaultContinue mode the measured candidates are ranked and returned along
// with the joined failures.
func (h *Harness) Measure(ctx context.Context, args timer.ArgumentSet, candidates ...timer.Candidate) ([]report.RankedResult, error) {
	obs := h.observer()
	ctx = obs.RunStarted(ctx, args, len(candidates))

	ranked, err := h.measureAll(ctx, args, candidates)
	obs.RunFinished(ctx, ranked, err)
	return ranked, err
}

func (h *Harness) measureAll(ctx context.Context, args timer.ArgumentSet, candidates []timer.Candidate) ([]report.RankedResult, error) {
	outcomes, err := h.Run(ctx, args, candidates)
	if err != nil {
		return nil, err
	}

	results := make([]timer.RunResult, 0, len(outcomes))
	var failures []error
	for _, o := range outcomes {
		if o.OK() {
			results = append(results, o.Result)
		} else {
			failures = append(failures, o.Err)
		}
	}

	reporter := h.Reporter
	if reporter == nil {
		reporter = report.NewReporter()
	}
	tbl, ranked := reporter.Report(report.Rank(results))

	if len(tbl.Rows) > 0 {
		renderer := h.Renderer
		if renderer == nil {
			renderer = report.NewRenderer(h.out())
		}
		if _, err := fmt.Fprintln(h.out(), renderer.Render(tbl, ranked)); err != nil {
			h.logger().Warn("failed to write report", "error", err)
		}
	}
	h.logger().Info("arguments", "args", timer.Preview(args, h.Options.GetPreviewLength()))

	return ranked, errors.Join(failures...)
}

// Measure runs candidates with a fresh Harness built from opts.
func Measure(ctx context.Context, args timer.ArgumentSet, candidates []timer.Candidate, opts ...Option) ([]report.RankedResult, error) {
	return New(opts...).Measure(ctx, args, candidates...)
}
