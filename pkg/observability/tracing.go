package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/justjake/fntimer/pkg/harness"
	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

// TracerName is the instrumentation name of fntimer spans.
const TracerName = "github.com/justjake/fntimer"

// Span attribute keys.
const (
	AttrArgs             = "fntimer.args"
	AttrCandidates       = "fntimer.candidates"
	AttrCandidate        = "fntimer.candidate"
	AttrIndex            = "fntimer.index"
	AttrStrategy         = "fntimer.strategy"
	AttrIterations       = "fntimer.iterations"
	AttrElapsedSeconds   = "fntimer.elapsed_seconds"
	AttrOpsPerSec        = "fntimer.ops_per_sec"
	AttrCalibrationSteps = "fntimer.calibration_steps"
	AttrCheckpoint       = "fntimer.checkpoint"
	AttrProjected        = "fntimer.projected"
	AttrConverged        = "fntimer.converged"
	AttrFastest          = "fntimer.fastest"
	AttrSlowest          = "fntimer.slowest"
	AttrPercentSlower    = "fntimer.percent_slower"
)

type runSpanKey struct{}

type candidateSpanKey struct{}

// Tracing is a harness.Observer that records a span per run and a child span
// per candidate. Calibration checkpoints become events on the candidate span.
type Tracing struct {
	tracer trace.Tracer
	// PreviewLength caps the argument preview attached to run spans.
	PreviewLength int
	// Attributes are added to every run span, e.g. git metadata.
	Attributes []attribute.KeyValue
}

var _ harness.Observer = (*Tracing)(nil)

// NewTracing returns a Tracing observer that creates spans with tracer.
func NewTracing(tracer trace.Tracer) *Tracing {
	return &Tracing{tracer: tracer, PreviewLength: timer.DefaultPreviewLength}
}

func (t *Tracing) RunStarted(ctx context.Context, args timer.ArgumentSet, candidates int) context.Context {
	ctx, span := t.tracer.Start(ctx, "fntimer.run", trace.WithAttributes(
		attribute.String(AttrArgs, timer.Preview(args, t.PreviewLength)),
		attribute.Int(AttrCandidates, candidates),
	), trace.WithAttributes(t.Attributes...))
	return context.WithValue(ctx, runSpanKey{}, span)
}

func (t *Tracing) CandidateStarted(ctx context.Context, index int, name string) context.Context {
	ctx, span := t.tracer.Start(ctx, "fntimer.candidate", trace.WithAttributes(
		attribute.String(AttrCandidate, name),
		attribute.Int(AttrIndex, index),
	))
	return context.WithValue(ctx, candidateSpanKey{}, span)
}

func (t *Tracing) CheckpointSampled(ctx context.Context, _ string, st timer.CalibrationState) {
	span, ok := ctx.Value(candidateSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	span.AddEvent("checkpoint", trace.WithAttributes(
		attribute.Int(AttrCheckpoint, st.Checkpoint),
		attribute.Int(AttrProjected, st.Projected),
		attribute.Float64(AttrElapsedSeconds, st.Elapsed.Seconds()),
		attribute.Int(AttrCalibrationSteps, st.Steps),
		attribute.Bool(AttrConverged, st.Converged),
	))
}

func (t *Tracing) CandidateFinished(ctx context.Context, o harness.Outcome) {
	span, ok := ctx.Value(candidateSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if !o.OK() {
		span.RecordError(o.Err)
		span.SetStatus(codes.Error, o.Err.Error())
		return
	}
	span.SetAttributes(
		attribute.String(AttrStrategy, o.Result.Strategy),
		attribute.Int(AttrIterations, o.Result.Iterations),
		attribute.Float64(AttrElapsedSeconds, o.Result.ElapsedSeconds()),
		attribute.Float64(AttrOpsPerSec, o.Result.OpsPerSec()),
		attribute.Int(AttrCalibrationSteps, o.Result.CalibrationSteps),
	)
}

func (t *Tracing) RunFinished(ctx context.Context, ranked []report.RankedResult, err error) {
	span, ok := ctx.Value(runSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	for _, r := range ranked {
		if !r.Compared {
			continue
		}
		span.AddEvent("ranked", trace.WithAttributes(
			attribute.String(AttrCandidate, r.Name),
			attribute.Bool(AttrFastest, r.Fastest),
			attribute.Bool(AttrSlowest, r.Slowest),
			attribute.Float64(AttrPercentSlower, r.PercentSlower),
		))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
