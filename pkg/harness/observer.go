package harness

import (
	"context"

	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

// Observer receives progress callbacks from a Harness. CheckpointSampled
// runs inside the timed window, so implementations must be cheap.
type Observer interface {
	RunStarted(ctx context.Context, args timer.ArgumentSet, candidates int) context.Context
	CandidateStarted(ctx context.Context, index int, name string) context.Context
	CheckpointSampled(ctx context.Context, name string, st timer.CalibrationState)
	CandidateFinished(ctx context.Context, o Outcome)
	RunFinished(ctx context.Context, ranked []report.RankedResult, err error)
}

// NopObserver ignores every callback. Embed it to implement only some.
type NopObserver struct{}

func (NopObserver) RunStarted(ctx context.Context, _ timer.ArgumentSet, _ int) context.Context {
	return ctx
}

func (NopObserver) CandidateStarted(ctx context.Context, _ int, _ string) context.Context {
	return ctx
}

func (NopObserver) CheckpointSampled(context.Context, string, timer.CalibrationState) {}

func (NopObserver) CandidateFinished(context.Context, Outcome) {}

func (NopObserver) RunFinished(context.Context, []report.RankedResult, error) {}

// Observers fans every callback out to each member in order.
type Observers []Observer

func (all Observers) RunStarted(ctx context.Context, args timer.ArgumentSet, candidates int) context.Context {
	for _, o := range all {
		ctx = o.RunStarted(ctx, args, candidates)
	}
	return ctx
}

func (all Observers) CandidateStarted(ctx context.Context, index int, name string) context.Context {
	for _, o := range all {
		ctx = o.CandidateStarted(ctx, index, name)
	}
	return ctx
}

func (all Observers) CheckpointSampled(ctx context.Context, name string, st timer.CalibrationState) {
	for _, o := range all {
		o.CheckpointSampled(ctx, name, st)
	}
}

func (all Observers) CandidateFinished(ctx context.Context, outcome Outcome) {
	for _, o := range all {
		o.CandidateFinished(ctx, outcome)
	}
}

func (all Observers) RunFinished(ctx context.Context, ranked []report.RankedResult, err error) {
	for _, o := range all {
		o.RunFinished(ctx, ranked, err)
	}
}
