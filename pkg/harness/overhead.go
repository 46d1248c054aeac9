package harness

import (
	"context"

	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

// OverheadInput is short enough that the candidate's work is negligible.
const OverheadInput = "abcdefg"

// blank does nothing with its argument. Its speed is the cost of the
// measuring loop itself.
func blank(s any) any {
	return s
}

// Overhead measures a no-op candidate called with a single argument.
func Overhead(ctx context.Context, opts ...Option) ([]report.RankedResult, error) {
	return Measure(ctx, timer.Single(OverheadInput), []timer.Candidate{timer.Func("blank", blank)}, opts...)
}

// OverheadArgArray measures the same no-op candidate called through the
// multi-argument path, which shows what spreading arguments costs.
func OverheadArgArray(ctx context.Context, opts ...Option) ([]report.RankedResult, error) {
	return Measure(ctx, timer.Multi(OverheadInput), []timer.Candidate{timer.Func("blank", blank)}, opts...)
}
