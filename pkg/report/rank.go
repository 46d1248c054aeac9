// Package report ranks measured candidates against each other and formats
// the comparison as a table.
package report

import (
	"math"

	"github.com/justjake/fntimer/pkg/timer"
)

// RankedResult is a RunResult annotated with its standing in the run.
type RankedResult struct {
	timer.RunResult
	OpsPerSec float64 `json:"ops_per_sec"`

	// Compared is false when the run measured a single candidate; the
	// remaining fields are then zero and not displayed.
	Compared bool `json:"compared"`
	Fastest  bool `json:"fastest,omitempty"`
	Slowest  bool `json:"slowest,omitempty"`
	// PercentSlower is how much lower this throughput is than the fastest.
	PercentSlower float64 `json:"percent_slower,omitempty"`
	// PercentFaster is how much higher this throughput is than the slowest.
	PercentFaster float64 `json:"percent_faster,omitempty"`
}

// Rank computes throughput for every result and, when there is more than
// one, compares each against the fastest and slowest. Input order is kept.
func Rank(results []timer.RunResult) []RankedResult {
	ranked := make([]RankedResult, len(results))
	maxOps, minOps := 0.0, math.Inf(1)
	for i, r := range results {
		ops := r.OpsPerSec()
		ranked[i] = RankedResult{RunResult: r, OpsPerSec: ops}
		maxOps = math.Max(maxOps, ops)
		minOps = math.Min(minOps, ops)
	}
	if len(ranked) < 2 {
		return ranked
	}

	for i := range ranked {
		r := &ranked[i]
		r.Compared = true
		r.Fastest = r.OpsPerSec == maxOps
		r.Slowest = r.OpsPerSec == minOps
		if !r.Fastest && maxOps > 0 {
			r.PercentSlower = (maxOps - r.OpsPerSec) / maxOps * 100
		}
		if !r.Slowest && minOps > 0 {
			r.PercentFaster = (r.OpsPerSec - minOps) / minOps * 100
		}
	}
	return ranked
}

// Fastest returns the first result flagged fastest, if any.
func Fastest(ranked []RankedResult) (RankedResult, bool) {
	for _, r := range ranked {
		if r.Fastest {
			return r, true
		}
	}
	return RankedResult{}, false
}
