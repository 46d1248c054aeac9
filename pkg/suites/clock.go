package suites

import (
	"time"

	"github.com/justjake/fntimer/pkg/timer"
)

var clockSuite = Suite{
	Name:         "clock",
	Description:  "Cost of reading the clock compared with a function that does nothing",
	DefaultInput: "abcdefg",
	build: func(s string) []Group {
		mono := timer.NewMonotonicClock()
		return []Group{{
			Title: "clock reads",
			Args:  timer.Single(s),
			Candidates: []timer.Candidate{
				timer.Func("blank", func(v any) any { return v }),
				timer.Func("timeNow", func(any) any { return time.Now() }),
				timer.Func("monotonicNow", func(any) any { return mono.Now() }),
			},
		}}
	},
}
