package suites

import (
	"strings"

	"github.com/justjake/fntimer/pkg/timer"
)

var badCodeSuite = Suite{
	Name:         "badcode",
	Description:  "Loops that recompute a conversion in their condition, next to the cached version",
	DefaultInput: unicodeInput,
	build: func(s string) []Group {
		return []Group{
			{
				Title: "rune slice",
				Args:  timer.Single(s),
				Candidates: []timer.Candidate{
					timer.Unary("", runeSliceCached),
					timer.Unary("", runeSliceNotCached),
				},
			},
			{
				Title: "split",
				Args:  timer.Single(s),
				Candidates: []timer.Candidate{
					timer.Unary("", splitCached),
					timer.Unary("", splitNotCached),
				},
			},
		}
	},
}

func runeSliceCached(s string) string {
	s2 := ""
	a := []rune(s)
	n := len(a)
	for i := 0; i < n; i++ {
		s2 += string(a[i])
	}
	return s2
}

func runeSliceNotCached(s string) string {
	s2 := ""
	for i := 0; i < len([]rune(s)); i++ {
		s2 += string([]rune(s)[i])
	}
	return s2
}

func splitCached(s string) string {
	s2 := ""
	a := strings.Split(s, "")
	n := len(a)
	for i := 0; i < n; i++ {
		s2 += a[i]
	}
	return s2
}

func splitNotCached(s string) string {
	s2 := ""
	for i := 0; i < len(strings.Split(s, "")); i++ {
		s2 += strings.Split(s, "")[i]
	}
	return s2
}
