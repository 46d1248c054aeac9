package suites

import (
	"strings"

	"github.com/justjake/fntimer/pkg/timer"
)

var stringsSuite = Suite{
	Name:         "strings",
	Description:  "Copy a string one character at a time using different loop styles",
	DefaultInput: "AbcdefghijkLMNOP",
	build: func(s string) []Group {
		return []Group{{
			Title: "loop styles",
			Args:  timer.Single(s),
			Candidates: []timer.Candidate{
				timer.Unary("", forI),
				timer.Unary("", forILenCached),
				timer.Unary("", forRange),
				timer.Unary("", forRangeBuilder),
				timer.Unary("", forEachSplit),
			},
		}}
	},
}

func forI(s string) string {
	s2 := ""
	for i := 0; i < len(s); i++ {
		s2 += s[i : i+1]
	}
	return s2
}

func forILenCached(s string) string {
	s2 := ""
	n := len(s)
	for i := 0; i < n; i++ {
		s2 += s[i : i+1]
	}
	return s2
}

func forRange(s string) string {
	s2 := ""
	for _, r := range s {
		s2 += string(r)
	}
	return s2
}

func forRangeBuilder(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(r)
	}
	return b.String()
}

func forEachSplit(s string) string {
	s2 := ""
	for _, c := range strings.Split(s, "") {
		s2 += c
	}
	return s2
}
