// Package suites bundles ready-made comparisons: ways to walk a string,
// ways to split Unicode text, loops that redo work in their condition, and
// the cost of reading the clock.
package suites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/justjake/fntimer/pkg/harness"
	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

// Group is one comparison: candidates measured together under one argument set.
type Group struct {
	Title      string
	Args       timer.ArgumentSet
	Candidates []timer.Candidate
}

// Suite builds one or more groups from an input string.
type Suite struct {
	Name        string
	Description string
	// DefaultInput is used when Build is given an empty input.
	DefaultInput string

	build func(input string) []Group
}

// Build returns the suite's groups for input, or for DefaultInput when
// input is empty.
func (s Suite) Build(input string) []Group {
	if input == "" {
		input = s.DefaultInput
	}
	return s.build(input)
}

// GroupResult is the ranked outcome of one group.
type GroupResult struct {
	Title  string
	Args   timer.ArgumentSet
	Ranked []report.RankedResult
}

// Run measures every group of the suite with h, in order. In FaultAbort
// mode it stops at the first group that fails; in FaultContinue mode every
// group runs and the failures are joined. Groups that produced rankings are
// returned either way.
func (s Suite) Run(ctx context.Context, h *harness.Harness, input string) ([]GroupResult, error) {
	groups := s.Build(input)
	results := make([]GroupResult, 0, len(groups))
	var errs []error
	for _, g := range groups {
		ranked, err := h.Measure(ctx, g.Args, g.Candidates...)
		if ranked != nil {
			results = append(results, GroupResult{Title: g.Title, Args: g.Args, Ranked: ranked})
		}
		if err == nil {
			continue
		}
		err = fmt.Errorf("suite %s, %s: %w", s.Name, g.Title, err)
		if h.FaultMode != harness.FaultContinue || ctx.Err() != nil {
			return results, err
		}
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}

var registry = []Suite{
	stringsSuite,
	unicodeSuite,
	badCodeSuite,
	clockSuite,
}

// All returns every bundled suite sorted by name.
func All() []Suite {
	all := slices.Clone(registry)
	slices.SortFunc(all, func(a, b Suite) int { return strings.Compare(a.Name, b.Name) })
	return all
}

// Names returns the names of every bundled suite, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, s := range All() {
		names = append(names, s.Name)
	}
	return names
}

// Lookup returns the suite called name.
func Lookup(name string) (Suite, error) {
	for _, s := range registry {
		if s.Name == name {
			return s, nil
		}
	}
	return Suite{}, fmt.Errorf("unknown suite %q (available: %s)", name, strings.Join(Names(), ", "))
}
