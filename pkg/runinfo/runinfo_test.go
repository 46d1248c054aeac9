package runinfo

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

var runTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleRun(id string) (*Run, report.Table) {
	ranked := report.Rank([]timer.RunResult{
		{Name: "forI", Index: 1, Iterations: 2000, Elapsed: time.Second, Strategy: timer.StrategyInline},
		{Name: "forRange", Index: 2, Iterations: 1000, Elapsed: time.Second, Strategy: timer.StrategyInline},
	})
	tbl, _ := report.NewReporter().Report(ranked)
	return &Run{
		ExecutionID: id,
		Timestamp:   runTime,
		Suite:       "strings",
		Settings:    SettingsFrom(timer.Options{}, "abort"),
		Comparisons: []Comparison{{Title: "loop styles", Args: "Hello, World!", Results: ranked}},
		Errors:      []string{"candidate 3 (bad) failed during preview"},
	}, tbl
}

func TestNewExecutionID(t *testing.T) {
	id := NewExecutionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewExecutionID())
}

func TestSettingsFrom_ResolvesDefaults(t *testing.T) {
	s := SettingsFrom(timer.Options{MaxScalingSteps: 3}, "continue")
	assert.Equal(t, Settings{
		TargetDuration:      "1s",
		FirstCheckpoint:     10,
		MinSampleDuration:   "35ms",
		InitialIterationCap: 1_000_000,
		MaxScalingSteps:     3,
		Strategy:            timer.StrategyInline,
		OnFault:             "continue",
	}, s)
}

func TestCreateOutputDir_UpdatesLatest(t *testing.T) {
	base := t.TempDir()

	first, err := CreateOutputDir(base, "0123abcd-0000-4000-8000-000000000000", runTime, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "2026-01-02T03-04-05-0123abcd"), first.Path())
	assert.DirExists(t, first.Path())

	second, err := CreateOutputDir(base, "89abcdef-0000-4000-8000-000000000000", runTime.Add(time.Minute), nil)
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(base, "latest"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(second.Path()), target)
}

func TestOutputDir_WritesArtifacts(t *testing.T) {
	id := NewExecutionID()
	dir, err := CreateOutputDir(t.TempDir(), id, runTime, nil)
	require.NoError(t, err)

	run, tbl := sampleRun(id)
	require.NoError(t, dir.WriteResults(run))
	require.NoError(t, dir.WriteReport(run))

	data, err := os.ReadFile(filepath.Join(dir.Path(), "results.json"))
	require.NoError(t, err)
	var decoded Run
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded.ExecutionID)
	assert.True(t, runTime.Equal(decoded.Timestamp))
	require.Len(t, decoded.Comparisons, 1)
	results := decoded.Comparisons[0].Results
	require.Len(t, results, 2)
	assert.Equal(t, "forI", results[0].Name)
	assert.True(t, results[0].Fastest)
	assert.Equal(t, time.Second, results[1].Elapsed)
	assert.InDelta(t, 50.0, results[1].PercentSlower, 1e-9)

	md, err := os.ReadFile(filepath.Join(dir.Path(), "BENCHMARK.md"))
	require.NoError(t, err)
	text := string(md)
	for _, want := range []string{
		"# Benchmark Results",
		"`" + id + "`",
		"2026-01-02T03:04:05Z",
		"**Suite:** strings",
		"| Target duration | 1s |",
		"### loop styles",
		"Arguments: `Hello, World!`",
		tbl.Markdown(),
		"## Errors",
		"candidate 3 (bad)",
		"| `results.json` |",
		"| `BENCHMARK.md` | This benchmark report |",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "**Git:**")
}

func TestOutputDir_ReportWithoutResults(t *testing.T) {
	dir, err := CreateOutputDir(t.TempDir(), NewExecutionID(), runTime, nil)
	require.NoError(t, err)

	run := &Run{ExecutionID: "x", Timestamp: runTime}
	require.NoError(t, dir.WriteReport(run))

	md, err := os.ReadFile(filepath.Join(dir.Path(), "BENCHMARK.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "_no candidate was measured_")
	assert.NotContains(t, string(md), "## Errors")
}

func TestGitMetadata_NilSafe(t *testing.T) {
	var g *GitMetadata
	assert.Nil(t, g.OTELAttributes())
	assert.Nil(t, g.PrometheusLabels())
	assert.Equal(t, "(no git)", g.String())
}

func TestGitMetadata_String(t *testing.T) {
	g := &GitMetadata{SHA: "d2169b0aaaa", ShortSHA: "d2169b0", Branch: "main", Dirty: true}
	assert.Equal(t, "main@d2169b0 (dirty)", g.String())
	assert.Equal(t, map[string]string{"git_sha": "d2169b0", "git_branch": "main"}, g.PrometheusLabels())
	assert.Len(t, g.OTELAttributes(), 4)
}

func TestGetGitMetadata(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	ctx := context.Background()

	_, err := GetGitMetadata(ctx, t.TempDir())
	assert.Error(t, err)

	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q", "-b", "trunk")
	git("commit", "-q", "--allow-empty", "-m", "initial")

	meta, err := GetGitMetadata(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, meta.SHA, 40)
	assert.Equal(t, meta.SHA[:7], meta.ShortSHA)
	assert.Equal(t, "trunk", meta.Branch)
	assert.False(t, meta.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))
	meta, err = GetGitMetadata(ctx, dir)
	require.NoError(t, err)
	assert.True(t, meta.Dirty)
}
