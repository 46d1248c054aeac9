// Package runinfo records measurement runs on disk: a results.json for
// programs and a BENCHMARK.md for people, in one directory per run.
package runinfo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

// Settings are the effective calibration settings of a run.
type Settings struct {
	TargetDuration      string `json:"target_duration"`
	FirstCheckpoint     int    `json:"first_checkpoint"`
	MinSampleDuration   string `json:"min_sample_duration"`
	InitialIterationCap int    `json:"initial_iteration_cap"`
	MaxScalingSteps     int    `json:"max_scaling_steps"`
	Strategy            string `json:"strategy"`
	OnFault             string `json:"on_fault"`
}

// SettingsFrom resolves o to its effective values.
func SettingsFrom(o timer.Options, onFault string) Settings {
	return Settings{
		TargetDuration:      o.GetTargetDuration().String(),
		FirstCheckpoint:     o.GetFirstCheckpoint(),
		MinSampleDuration:   o.GetMinSampleDuration().String(),
		InitialIterationCap: o.GetInitialIterationCap(),
		MaxScalingSteps:     o.GetMaxScalingSteps(),
		Strategy:            o.GetStrategy(),
		OnFault:             onFault,
	}
}

// Comparison is one group of candidates measured together.
type Comparison struct {
	Title   string                `json:"title"`
	Args    string                `json:"args"`
	Results []report.RankedResult `json:"results"`
}

// Run is the top-level structure for results.json.
type Run struct {
	ExecutionID string       `json:"execution_id"`
	Timestamp   time.Time    `json:"timestamp"`
	Git         *GitMetadata `json:"git,omitempty"`
	Suite       string       `json:"suite,omitempty"`
	Settings    Settings     `json:"settings"`
	Comparisons []Comparison `json:"comparisons"`
	Errors      []string     `json:"errors,omitempty"`
}

// NewExecutionID returns a fresh random execution ID.
func NewExecutionID() string {
	return uuid.NewString()
}

// OutputDir is the directory holding one run's artifacts.
type OutputDir struct {
	path   string
	logger *slog.Logger
}

// CreateOutputDir creates <base>/<timestamp>-<id8> for the run identified
// by executionID and points <base>/latest at it.
func CreateOutputDir(base, executionID string, now time.Time, logger *slog.Logger) (*OutputDir, error) {
	if logger == nil {
		logger = slog.Default()
	}
	id := strings.ReplaceAll(executionID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	dirName := fmt.Sprintf("%s-%s", now.Format("2006-01-02T15-04-05"), id)
	d := &OutputDir{path: filepath.Join(base, dirName), logger: logger}

	if err := os.MkdirAll(d.path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	logger.Info("created output directory", "path", d.path)

	// Update latest symlink immediately so users can find the run in progress
	if err := d.updateLatestSymlink(); err != nil {
		logger.Warn("failed to update latest symlink", "error", err)
	}
	return d, nil
}

// Path returns the path to the output directory.
func (d *OutputDir) Path() string {
	return d.path
}

// updateLatestSymlink updates the "latest" symlink to point to this run.
func (d *OutputDir) updateLatestSymlink() error {
	latestPath := filepath.Join(filepath.Dir(d.path), "latest")

	// Remove existing symlink (ignore error if doesn't exist)
	_ = os.Remove(latestPath)

	// Create new symlink (relative path)
	return os.Symlink(filepath.Base(d.path), latestPath)
}

// WriteResults writes the results.json file.
func (d *OutputDir) WriteResults(run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.path, "results.json"), data, 0644)
}

// WriteReport creates a BENCHMARK.md file summarizing the run, with one
// results table per comparison.
func (d *OutputDir) WriteReport(run *Run) error {
	var b strings.Builder

	b.WriteString("# Benchmark Results\n\n")
	fmt.Fprintf(&b, "**Execution ID:** `%s`\n\n", run.ExecutionID)
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", run.Timestamp.Format(time.RFC3339))
	if run.Git != nil {
		fmt.Fprintf(&b, "**Git:** `%s`\n\n", run.Git)
	}
	if run.Suite != "" {
		fmt.Fprintf(&b, "**Suite:** %s\n\n", run.Suite)
	}

	b.WriteString("## Configuration\n\n")
	b.WriteString("| Setting | Value |\n")
	b.WriteString("|---------|-------|\n")
	fmt.Fprintf(&b, "| Target duration | %s |\n", run.Settings.TargetDuration)
	fmt.Fprintf(&b, "| First checkpoint | %d |\n", run.Settings.FirstCheckpoint)
	fmt.Fprintf(&b, "| Min sample duration | %s |\n", run.Settings.MinSampleDuration)
	fmt.Fprintf(&b, "| Initial iteration cap | %d |\n", run.Settings.InitialIterationCap)
	fmt.Fprintf(&b, "| Max scaling steps | %d |\n", run.Settings.MaxScalingSteps)
	fmt.Fprintf(&b, "| Strategy | %s |\n", run.Settings.Strategy)
	fmt.Fprintf(&b, "| On fault | %s |\n", run.Settings.OnFault)
	b.WriteString("\n")

	b.WriteString("## Results\n\n")
	if len(run.Comparisons) == 0 {
		b.WriteString("_no candidate was measured_\n\n")
	}
	reporter := report.NewReporter()
	for _, c := range run.Comparisons {
		fmt.Fprintf(&b, "### %s\n\n", c.Title)
		fmt.Fprintf(&b, "Arguments: `%s`\n\n", strings.ReplaceAll(c.Args, "`", "'"))
		tbl, _ := reporter.Report(c.Results)
		b.WriteString(tbl.Markdown())
		b.WriteString("\n")
	}

	if len(run.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		for _, e := range run.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Output Files\n\n")
	b.WriteString("| File | Description |\n")
	b.WriteString("|------|-------------|\n")
	files, _ := os.ReadDir(d.path)
	names := []string{"BENCHMARK.md"}
	for _, f := range files {
		if f.Name() != "BENCHMARK.md" {
			names = append(names, f.Name())
		}
	}
	for _, name := range names {
		fmt.Fprintf(&b, "| `%s` | %s |\n", name, describeOutputFile(name))
	}

	reportPath := filepath.Join(d.path, "BENCHMARK.md")
	if err := os.WriteFile(reportPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	d.logger.Info("generated benchmark report", "path", reportPath)
	return nil
}

// describeOutputFile returns a human-readable description for a run artifact.
func describeOutputFile(filename string) string {
	descriptions := map[string]string{
		"BENCHMARK.md": "This benchmark report",
		"results.json": "Full results in JSON format (for programmatic analysis)",
		"metrics.prom": "Prometheus metrics in text exposition format",
	}
	if desc, ok := descriptions[filename]; ok {
		return desc
	}
	switch {
	case strings.HasSuffix(filename, ".prom"):
		return "Prometheus metrics in text exposition format"
	case strings.HasSuffix(filename, ".json"):
		return "JSON artifact"
	default:
		return "Benchmark artifact"
	}
}
