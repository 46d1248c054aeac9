package runinfo

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// GitMetadata captures the git state of the tree a run was made from.
type GitMetadata struct {
	SHA          string `json:"sha"`           // Full commit SHA
	ShortSHA     string `json:"short_sha"`     // First 7 chars of SHA
	Branch       string `json:"branch"`        // Current branch name
	Dirty        bool   `json:"dirty"`         // True if uncommitted changes
	WorktreePath string `json:"worktree_path"` // Absolute path to worktree
}

// GetGitMetadata captures git state for a directory.
func GetGitMetadata(ctx context.Context, dir string) (*GitMetadata, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	meta := &GitMetadata{
		WorktreePath: absDir,
	}

	sha, err := gitCommand(ctx, absDir, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD SHA: %w", err)
	}
	meta.SHA = sha
	if len(sha) >= 7 {
		meta.ShortSHA = sha[:7]
	} else {
		meta.ShortSHA = sha
	}

	branch, err := gitCommand(ctx, absDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		// Not fatal - might be detached HEAD
		meta.Branch = "HEAD"
	} else {
		meta.Branch = branch
	}

	status, err := gitCommand(ctx, absDir, "status", "--porcelain")
	if err == nil {
		meta.Dirty = len(strings.TrimSpace(status)) > 0
	}

	return meta, nil
}

// gitCommand runs a git command in the specified directory and returns trimmed output.
func gitCommand(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// OTELAttributes returns git metadata as span attributes.
func (g *GitMetadata) OTELAttributes() []attribute.KeyValue {
	if g == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String("git.sha", g.SHA),
		attribute.String("git.short_sha", g.ShortSHA),
		attribute.String("git.branch", g.Branch),
		attribute.Bool("git.dirty", g.Dirty),
	}
}

// PrometheusLabels returns git metadata as Prometheus labels.
// Note: Prometheus labels should be short and stable.
func (g *GitMetadata) PrometheusLabels() map[string]string {
	if g == nil {
		return nil
	}
	return map[string]string{
		"git_sha":    g.ShortSHA,
		"git_branch": g.Branch,
	}
}

// String returns a human-readable summary of the git metadata.
func (g *GitMetadata) String() string {
	if g == nil {
		return "(no git)"
	}
	dirty := ""
	if g.Dirty {
		dirty = " (dirty)"
	}
	return fmt.Sprintf("%s@%s%s", g.Branch, g.ShortSHA, dirty)
}
