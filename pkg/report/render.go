package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	slowestColor, _ = colorful.Hex("#FF5F5F")
	fastestColor, _ = colorful.Hex("#5FD787")
)

// Renderer draws a Table for a terminal. Colours follow the capabilities of
// the writer it was created for, so output to a pipe or file stays plain.
type Renderer struct {
	lg *lipgloss.Renderer
}

// NewRenderer returns a Renderer for output written to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{lg: lipgloss.NewRenderer(w)}
}

// Render draws t with rounded borders. The speed column is shaded from red
// (slowest) to green (fastest) when ranked holds a comparison.
func (r *Renderer) Render(t Table, ranked []RankedResult) string {
	headerStyle := r.lg.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00CED1")).
		Padding(0, 1)
	cellStyle := r.lg.NewStyle().Padding(0, 1)
	borderStyle := r.lg.NewStyle().Foreground(lipgloss.Color("#9B30FF"))

	speedColors := speedGradient(ranked)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(t.Header...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			s := cellStyle
			switch {
			case col == 0:
				s = s.Bold(true)
			case col == 1 && row < len(speedColors):
				s = s.Foreground(speedColors[row]).Align(lipgloss.Right)
			default:
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	return tbl.String()
}

// speedGradient blends each result's position between the slowest and the
// fastest throughput. It returns nil for runs without a comparison.
func speedGradient(ranked []RankedResult) []lipgloss.Color {
	if len(ranked) < 2 {
		return nil
	}
	lo, hi := ranked[0].OpsPerSec, ranked[0].OpsPerSec
	for _, res := range ranked[1:] {
		lo = min(lo, res.OpsPerSec)
		hi = max(hi, res.OpsPerSec)
	}

	colors := make([]lipgloss.Color, len(ranked))
	for i, res := range ranked {
		pos := 0.5
		if hi > lo {
			pos = (res.OpsPerSec - lo) / (hi - lo)
		}
		colors[i] = lipgloss.Color(slowestColor.BlendLuv(fastestColor, pos).Clamped().Hex())
	}
	return colors
}
