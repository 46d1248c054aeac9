package report

import (
	"strings"

	"golang.org/x/text/language"
)

// Column headers, in display order.
const (
	ColFunction         = "FUNCTION"
	ColSpeed            = "SPEED"
	ColTestLength       = "TEST LENGTH"
	ColCompareToFastest = "COMPARE TO FASTEST"
	ColCompareToSlowest = "COMPARE TO SLOWEST"
)

// Table is the display form of a report: one header row and one row per
// candidate in run order.
type Table struct {
	Header []string
	Rows   [][]string
}

// Markdown renders the table as a GitHub-flavoured Markdown table.
func (t Table) Markdown() string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(c, "|", `\|`))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(t.Header)
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, row := range t.Rows {
		writeRow(row)
	}
	return b.String()
}

// Reporter turns ranked results into a Table.
type Reporter struct {
	Format *Formatter
}

// NewReporter returns a Reporter that formats numbers for English.
func NewReporter() *Reporter {
	return &Reporter{Format: NewFormatter(language.English)}
}

// Report builds the display table and returns it together with the
// structured results it was built from. The comparison columns only appear
// when more than one candidate was measured.
func (r *Reporter) Report(ranked []RankedResult) (Table, []RankedResult) {
	compared := len(ranked) > 1
	t := Table{Header: []string{ColFunction, ColSpeed, ColTestLength}}
	if compared {
		t.Header = append(t.Header, ColCompareToFastest, ColCompareToSlowest)
	}

	t.Rows = make([][]string, 0, len(ranked))
	for _, res := range ranked {
		row := []string{
			res.Name,
			r.Format.Speed(res.OpsPerSec),
			r.Format.Length(res.ElapsedSeconds()),
		}
		if compared {
			row = append(row, r.Format.CompareToFastest(res), r.Format.CompareToSlowest(res))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, ranked
}
