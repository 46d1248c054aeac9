package report

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders result values as table cells.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a Formatter that groups digits for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// Speed formats throughput rounded to one decimal, dropping a zero fraction:
// "1,234,567.8 ops/sec", "42 ops/sec".
func (f *Formatter) Speed(ops float64) string {
	rounded := math.Round(ops*10) / 10
	if rounded == math.Trunc(rounded) {
		return f.p.Sprintf("%.0f ops/sec", rounded)
	}
	return f.p.Sprintf("%.1f ops/sec", rounded)
}

// Length formats a duration in seconds with three significant digits.
func (f *Formatter) Length(seconds float64) string {
	return significant(seconds, 3) + " sec"
}

// CompareToFastest is "Fastest" or "12.3% slower".
func (f *Formatter) CompareToFastest(r RankedResult) string {
	if r.Fastest {
		return "Fastest"
	}
	return fmt.Sprintf("%.1f%% slower", r.PercentSlower)
}

// CompareToSlowest is "Slowest" or "45% faster".
func (f *Formatter) CompareToSlowest(r RankedResult) string {
	if r.Slowest {
		return "Slowest"
	}
	return f.p.Sprintf("%.0f%% faster", r.PercentFaster)
}

// significant formats v with digits significant figures, keeping trailing
// zeros ("1.00", "0.0350", "123").
func significant(v float64, digits int) string {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprintf("%.*f", digits-1, v)
	}
	magnitude := int(math.Floor(math.Log10(math.Abs(v))))
	decimals := digits - 1 - magnitude
	if decimals < 0 {
		decimals = 0
	}
	// Rounding can carry into a new digit (9.9996 -> 10.00); drop one place.
	scale := math.Pow(10, float64(decimals))
	if decimals > 0 && math.Abs(math.Round(v*scale)/scale) >= math.Pow(10, float64(magnitude+1)) {
		decimals--
	}
	return fmt.Sprintf("%.*f", decimals, v)
}
