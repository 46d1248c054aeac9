package timer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ArgumentKind tells how an ArgumentSet is applied to a candidate.
type ArgumentKind int

const (
	// KindSingle passes one value as the only argument.
	KindSingle ArgumentKind = iota
	// KindMulti spreads an ordered sequence as positional arguments.
	KindMulti
)

func (k ArgumentKind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multi"
	default:
		return fmt.Sprintf("ArgumentKind(%d)", int(k))
	}
}

// ArgumentSet is the argument shape shared by every candidate in a run.
// Build one with Single or Multi; the zero value is Single(nil).
type ArgumentSet struct {
	kind   ArgumentKind
	single any
	multi  []any
}

// Single returns an ArgumentSet that calls each candidate with v.
func Single(v any) ArgumentSet {
	return ArgumentSet{kind: KindSingle, single: v}
}

// Multi returns an ArgumentSet that calls each candidate with vs spread as
// positional arguments. The slice is copied.
func Multi(vs ...any) ArgumentSet {
	return ArgumentSet{kind: KindMulti, multi: append([]any(nil), vs...)}
}

// Kind reports the argument shape.
func (a ArgumentSet) Kind() ArgumentKind {
	return a.kind
}

// Value returns the single argument. It is nil for Multi sets.
func (a ArgumentSet) Value() any {
	return a.single
}

// Values returns a copy of the positional arguments of a Multi set.
func (a ArgumentSet) Values() []any {
	return append([]any(nil), a.multi...)
}

// Len is the number of arguments a candidate receives.
func (a ArgumentSet) Len() int {
	if a.kind == KindMulti {
		return len(a.multi)
	}
	return 1
}

// String renders the arguments the way they would appear in a call.
func (a ArgumentSet) String() string {
	if a.kind == KindSingle {
		return fmt.Sprintf("%v", a.single)
	}
	parts := make([]string, len(a.multi))
	for i, v := range a.multi {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, ", ")
}

// Preview formats v with %v and truncates the result to limit runes.
// A non-positive limit disables truncation.
func Preview(v any, limit int) string {
	s := fmt.Sprintf("%v", v)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
