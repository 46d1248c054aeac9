package timer

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Candidate is one function under comparison.
type Candidate struct {
	// Name is the display name. When empty, NameOf derives one from Fn.
	Name string
	// Fn is any Go func value. func(any) any takes the fastest call path.
	Fn any
}

// Func returns a Candidate for fn. An empty name is derived from the
// function's symbol.
func Func(name string, fn any) Candidate {
	if name == "" {
		name = symbolName(fn)
	}
	return Candidate{Name: name, Fn: fn}
}

// Unary adapts a typed single-argument function to the fast single-value
// call path. Calling it with an argument of the wrong type panics, which the
// harness reports as an InvocationFault.
func Unary[T, R any](name string, fn func(T) R) Candidate {
	if name == "" {
		name = symbolName(fn)
	}
	return Candidate{
		Name: name,
		Fn: func(v any) any {
			return fn(v.(T))
		},
	}
}

// NameOf returns the candidate's display name. position is the candidate's
// 1-based place in its run and is used when no name can be derived.
func NameOf(c Candidate, position int) string {
	if c.Name != "" {
		return c.Name
	}
	if name := symbolName(c.Fn); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", position)
}

// symbolName returns the short symbol name of a func value, or "" for
// closures and non-functions.
func symbolName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	full := strings.ReplaceAll(f.Name(), "[...]", "")
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	parts := strings.Split(full, ".")
	name := parts[len(parts)-1]
	// Closures are named func1, func2, ... and method values carry a -fm suffix.
	if strings.TrimLeft(strings.TrimPrefix(name, "func"), "0123456789") == "" {
		return ""
	}
	return strings.TrimSuffix(name, "-fm")
}
