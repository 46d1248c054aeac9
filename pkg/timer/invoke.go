package timer

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// Invoker applies one candidate to one ArgumentSet.
type Invoker struct {
	call func() (any, error)
}

// Invoke calls the candidate once. Panics are not recovered.
func (inv Invoker) Invoke() (any, error) {
	return inv.call()
}

// NewInvoker prepares c to be called with args. Signatures that cannot take
// args are rejected with an error wrapping ErrArityMismatch.
//
// Single sets call func(any) any and func(...any) any directly. Multi sets
// spread through reflection unless the candidate is func(...any) any, so
// the multi-argument path is measurably slower for the same candidate.
func NewInvoker(c Candidate, args ArgumentSet) (Invoker, error) {
	switch args.Kind() {
	case KindSingle:
		v := args.Value()
		switch fn := c.Fn.(type) {
		case func(any) any:
			return Invoker{call: func() (any, error) { return fn(v), nil }}, nil
		case func(...any) any:
			return Invoker{call: func() (any, error) { return fn(v), nil }}, nil
		}
		return reflectInvoker(c.Fn, []any{v})
	case KindMulti:
		vs := args.Values()
		switch fn := c.Fn.(type) {
		case func(...any) any:
			return Invoker{call: func() (any, error) { return fn(vs...), nil }}, nil
		case func() any:
			if len(vs) == 0 {
				return Invoker{call: func() (any, error) { return fn(), nil }}, nil
			}
		}
		return reflectInvoker(c.Fn, vs)
	default:
		return Invoker{}, fmt.Errorf("unknown argument kind %v", args.Kind())
	}
}

func reflectInvoker(fn any, vs []any) (Invoker, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return Invoker{}, fmt.Errorf("%w: %T is not a function", ErrArityMismatch, fn)
	}
	ft := fv.Type()

	if ft.IsVariadic() {
		if len(vs) < ft.NumIn()-1 {
			return Invoker{}, fmt.Errorf("%w: %s needs at least %d arguments, got %d",
				ErrArityMismatch, ft, ft.NumIn()-1, len(vs))
		}
	} else if len(vs) != ft.NumIn() {
		return Invoker{}, fmt.Errorf("%w: %s takes %d arguments, got %d",
			ErrArityMismatch, ft, ft.NumIn(), len(vs))
	}

	in := make([]reflect.Value, len(vs))
	for i, v := range vs {
		pt := paramType(ft, i)
		av, err := argValue(v, pt)
		if err != nil {
			return Invoker{}, fmt.Errorf("%w: argument %d: %v", ErrArityMismatch, i, err)
		}
		in[i] = av
	}

	returnsErr := ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType
	return Invoker{call: func() (any, error) {
		out := fv.Call(in)
		if len(out) == 0 {
			return nil, nil
		}
		if returnsErr {
			last := out[len(out)-1]
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
			if len(out) == 1 {
				return nil, nil
			}
		}
		return out[0].Interface(), nil
	}}, nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

func argValue(v any, pt reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch pt.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", pt)
	}
	av := reflect.ValueOf(v)
	if !av.Type().AssignableTo(pt) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", av.Type(), pt)
	}
	return av, nil
}
