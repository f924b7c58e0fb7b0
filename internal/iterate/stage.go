package iterate

import (
	"fmt"
	"reflect"
)

// StageFunc is the underlying function a Stage wraps.
type StageFunc func(value any) (any, error)

// Stage wraps a unary function with optionally declared input and output
// types. Call fails fast with ErrTypeMismatch before invoking the wrapped
// function if the argument violates the declared input type, and again
// after invocation if the result violates the declared output type. This
// gives every pluggable extension point in the Manager a uniform contract
// even though the underlying callbacks are arbitrary user code.
//
// A nil declared type disables the corresponding check. The zero Stage is
// unset; Manager substitutes defaults for unset stages.
type Stage struct {
	fn  StageFunc
	in  reflect.Type
	out reflect.Type
}

// NewStage creates a stage around fn with the declared input and output
// types. Either type may be nil to skip that check.
func NewStage(fn StageFunc, in, out reflect.Type) (Stage, error) {
	if fn == nil {
		return Stage{}, ErrNilStageFunc
	}
	return Stage{fn: fn, in: in, out: out}, nil
}

// IsSet reports whether the stage carries a function.
func (s Stage) IsSet() bool {
	return s.fn != nil
}

// Call invokes the wrapped function with type checks on both sides.
func (s Stage) Call(value any) (any, error) {
	if err := checkType(value, s.in, "input"); err != nil {
		return nil, err
	}
	result, err := s.fn(value)
	if err != nil {
		return nil, err
	}
	if err := checkType(result, s.out, "output"); err != nil {
		return nil, err
	}
	return result, nil
}

// checkType verifies that value is assignable to want. A nil want passes
// any value.
func checkType(value any, want reflect.Type, side string) error {
	if want == nil {
		return nil
	}
	got := reflect.TypeOf(value)
	if got == nil {
		// Untyped nil only satisfies nilable declared types.
		switch want.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return nil
		default:
			return fmt.Errorf("%w: %s value is nil, want %s", ErrTypeMismatch, side, want)
		}
	}
	if !got.AssignableTo(want) {
		return fmt.Errorf("%w: %s value is %s, want %s", ErrTypeMismatch, side, got, want)
	}
	return nil
}

// contextType is the declared type used by context-handling stages.
var contextType = reflect.TypeOf((*Context)(nil))

// boolType is the declared output type of case stages.
var boolType = reflect.TypeOf(false)

// ContextStage wraps a context constructor callback as a Stage with its
// output declared as *Context and its input declared as in (nil skips the
// input check).
func ContextStage(fn func(value any) (*Context, error), in reflect.Type) Stage {
	stage, _ := NewStage(func(value any) (any, error) {
		return fn(value)
	}, in, contextType)
	return stage
}

// CaseStage wraps a filtering predicate as a Stage taking *Context and
// returning bool. A true result drops the element entirely.
func CaseStage(fn func(ctx *Context) (bool, error)) Stage {
	stage, _ := NewStage(func(value any) (any, error) {
		return fn(value.(*Context))
	}, contextType, boolType)
	return stage
}

// ProjectStage wraps a result projector as a Stage taking *Context with
// its output declared as out (nil skips the output check).
func ProjectStage(fn func(ctx *Context) (any, error), out reflect.Type) Stage {
	stage, _ := NewStage(func(value any) (any, error) {
		return fn(value.(*Context))
	}, contextType, out)
	return stage
}

// FinishStage wraps a before-finish hook as a Stage taking *Context; its
// result is discarded.
func FinishStage(fn func(ctx *Context) error) Stage {
	stage, _ := NewStage(func(value any) (any, error) {
		return nil, fn(value.(*Context))
	}, contextType, nil)
	return stage
}
