package iterate_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/iterate"
)

var (
	intType    = reflect.TypeOf(0)
	stringType = reflect.TypeOf("")
)

func TestStage_UncheckedPassesAnything(t *testing.T) {
	stage, err := iterate.NewStage(func(v any) (any, error) {
		return v, nil
	}, nil, nil)
	require.NoError(t, err)

	for _, v := range []any{1, "x", nil, []int{1}} {
		out, callErr := stage.Call(v)
		require.NoError(t, callErr)
		require.Equal(t, v, out)
	}
}

func TestStage_InputTypeMismatch(t *testing.T) {
	called := false
	stage, err := iterate.NewStage(func(v any) (any, error) {
		called = true
		return v, nil
	}, intType, nil)
	require.NoError(t, err)

	_, callErr := stage.Call("not an int")
	require.ErrorIs(t, callErr, iterate.ErrTypeMismatch)
	// Fails fast, before invoking the wrapped function.
	require.False(t, called)
}

func TestStage_OutputTypeMismatch(t *testing.T) {
	stage, err := iterate.NewStage(func(v any) (any, error) {
		return "not an int", nil
	}, nil, intType)
	require.NoError(t, err)

	_, callErr := stage.Call(5)
	require.ErrorIs(t, callErr, iterate.ErrTypeMismatch)
}

func TestStage_BothSidesChecked(t *testing.T) {
	stage, err := iterate.NewStage(func(v any) (any, error) {
		return len(v.(string)), nil
	}, stringType, intType)
	require.NoError(t, err)

	out, callErr := stage.Call("abc")
	require.NoError(t, callErr)
	require.Equal(t, 3, out)
}

func TestStage_NilValueAgainstValueType(t *testing.T) {
	stage, err := iterate.NewStage(func(v any) (any, error) {
		return v, nil
	}, intType, nil)
	require.NoError(t, err)

	_, callErr := stage.Call(nil)
	require.ErrorIs(t, callErr, iterate.ErrTypeMismatch)
}

func TestStage_NilValueAgainstPointerType(t *testing.T) {
	stage, err := iterate.NewStage(func(v any) (any, error) {
		return v, nil
	}, reflect.TypeOf((*iterate.Context)(nil)), nil)
	require.NoError(t, err)

	_, callErr := stage.Call(nil)
	require.NoError(t, callErr)
}

func TestStage_WrappedErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	stage, err := iterate.NewStage(func(v any) (any, error) {
		return nil, boom
	}, nil, intType)
	require.NoError(t, err)

	_, callErr := stage.Call(1)
	require.ErrorIs(t, callErr, boom)
	// The output check never runs after a failed call.
	require.NotErrorIs(t, callErr, iterate.ErrTypeMismatch)
}

func TestNewStage_NilFunc(t *testing.T) {
	_, err := iterate.NewStage(nil, nil, nil)
	require.ErrorIs(t, err, iterate.ErrNilStageFunc)
}

func TestCaseStage_DeclaredTypes(t *testing.T) {
	stage := iterate.CaseStage(func(ctx *iterate.Context) (bool, error) {
		return ctx.Value() == nil, nil
	})
	require.True(t, stage.IsSet())

	_, err := stage.Call("not a context")
	require.ErrorIs(t, err, iterate.ErrTypeMismatch)

	out, err := stage.Call(iterate.NewContext(nil, nil))
	require.NoError(t, err)
	require.Equal(t, true, out)
}
