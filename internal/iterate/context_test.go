package iterate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/iterate"
)

func TestContext_ValueAndExcludeKey(t *testing.T) {
	ctx := iterate.NewContext("raw", 42)
	require.Equal(t, "raw", ctx.Value())
	require.Equal(t, 42, ctx.ExcludeKey())

	value, ok := ctx.Get(iterate.KeyValue)
	require.True(t, ok)
	require.Equal(t, "raw", value)

	key, ok := ctx.Get(iterate.KeyExcludeValue)
	require.True(t, ok)
	require.Equal(t, 42, key)
}

func TestContext_ReservedKeys(t *testing.T) {
	ctx := iterate.NewContext("raw", 42)

	require.ErrorIs(t, ctx.Set(iterate.KeyValue, "other"), iterate.ErrReservedKey)
	require.ErrorIs(t, ctx.Set(iterate.KeyExcludeValue, 0), iterate.ErrReservedKey)

	// The originals are untouched.
	require.Equal(t, "raw", ctx.Value())
	require.Equal(t, 42, ctx.ExcludeKey())
}

func TestContext_AuxiliaryFields(t *testing.T) {
	ctx := iterate.NewContext(nil, nil)

	require.NoError(t, ctx.Set("job_key", "1/2/3"))
	require.NoError(t, ctx.Update(map[string]any{
		"job_num":   3,
		"job_items": 17,
	}))

	num, ok := ctx.Get("job_num")
	require.True(t, ok)
	require.Equal(t, 3, num)

	_, ok = ctx.Get("missing")
	require.False(t, ok)
}

func TestContext_UpdateRejectsReservedKey(t *testing.T) {
	ctx := iterate.NewContext(nil, nil)
	err := ctx.Update(map[string]any{iterate.KeyValue: "x"})
	require.ErrorIs(t, err, iterate.ErrReservedKey)
}

func TestContext_CloseReasonsAppendOnly(t *testing.T) {
	ctx := iterate.NewContext(nil, nil)

	_, ok := ctx.CloseReason()
	require.False(t, ok)

	require.NoError(t, ctx.SetCloseReason("first"))
	require.NoError(t, ctx.SetCloseReason("second"))

	reason, ok := ctx.CloseReason()
	require.True(t, ok)
	require.Equal(t, "second", reason)
	require.Equal(t, []string{"first", "second"}, ctx.CloseReasons())
}

func TestContext_EmptyCloseReason(t *testing.T) {
	ctx := iterate.NewContext(nil, nil)
	require.ErrorIs(t, ctx.SetCloseReason(""), iterate.ErrInvalidArgument)
}
