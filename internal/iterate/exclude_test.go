package iterate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/iterate"
)

func keys(values ...int) iterate.KeySeq {
	return func(yield func(any) bool) {
		for _, v := range values {
			if !yield(v) {
				return
			}
		}
	}
}

func TestExcludeCursor_MergeMatching(t *testing.T) {
	cursor := iterate.NewExcludeCursor(keys(28, 26), 0)
	defer cursor.Close()

	require.False(t, cursor.Test(30))
	require.False(t, cursor.Test(29))
	require.True(t, cursor.Test(28))
	require.False(t, cursor.Test(27))
	require.True(t, cursor.Test(26))

	// Both keys consumed: the cursor is completed and nothing matches
	// any more, including keys it already consumed.
	require.True(t, cursor.Completed())
	require.False(t, cursor.Test(28))
	require.False(t, cursor.Test(25))
}

func TestExcludeCursor_EagerFirstPull(t *testing.T) {
	cursor := iterate.NewExcludeCursor(keys(5), 0)
	defer cursor.Close()

	require.Equal(t, 5, cursor.Pending())
	require.False(t, cursor.Completed())
}

func TestExcludeCursor_EmptySequence(t *testing.T) {
	cursor := iterate.NewExcludeCursor(keys(), -1)
	defer cursor.Close()

	require.True(t, cursor.Completed())
	require.Equal(t, -1, cursor.Pending())
	require.False(t, cursor.Test(-1))
}

func TestExcludeCursor_NilSequence(t *testing.T) {
	cursor := iterate.NewExcludeCursor(nil, 0)
	defer cursor.Close()

	require.True(t, cursor.Completed())
	require.False(t, cursor.Test(0))
}

func TestExcludeCursor_ConsumesEachKeyAtMostOnce(t *testing.T) {
	cursor := iterate.NewExcludeCursor(keys(10, 10, 9), 0)
	defer cursor.Close()

	require.True(t, cursor.Test(10))
	require.True(t, cursor.Test(10))
	require.False(t, cursor.Test(10))
	require.True(t, cursor.Test(9))
	require.True(t, cursor.Completed())
}

// Documents the ordering precondition: keys presented out of the exclude
// sequence's order are silently missed, by contract.
func TestExcludeCursor_OrderingContract(t *testing.T) {
	cursor := iterate.NewExcludeCursor(keys(28, 26), 0)
	defer cursor.Close()

	require.True(t, cursor.Test(28))
	// 28 was ahead of 26 in the exclude sequence; testing it again after
	// the cursor moved on cannot match.
	require.False(t, cursor.Test(28))
	require.True(t, cursor.Test(26))
}

func TestExcludeCursor_LazyConsumption(t *testing.T) {
	var pulled []int
	seq := iterate.KeySeq(func(yield func(any) bool) {
		for _, v := range []int{3, 2, 1} {
			pulled = append(pulled, v)
			if !yield(v) {
				return
			}
		}
	})

	cursor := iterate.NewExcludeCursor(seq, 0)
	defer cursor.Close()

	// Only the eager first pull happened.
	require.Equal(t, []int{3}, pulled)
	require.True(t, cursor.Test(3))
	require.Equal(t, []int{3, 2}, pulled)
}

// descending is the scan order of the reference use case: bigger job
// numbers come first.
func descending(a, b any) int {
	return b.(int) - a.(int)
}

func TestOrderedExcludeCursor_SkipsStaleKeys(t *testing.T) {
	cursor := iterate.NewOrderedExcludeCursor(keys(28, 27, 26), 0, descending)
	defer cursor.Close()

	require.True(t, cursor.Test(28))
	// 27 never gets tested (dropped upstream). Testing 26 discards the
	// stale 27 and matches 26.
	require.True(t, cursor.Test(26))
	require.True(t, cursor.Completed())
}

func TestOrderedExcludeCursor_NoStaleNoSkip(t *testing.T) {
	cursor := iterate.NewOrderedExcludeCursor(keys(28, 26), 0, descending)
	defer cursor.Close()

	require.False(t, cursor.Test(30))
	require.True(t, cursor.Test(28))
	require.False(t, cursor.Test(27))
	require.True(t, cursor.Test(26))
}

func TestExcludeCursor_CloseIsIdempotent(t *testing.T) {
	cursor := iterate.NewExcludeCursor(keys(1, 2, 3), 0)
	cursor.Close()
	cursor.Close()
}
