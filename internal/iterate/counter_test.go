package iterate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/iterate"
)

func mustThreshold(t *testing.T, n int) iterate.Threshold {
	t.Helper()
	threshold, err := iterate.NewThreshold(n)
	require.NoError(t, err)
	return threshold
}

func TestCounter_StickyReached(t *testing.T) {
	counter := iterate.NewCounter(mustThreshold(t, 3))

	// false, false, true, then true on every call until Drop.
	require.False(t, counter.Add())
	require.False(t, counter.Add())
	require.True(t, counter.Add())
	require.True(t, counter.Add())
	require.True(t, counter.Add())

	counter.Drop()
	require.Equal(t, 0, counter.Count())

	require.False(t, counter.Add())
	require.False(t, counter.Add())
	require.True(t, counter.Add())
}

func TestCounter_DisabledNeverFires(t *testing.T) {
	counter := iterate.NewCounter(iterate.Threshold{})
	require.False(t, counter.Enabled())

	for range 1000 {
		require.False(t, counter.Add())
	}
	// Disabled counters do not count at all.
	require.Equal(t, 0, counter.Count())
}

func TestCounter_ThresholdOne(t *testing.T) {
	counter := iterate.NewCounter(mustThreshold(t, 1))
	require.True(t, counter.Add())
	require.True(t, counter.Add())
}

func TestCounter_DropBeforeReached(t *testing.T) {
	counter := iterate.NewCounter(mustThreshold(t, 2))
	require.False(t, counter.Add())
	counter.Drop()
	require.False(t, counter.Add())
	require.True(t, counter.Add())
}
