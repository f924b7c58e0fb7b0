package iterate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/iterate"
)

func TestNewThreshold_Negative(t *testing.T) {
	_, err := iterate.NewThreshold(-1)
	require.ErrorIs(t, err, iterate.ErrInvalidThreshold)
}

func TestNewThreshold_ZeroIsDisabled(t *testing.T) {
	threshold, err := iterate.NewThreshold(0)
	require.NoError(t, err)
	require.False(t, threshold.Enabled())
	require.Equal(t, 0, threshold.Value())
	require.Equal(t, "none", threshold.String())
}

func TestNewThreshold_Positive(t *testing.T) {
	threshold, err := iterate.NewThreshold(5)
	require.NoError(t, err)
	require.True(t, threshold.Enabled())
	require.Equal(t, 5, threshold.Value())
	require.Equal(t, "5", threshold.String())
}

func TestThreshold_ZeroValueIsDisabled(t *testing.T) {
	var threshold iterate.Threshold
	require.False(t, threshold.Enabled())
}
