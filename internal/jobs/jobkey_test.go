package jobs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/jobs"
)

func TestNewJobKey(t *testing.T) {
	key, err := jobs.NewJobKey(274629, 1, 305)
	require.NoError(t, err)
	require.Equal(t, 274629, key.ProjectID())
	require.Equal(t, 1, key.SpiderID())
	require.Equal(t, 305, key.JobNum())
	require.Equal(t, "274629/1/305", key.String())
}

func TestNewJobKey_NonPositiveParts(t *testing.T) {
	for _, parts := range [][3]int{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
		{-1, 1, 1},
	} {
		_, err := jobs.NewJobKey(parts[0], parts[1], parts[2])
		require.ErrorIs(t, err, jobs.ErrInvalidJobKey, "parts %v", parts)
	}
}

func TestParseJobKey(t *testing.T) {
	key, err := jobs.ParseJobKey("274629/1/305")
	require.NoError(t, err)
	require.Equal(t, 305, key.JobNum())
}

func TestParseJobKey_Invalid(t *testing.T) {
	for _, s := range []string{
		"",
		"1/2",
		"1/2/3/4",
		"a/b/c",
		"1/2/0",
		"1//3",
	} {
		_, err := jobs.ParseJobKey(s)
		require.ErrorIs(t, err, jobs.ErrInvalidJobKey, "input %q", s)
	}
}

func TestJobKey_IsZero(t *testing.T) {
	var key jobs.JobKey
	require.True(t, key.IsZero())

	key, err := jobs.NewJobKey(1, 1, 1)
	require.NoError(t, err)
	require.False(t, key.IsZero())
}

func TestSummary_Finished(t *testing.T) {
	require.True(t, jobs.Summary{CloseReason: jobs.CloseReasonFinished}.Finished())
	require.False(t, jobs.Summary{CloseReason: "cancelled"}.Finished())
}

func TestSummary_JobKey(t *testing.T) {
	key, err := jobs.Summary{Key: "7/3/42"}.JobKey()
	require.NoError(t, err)
	require.Equal(t, 42, key.JobNum())
}
