package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRangeDate(t *testing.T) {
	got, err := parseRangeDate("2024-3-7")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 7, 23, 59, 59, 0, time.Local), got)

	got, err = parseRangeDate("2024-11-30")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.November, 30, 23, 59, 59, 0, time.Local), got)

	// leap day parses, the same day on a non-leap year does not
	got, err = parseRangeDate("2024-2-29")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 0, time.Local), got)

	for _, bad := range []string{"", "2024", "2024-3", "2024-3-7-1", "2024-x-7", "2024-13-1", "2024-0-1", "2024-1-32", "2020-2-30", "2023-2-29", "2024-4-31"} {
		_, err := parseRangeDate(bad)
		require.Error(t, err, "date %q", bad)
	}
}

func TestDateRangeDefaults(t *testing.T) {
	begin, end, err := dateRange(map[string]string{})
	require.NoError(t, err)

	now := time.Now()
	require.Equal(t, endOfDay(now), end)
	require.Equal(t, endOfDay(now.AddDate(0, 0, -15)), begin)
}

func TestDateRangeExplicit(t *testing.T) {
	begin, end, err := dateRange(map[string]string{"begin": "2024-1-1", "end": "2024-2-1"})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.January, 1, 23, 59, 59, 0, time.Local), begin)
	require.Equal(t, time.Date(2024, time.February, 1, 23, 59, 59, 0, time.Local), end)

	// begin only: end keeps its per-request default
	begin, end, err = dateRange(map[string]string{"begin": "2024-1-1"})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.January, 1, 23, 59, 59, 0, time.Local), begin)
	require.Equal(t, endOfDay(time.Now()), end)

	_, _, err = dateRange(map[string]string{"begin": "oops"})
	require.Error(t, err)
}
