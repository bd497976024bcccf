package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeekBoundsStartsOnSunday(t *testing.T) {
	seoul := time.FixedZone("Asia/Seoul", 9*60*60)
	wednesday := time.Date(2024, 7, 3, 15, 30, 0, 0, seoul)

	start, end := WeekBounds(wednesday)
	require.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, seoul), start)
	require.Equal(t, time.Sunday, start.Weekday())
	require.Equal(t, time.Date(2024, 7, 6, 23, 59, 59, int(999*time.Millisecond), seoul), end)
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2024, 2, 14, 8, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)
}

func TestDayBounds(t *testing.T) {
	ts := time.Date(2024, 7, 1, 18, 4, 5, 0, time.UTC)
	require.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
	require.True(t, EndOfDay(ts).Before(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)))
}
