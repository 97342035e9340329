package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveEventDate(t *testing.T) {
	workDate := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	seconds := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC).Unix()
	millis := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC).UnixMilli()

	cases := []struct {
		name     string
		workDate *time.Time
		raw      int64
		want     time.Time
		ok       bool
	}{
		{"work date wins over timestamp", &workDate, millis, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"seconds timestamp", nil, seconds, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"milliseconds timestamp", nil, millis, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"nothing usable", nil, 0, time.Time{}, false},
		{"negative timestamp excluded", nil, -5, time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveEventDate(tc.workDate, tc.raw)
			require.Equal(t, tc.ok, ok)
			if ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestResolveEventDateZeroWorkDateFallsThrough(t *testing.T) {
	var zero time.Time
	seconds := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
	got, ok := ResolveEventDate(&zero, seconds)
	require.True(t, ok)
	require.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), got)
}
