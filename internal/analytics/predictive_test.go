package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 10, 30, 0, 0, time.UTC) }
}

func TestPredictRegularFailureHistory(t *testing.T) {
	engine := NewPredictiveEngine()
	engine.WithNow(fixedNow(2024, 2, 5))

	predictions := engine.Predict([]Event{
		{System: "Conveyor", Action: "Replaced", WorkDate: date(2024, 1, 1)},
		{System: "Conveyor", Action: "Replaced", WorkDate: date(2024, 1, 11)},
		{System: "Conveyor", Action: "Replaced", WorkDate: date(2024, 1, 21)},
	})
	require.Len(t, predictions, 1)

	p := predictions[0]
	require.Equal(t, "Conveyor", p.System)
	require.NotNil(t, p.MTBFDays)
	require.Equal(t, 10, *p.MTBFDays)
	require.Equal(t, "2024-01-21", p.LastFailure)
	require.Equal(t, "2024-01-31", p.PredictedAt)
	require.Equal(t, -6, p.DaysUntilDue)
	require.Equal(t, StatusCritical, p.Status)
}

func TestPredictSingleEventFallback(t *testing.T) {
	engine := NewPredictiveEngine()
	engine.WithNow(fixedNow(2024, 1, 15))

	predictions := engine.Predict([]Event{
		{System: "Robot", Action: "Fixed", WorkDate: date(2024, 1, 1)},
	})
	require.Len(t, predictions, 1)

	p := predictions[0]
	require.Nil(t, p.MTBFDays)
	require.Equal(t, 1, p.EventCount)
	require.Equal(t, "2024-01-31", p.PredictedAt)
	require.Equal(t, 16, p.DaysUntilDue)
	require.Equal(t, StatusGood, p.Status)
}

func TestPredictStatusBoundaries(t *testing.T) {
	engine := NewPredictiveEngine()
	engine.WithNow(fixedNow(2024, 1, 31))

	// Single events so every prediction lands at first event + 30 days.
	predictions := engine.Predict([]Event{
		{System: "Press", Action: "Repair", WorkDate: date(2023, 12, 25)},  // due 2024-01-24, past
		{System: "Mixer", Action: "Replaced", WorkDate: date(2024, 1, 1)},  // due today
		{System: "Dryer", Action: "Replaced", WorkDate: date(2024, 1, 8)},  // due in 7 days
		{System: "Lathe", Action: "Replaced", WorkDate: date(2024, 1, 9)},  // due in 8 days
	})
	require.Len(t, predictions, 4)

	byName := map[string]Prediction{}
	for _, p := range predictions {
		byName[p.System] = p
	}
	require.Equal(t, StatusCritical, byName["Press"].Status)
	require.Equal(t, StatusRisk, byName["Mixer"].Status)
	require.Equal(t, 0, byName["Mixer"].DaysUntilDue)
	require.Equal(t, StatusRisk, byName["Dryer"].Status)
	require.Equal(t, StatusGood, byName["Lathe"].Status)

	// Most urgent first.
	require.Equal(t, "Press", predictions[0].System)
	require.Equal(t, "Lathe", predictions[3].System)
}

func TestPredictFiltersNonFailureActions(t *testing.T) {
	engine := NewPredictiveEngine()
	engine.WithNow(fixedNow(2024, 1, 15))

	predictions := engine.Predict([]Event{
		{System: "Conveyor", Action: "Inspected", WorkDate: date(2024, 1, 1)},
		{System: "Conveyor", Action: "Cleaned", WorkDate: date(2024, 1, 5)},
		{System: "", Action: "Replaced", WorkDate: date(2024, 1, 5)},
	})
	require.Empty(t, predictions)
}

func TestPredictResolvesTimestampFallback(t *testing.T) {
	engine := NewPredictiveEngine()
	engine.WithNow(fixedNow(2024, 1, 15))

	jan1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	predictions := engine.Predict([]Event{
		// Millisecond timestamp, no work date.
		{System: "Robot", Action: "Fixed", RawTS: jan1.UnixMilli()},
		// Second timestamp for the same system ten days later.
		{System: "Robot", Action: "Fixed", RawTS: jan1.AddDate(0, 0, 10).Unix()},
		// Neither representation: excluded.
		{System: "Robot", Action: "Fixed"},
	})
	require.Len(t, predictions, 1)

	p := predictions[0]
	require.Equal(t, 2, p.EventCount)
	require.NotNil(t, p.MTBFDays)
	require.Equal(t, 10, *p.MTBFDays)
	require.Equal(t, "2024-01-21", p.PredictedAt)
}

func TestPredictCeilsPartialDayGaps(t *testing.T) {
	engine := NewPredictiveEngine()
	engine.WithNow(fixedNow(2024, 2, 1))

	// Gaps of 3 and 4 days round to a mean of 4 (3.5 rounds up).
	predictions := engine.Predict([]Event{
		{System: "Pump", Action: "Replaced", WorkDate: date(2024, 1, 1)},
		{System: "Pump", Action: "Replaced", WorkDate: date(2024, 1, 4)},
		{System: "Pump", Action: "Replaced", WorkDate: date(2024, 1, 8)},
	})
	require.Len(t, predictions, 1)
	require.Equal(t, 4, *predictions[0].MTBFDays)
	require.Equal(t, "2024-01-12", predictions[0].PredictedAt)
}
