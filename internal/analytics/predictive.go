package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/plantops/plantops/internal/shared"
)

// fallbackIntervalDays is projected forward when a system has only one
// qualifying event and no mean interval can be computed.
const fallbackIntervalDays = 30

// failureActions are the maintenance actions treated as failure or
// intervention events for forecasting.
var failureActions = map[string]bool{
	"Replaced": true,
	"Fixed":    true,
	"Repair":   true,
}

// PredictiveEngine forecasts the next failure per system from maintenance
// history. The mean interval is a plain arithmetic mean of calendar-day gaps,
// a heuristic rather than a reliability estimator: no confidence interval,
// no censoring of the open interval since the last event.
type PredictiveEngine struct {
	now func() time.Time
}

// NewPredictiveEngine builds the engine.
func NewPredictiveEngine() *PredictiveEngine {
	return &PredictiveEngine{now: time.Now}
}

// WithNow overrides the engine clock for testing.
func (e *PredictiveEngine) WithNow(fn func() time.Time) {
	if fn != nil {
		e.now = fn
	}
}

// Predict computes one forecast per system with at least one qualifying
// event, sorted most urgent first.
func (e *PredictiveEngine) Predict(events []Event) []Prediction {
	bySystem := map[string][]time.Time{}
	for _, ev := range events {
		if ev.System == "" || !failureActions[ev.Action] {
			continue
		}
		date, ok := shared.ResolveEventDate(ev.WorkDate, ev.RawTS)
		if !ok {
			continue
		}
		bySystem[ev.System] = append(bySystem[ev.System], date)
	}

	today := truncateToDay(e.now().UTC())
	predictions := make([]Prediction, 0, len(bySystem))
	for system, dates := range bySystem {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		var mtbf *int
		interval := fallbackIntervalDays
		if len(dates) >= 2 {
			mean := meanGapDays(dates)
			rounded := int(math.Round(mean))
			mtbf = &rounded
			interval = rounded
		}

		last := dates[len(dates)-1]
		predicted := last.AddDate(0, 0, interval)
		daysUntil := int(math.Ceil(predicted.Sub(today).Hours() / 24))

		predictions = append(predictions, Prediction{
			System:       system,
			MTBFDays:     mtbf,
			EventCount:   len(dates),
			LastFailure:  last.Format("2006-01-02"),
			PredictedAt:  predicted.Format("2006-01-02"),
			DaysUntilDue: daysUntil,
			Status:       classify(daysUntil),
		})
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].DaysUntilDue != predictions[j].DaysUntilDue {
			return predictions[i].DaysUntilDue < predictions[j].DaysUntilDue
		}
		return predictions[i].System < predictions[j].System
	})
	return predictions
}

// meanGapDays averages the day gaps between consecutive dates. Each gap is
// ceiling-rounded on its own, matching calendar-day semantics, before the
// mean is taken.
func meanGapDays(dates []time.Time) float64 {
	total := 0.0
	for i := 1; i < len(dates); i++ {
		gap := math.Ceil(dates[i].Sub(dates[i-1]).Hours() / 24)
		total += gap
	}
	return total / float64(len(dates)-1)
}

func classify(daysUntil int) FailureStatus {
	switch {
	case daysUntil < 0:
		return StatusCritical
	case daysUntil <= 7:
		return StatusRisk
	default:
		return StatusGood
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
