package analytics

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/plantops/plantops/internal/shared"
)

// ErrBadGroupBy indicates an unsupported frequency grouping.
var ErrBadGroupBy = errors.New("analytics: group_by must be area, system, component or action")

// ReaderPort abstracts the read queries for the service.
type ReaderPort interface {
	FetchEvents(ctx context.Context) ([]Event, error)
	PartUsage(ctx context.Context, since time.Time, limit int) ([]PartUsage, error)
	StockHealth(ctx context.Context, windowDays int) ([]StockRow, error)
	Overview(ctx context.Context) (Overview, error)
}

// Service computes the reports, fronted by the versioned cache.
type Service struct {
	repo   ReaderPort
	cache  *Cache
	engine *PredictiveEngine
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo ReaderPort, cache *Cache, engine *PredictiveEngine) *Service {
	return &Service{repo: repo, cache: cache, engine: engine, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
		s.engine.WithNow(fn)
	}
}

// Predictions returns the per-system failure forecast.
func (s *Service) Predictions(ctx context.Context) ([]Prediction, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "predictive")
	if err != nil {
		return nil, err
	}
	var out []Prediction
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		events, err := s.repo.FetchEvents(ctx)
		if err != nil {
			return nil, err
		}
		return s.engine.Predict(events), nil
	})
	return out, err
}

// TopPartUsage reports the heaviest-consumed parts over the trailing window.
func (s *Service) TopPartUsage(ctx context.Context, days, limit int) ([]PartUsage, error) {
	if days <= 0 {
		days = 90
	}
	if limit <= 0 {
		limit = 10
	}
	key, err := s.cache.BuildKey(ctx, "analytics", "usage", strconv.Itoa(days), strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	var out []PartUsage
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		since := s.now().UTC().AddDate(0, 0, -days)
		return s.repo.PartUsage(ctx, since, limit)
	})
	return out, err
}

// Frequency buckets maintenance events by the requested dimension.
func (s *Service) Frequency(ctx context.Context, groupBy string, days int) ([]FrequencyRow, error) {
	keyOf, err := frequencyKey(groupBy)
	if err != nil {
		return nil, err
	}
	key, err := s.cache.BuildKey(ctx, "analytics", "frequency", groupBy, strconv.Itoa(days))
	if err != nil {
		return nil, err
	}
	var out []FrequencyRow
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		events, err := s.repo.FetchEvents(ctx)
		if err != nil {
			return nil, err
		}
		return s.bucketEvents(events, keyOf, days), nil
	})
	return out, err
}

func frequencyKey(groupBy string) (func(Event) string, error) {
	switch groupBy {
	case "area":
		return func(ev Event) string { return ev.Area }, nil
	case "system":
		return func(ev Event) string { return ev.System }, nil
	case "component":
		return func(ev Event) string { return ev.Component }, nil
	case "action":
		return func(ev Event) string { return ev.Action }, nil
	}
	return nil, ErrBadGroupBy
}

func (s *Service) bucketEvents(events []Event, keyOf func(Event) string, days int) []FrequencyRow {
	var cutoff time.Time
	if days > 0 {
		cutoff = truncateToDay(s.now().UTC()).AddDate(0, 0, -days)
	}
	counts := map[string]*FrequencyRow{}
	for _, ev := range events {
		key := keyOf(ev)
		if key == "" {
			continue
		}
		if !cutoff.IsZero() {
			date, ok := shared.ResolveEventDate(ev.WorkDate, ev.RawTS)
			if !ok || date.Before(cutoff) {
				continue
			}
		}
		row, ok := counts[key]
		if !ok {
			row = &FrequencyRow{Key: key}
			counts[key] = row
		}
		row.Count++
		row.TotalDuration += ev.Duration
	}
	out := make([]FrequencyRow, 0, len(counts))
	for _, row := range counts {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// EfficiencyReport summarises mean time to repair overall and per system.
func (s *Service) EfficiencyReport(ctx context.Context) (Efficiency, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "efficiency")
	if err != nil {
		return Efficiency{}, err
	}
	var out Efficiency
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		events, err := s.repo.FetchEvents(ctx)
		if err != nil {
			return nil, err
		}
		return buildEfficiency(events), nil
	})
	return out, err
}

func buildEfficiency(events []Event) Efficiency {
	eff := Efficiency{PerSystem: []SystemEffort{}}
	perSystem := map[string]*SystemEffort{}
	for _, ev := range events {
		if ev.Duration <= 0 {
			continue
		}
		eff.TotalJobs++
		eff.TotalMinutes += ev.Duration
		if ev.System == "" {
			continue
		}
		sys, ok := perSystem[ev.System]
		if !ok {
			sys = &SystemEffort{System: ev.System}
			perSystem[ev.System] = sys
		}
		sys.Jobs++
		sys.TotalMinutes += ev.Duration
	}
	if eff.TotalJobs > 0 {
		eff.AvgMinutes = round1(float64(eff.TotalMinutes) / float64(eff.TotalJobs))
	}
	for _, sys := range perSystem {
		sys.AvgMinutes = round1(float64(sys.TotalMinutes) / float64(sys.Jobs))
		eff.PerSystem = append(eff.PerSystem, *sys)
	}
	sort.Slice(eff.PerSystem, func(i, j int) bool {
		return eff.PerSystem[i].TotalMinutes > eff.PerSystem[j].TotalMinutes
	})
	return eff
}

// StockDashboard classifies every named item by how close it is to running
// out, using the trailing 30-day consumption rate.
func (s *Service) StockDashboard(ctx context.Context) ([]StockHealthRow, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "stock_health")
	if err != nil {
		return nil, err
	}
	var out []StockHealthRow
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		rows, err := s.repo.StockHealth(ctx, 30)
		if err != nil {
			return nil, err
		}
		health := make([]StockHealthRow, 0, len(rows))
		for _, row := range rows {
			health = append(health, healthOf(row))
		}
		return health, nil
	})
	return out, err
}

func healthOf(row StockRow) StockHealthRow {
	out := StockHealthRow{
		ProductID:    row.ProductID,
		ProductName:  row.ProductName,
		Qty:          row.Qty,
		ReorderPoint: row.ReorderPoint,
		DailyUsage:   round1(row.DailyUsage),
	}
	if row.ReorderPoint > 0 {
		out.StockPercent = round1(float64(row.Qty) / float64(row.ReorderPoint) * 100)
	}
	if row.DailyUsage > 0 && row.Qty > 0 {
		days := int(math.Floor(float64(row.Qty) / row.DailyUsage))
		out.DaysToStockout = &days
	}
	switch {
	case row.Qty <= 0:
		out.Urgency = "out"
	case row.Qty <= row.ReorderPoint:
		out.Urgency = "reorder"
	case out.DaysToStockout != nil && *out.DaysToStockout <= 14:
		out.Urgency = "watch"
	default:
		out.Urgency = "ok"
	}
	return out
}

// OverviewReport returns the storeroom headline figures.
func (s *Service) OverviewReport(ctx context.Context) (Overview, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "overview")
	if err != nil {
		return Overview{}, err
	}
	var out Overview
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.Overview(ctx)
	})
	return out, err
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
