package analytics

import "time"

// FailureStatus buckets a prediction by urgency.
type FailureStatus string

const (
	// StatusCritical means the forecast failure date has passed.
	StatusCritical FailureStatus = "Critical"
	// StatusRisk means failure is forecast within the next week.
	StatusRisk FailureStatus = "Risk"
	// StatusGood means failure is forecast more than a week out.
	StatusGood FailureStatus = "Good"
)

// Prediction is the per-system failure forecast. MTBFDays is nil when only a
// single qualifying event exists; the projection then uses the 30-day
// fallback and the UI shows "N/A".
type Prediction struct {
	System       string        `json:"system"`
	MTBFDays     *int          `json:"mtbf_days"`
	EventCount   int           `json:"event_count"`
	LastFailure  string        `json:"last_failure"`
	PredictedAt  string        `json:"predicted_date"`
	DaysUntilDue int           `json:"days_until_due"`
	Status       FailureStatus `json:"status"`
}

// Event is one maintenance occurrence as the analytics reads see it. RawTS
// is the record timestamp in epoch seconds or milliseconds; WorkDate, when
// set, takes precedence during date resolution.
type Event struct {
	System    string
	Area      string
	Component string
	Action    string
	WorkDate *time.Time
	RawTS    int64
	Duration int
}

// PartUsage aggregates maintenance consumption per part.
type PartUsage struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	TotalUsed   int     `json:"total_used"`
	TotalCost   float64 `json:"total_cost"`
}

// FrequencyRow is one bucket of the maintenance frequency report.
type FrequencyRow struct {
	Key           string `json:"key"`
	Count         int    `json:"count"`
	TotalDuration int    `json:"total_duration"`
}

// Efficiency summarises repair effort (MTTR) overall and per system.
type Efficiency struct {
	TotalJobs    int            `json:"total_jobs"`
	TotalMinutes int            `json:"total_minutes"`
	AvgMinutes   float64        `json:"avg_minutes"`
	PerSystem    []SystemEffort `json:"per_system"`
}

// SystemEffort is the per-system slice of the efficiency report.
type SystemEffort struct {
	System       string  `json:"system"`
	Jobs         int     `json:"jobs"`
	TotalMinutes int     `json:"total_minutes"`
	AvgMinutes   float64 `json:"avg_minutes"`
}

// StockHealthRow is one low-stock dashboard line.
type StockHealthRow struct {
	ProductID      int64   `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Qty            int     `json:"qty"`
	ReorderPoint   int     `json:"reorder_point"`
	StockPercent   float64 `json:"stock_percent"`
	DailyUsage     float64 `json:"daily_usage"`
	DaysToStockout *int    `json:"days_to_stockout"`
	Urgency        string  `json:"urgency"`
}

// Overview is the storeroom headline figures.
type Overview struct {
	TotalItems    int     `json:"total_items"`
	LowStockItems int     `json:"low_stock_items"`
	StockValue    float64 `json:"stock_value"`
	TotalLogs     int     `json:"total_logs"`
}
