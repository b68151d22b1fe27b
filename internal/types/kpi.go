package types

import "time"

// PeakHour identifies the hour with the highest call volume.
type PeakHour struct {
	HourLabel string `json:"hourLabel"` // e.g. "14:00"
	Count     int    `json:"count"`
}

// KPISnapshot holds the normalized daily call-center metrics. Snapshots are
// created fresh on every aggregation and never mutated afterwards.
//
// When derived from a classified call list,
// Answered+Abandoned+RetainedInIVR+Other == TotalCalls. When derived from a
// provider-side aggregate, TotalCalls is the sum of the three named counters
// and Other is always zero.
type KPISnapshot struct {
	TotalCalls         int       `json:"totalCalls"`
	Answered           int       `json:"answered"`
	Abandoned          int       `json:"abandoned"`
	RetainedInIVR      int       `json:"retainedInIVR"`
	Other              int       `json:"other"`
	PeakHour           *PeakHour `json:"peakHour"`
	AverageWaitSeconds float64   `json:"averageWaitSeconds"`
	GeneratedAt        time.Time `json:"generatedAt"`
}

// MetricsResult is what the upstream reporting provider returns for a date
// range: either a single pre-aggregated object or a raw call list. Both nil
// means the provider had no data for the window.
type MetricsResult struct {
	Aggregate *AggregateStats
	Calls     []CallRecord
}

// AggregateStats is the provider-side pre-aggregated shape. AvgWait is a
// colon-delimited duration string ("HH:MM:SS").
type AggregateStats struct {
	Answered      int    `json:"answered"`
	Abandoned     int    `json:"abandoned"`
	RetainedInIVR int    `json:"retained_ivr"`
	AvgWait       string `json:"avg_wait"`
}
