package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// Fetcher is the subset of the metrics API client the aggregator needs.
type Fetcher interface {
	FetchAggregate(ctx context.Context, start, end time.Time, filters map[string]string) (*types.MetricsResult, error)
}

// Broadcaster publishes lifecycle events to connected viewers.
type Broadcaster interface {
	Publish(event types.Event)
}

// Aggregator turns a metrics-API response into a normalized KPI snapshot.
// It always pulls fresh data from the provider; the day cache is a separate
// push-fed path and is deliberately not consulted here.
type Aggregator struct {
	fetcher     Fetcher
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(fetcher Fetcher, broadcaster Broadcaster, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		fetcher:     fetcher,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// ComputeDailyKPIs computes the KPI snapshot for refDate. The window runs
// from start of day to the current instant when refDate is today, otherwise
// the full day. A provider failure or empty response yields an all-zero
// snapshot, never an error.
func (a *Aggregator) ComputeDailyKPIs(ctx context.Context, refDate time.Time) types.KPISnapshot {
	start := time.Date(refDate.Year(), refDate.Month(), refDate.Day(), 0, 0, 0, 0, refDate.Location())
	end := start.Add(24*time.Hour - time.Second)
	now := time.Now()
	if start.Year() == now.Year() && start.YearDay() == now.YearDay() {
		end = now
	}

	a.publishLog(fmt.Sprintf("computing KPIs for %s", start.Format("2006-01-02")))

	result, err := a.fetcher.FetchAggregate(ctx, start, end, nil)
	if err != nil {
		a.logger.Warn().Err(err).
			Str("date", start.Format("2006-01-02")).
			Msg("metrics fetch failed, returning zero snapshot")
		a.publishLog("no call data available, reporting zeroes")
		return zeroSnapshot()
	}

	snapshot := SnapshotFromResult(result)

	a.logger.Info().
		Int("total", snapshot.TotalCalls).
		Int("answered", snapshot.Answered).
		Int("abandoned", snapshot.Abandoned).
		Int("retained_ivr", snapshot.RetainedInIVR).
		Str("date", start.Format("2006-01-02")).
		Msg("daily KPIs computed")
	a.publishLog(fmt.Sprintf("KPIs ready: %d calls total", snapshot.TotalCalls))

	return snapshot
}

// SnapshotFromResult builds a snapshot from a provider result. A nil result
// yields the zero snapshot.
func SnapshotFromResult(result *types.MetricsResult) types.KPISnapshot {
	if result == nil {
		return zeroSnapshot()
	}
	if result.Aggregate != nil {
		return snapshotFromAggregate(result.Aggregate)
	}
	if len(result.Calls) > 0 {
		return snapshotFromCalls(result.Calls)
	}
	return zeroSnapshot()
}

func zeroSnapshot() types.KPISnapshot {
	return types.KPISnapshot{GeneratedAt: time.Now()}
}

// snapshotFromAggregate reads the provider's named counters. Total is the
// sum of the three counters; peak-hour detection is not meaningful here.
func snapshotFromAggregate(agg *types.AggregateStats) types.KPISnapshot {
	return types.KPISnapshot{
		TotalCalls:         agg.Answered + agg.Abandoned + agg.RetainedInIVR,
		Answered:           agg.Answered,
		Abandoned:          agg.Abandoned,
		RetainedInIVR:      agg.RetainedInIVR,
		AverageWaitSeconds: float64(ParseClockDuration(agg.AvgWait)),
		GeneratedAt:        time.Now(),
	}
}

// snapshotFromCalls classifies every call exactly once and accumulates
// per-hour counts for peak-hour detection.
func snapshotFromCalls(calls []types.CallRecord) types.KPISnapshot {
	snapshot := types.KPISnapshot{
		TotalCalls:  len(calls),
		GeneratedAt: time.Now(),
	}

	hourCounts := make(map[string]int)
	var waitSum float64

	for _, call := range calls {
		switch Classify(call) {
		case types.CategoryAnswered:
			snapshot.Answered++
		case types.CategoryAbandoned:
			snapshot.Abandoned++
		case types.CategoryRetainedInIVR:
			snapshot.RetainedInIVR++
		default:
			snapshot.Other++
		}
		waitSum += call.WaitSeconds
		hourCounts[call.Timestamp.Format("15:00")]++
	}

	if len(calls) > 0 {
		snapshot.AverageWaitSeconds = waitSum / float64(len(calls))
	}
	snapshot.PeakHour = peakHour(hourCounts)

	return snapshot
}

// peakHour returns the hour with the maximum count. Ties break to the
// lowest hour label so the result is deterministic.
func peakHour(hourCounts map[string]int) *types.PeakHour {
	var peak *types.PeakHour
	for label, count := range hourCounts {
		if peak == nil || count > peak.Count || (count == peak.Count && label < peak.HourLabel) {
			peak = &types.PeakHour{HourLabel: label, Count: count}
		}
	}
	return peak
}

func (a *Aggregator) publishLog(message string) {
	if a.broadcaster == nil {
		return
	}
	a.broadcaster.Publish(types.NewEvent(types.EventLogLine, message, nil))
}
