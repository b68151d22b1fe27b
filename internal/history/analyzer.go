package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dyprodg/callpulse/internal/aggregator"
	"github.com/dyprodg/callpulse/internal/metricsapi"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// fetchPause spaces out per-day requests so the provider is not hammered.
const fetchPause = 300 * time.Millisecond

// Fetcher is the subset of the metrics API client the analyzer needs.
type Fetcher interface {
	FetchAggregate(ctx context.Context, start, end time.Time, filters map[string]string) (*types.MetricsResult, error)
}

// Analyzer builds a rolling baseline from prior days and classifies today's
// KPIs against it.
type Analyzer struct {
	fetcher    Fetcher
	aggregator *aggregator.Aggregator
	limiter    *rate.Limiter
	days       int
	logger     zerolog.Logger
}

// NewAnalyzer creates a new historical analyzer. days is the rolling window
// size (yesterday back through days ago).
func NewAnalyzer(fetcher Fetcher, agg *aggregator.Aggregator, days int, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		fetcher:    fetcher,
		aggregator: agg,
		limiter:    rate.NewLimiter(rate.Every(fetchPause), 1),
		days:       days,
		logger:     logger,
	}
}

// BuildHistory fetches full-day KPIs for the last `days` prior days
// (today excluded). Days that fail or have no data are omitted; the means
// are computed over the days that produced data. Returns nil when zero days
// yielded data.
func (a *Analyzer) BuildHistory(ctx context.Context, days int) *types.History {
	records := make([]types.HistoricalRecord, 0, days)
	now := time.Now()

	for i := 1; i <= days; i++ {
		if err := a.limiter.Wait(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("history build cancelled")
			break
		}

		day := now.AddDate(0, 0, -i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.Add(24*time.Hour - time.Second)

		result, err := a.fetcher.FetchAggregate(ctx, start, end, nil)
		if err != nil {
			// Missing days are routine; only unexpected failures are logged
			if !metricsapi.IsNotFound(err) {
				a.logger.Warn().Err(err).
					Str("date", start.Format("2006-01-02")).
					Msg("skipping day, fetch failed")
			}
			continue
		}
		if result == nil {
			continue
		}

		snapshot := aggregator.SnapshotFromResult(result)
		records = append(records, types.HistoricalRecord{
			Date:          start.Format("2006-01-02"),
			Answered:      snapshot.Answered,
			Abandoned:     snapshot.Abandoned,
			RetainedInIVR: snapshot.RetainedInIVR,
			Other:         snapshot.Other,
			Total:         snapshot.TotalCalls,
		})
	}

	if len(records) == 0 {
		a.logger.Warn().Int("days_requested", days).Msg("no historical data available")
		return nil
	}

	history := &types.History{
		Days:     records,
		Means:    computeMeans(records),
		DaysUsed: len(records),
	}

	a.logger.Info().
		Int("days_requested", days).
		Int("days_used", len(records)).
		Int("mean_total", history.Means.Total).
		Msg("historical baseline built")

	return history
}

// computeMeans averages each metric over the available records only; the
// divisor is the count of successful days, never the requested window.
func computeMeans(records []types.HistoricalRecord) types.HistoryMeans {
	var answered, abandoned, retained, other, total int
	for _, rec := range records {
		answered += rec.Answered
		abandoned += rec.Abandoned
		retained += rec.RetainedInIVR
		other += rec.Other
		total += rec.Total
	}

	n := float64(len(records))
	return types.HistoryMeans{
		Answered:      roundDiv(answered, n),
		Abandoned:     roundDiv(abandoned, n),
		RetainedInIVR: roundDiv(retained, n),
		Other:         roundDiv(other, n),
		Total:         roundDiv(total, n),
	}
}

func roundDiv(sum int, n float64) int {
	return int(math.Round(float64(sum) / n))
}

// CompareToday computes today's KPIs and classifies each metric against the
// rolling baseline. An unavailable history is a soft failure: today's
// snapshot is still returned, with an explicit error marker.
func (a *Analyzer) CompareToday(ctx context.Context) types.Comparison {
	return a.Compare(ctx, a.aggregator.ComputeDailyKPIs(ctx, time.Now()))
}

// Compare classifies an already-computed snapshot of today against the
// rolling baseline.
func (a *Analyzer) Compare(ctx context.Context, today types.KPISnapshot) types.Comparison {
	history := a.BuildHistory(ctx, a.days)
	if history == nil {
		return types.Comparison{
			Today: today,
			Error: "historical baseline unavailable",
		}
	}

	levels := &types.LevelSet{
		Answered:      ClassifyLevel(today.Answered, history.Means.Answered),
		Abandoned:     ClassifyLevel(today.Abandoned, history.Means.Abandoned),
		RetainedInIVR: ClassifyLevel(today.RetainedInIVR, history.Means.RetainedInIVR),
		Total:         ClassifyLevel(today.TotalCalls, history.Means.Total),
	}

	return types.Comparison{
		Today:   today,
		History: history,
		Levels:  levels,
		Summary: buildSummary(today, history, levels.Total),
	}
}

func buildSummary(today types.KPISnapshot, history *types.History, total types.Classification) string {
	if !total.Defined {
		return fmt.Sprintf("Today: %d calls. No usable baseline over the last %d days.",
			today.TotalCalls, history.DaysUsed)
	}
	return fmt.Sprintf("Today: %d calls, %d%% of the %d-day average (%d), volume is %s %s",
		today.TotalCalls, total.Ratio, history.DaysUsed, history.Means.Total,
		LevelLabel(total.Level), total.Indicator)
}
