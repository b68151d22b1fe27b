package history

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dyprodg/callpulse/internal/aggregator"
	"github.com/dyprodg/callpulse/internal/metricsapi"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// scriptedFetcher returns one scripted result per call, in order.
type scriptedFetcher struct {
	results []*types.MetricsResult
	errs    []error
	calls   int
}

func (f *scriptedFetcher) FetchAggregate(_ context.Context, _, _ time.Time, _ map[string]string) (*types.MetricsResult, error) {
	i := f.calls
	f.calls++
	var result *types.MetricsResult
	var err error
	if i < len(f.results) {
		result = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return result, err
}

func aggResult(answered, abandoned, retained int) *types.MetricsResult {
	return &types.MetricsResult{Aggregate: &types.AggregateStats{
		Answered:      answered,
		Abandoned:     abandoned,
		RetainedInIVR: retained,
	}}
}

func newTestAnalyzer(fetcher Fetcher) *Analyzer {
	logger := zerolog.New(&bytes.Buffer{})
	agg := aggregator.NewAggregator(fetcher, nil, logger)
	return NewAnalyzer(fetcher, agg, 15, logger)
}

func TestBuildHistoryAllFailuresReturnsNil(t *testing.T) {
	fetcher := &scriptedFetcher{errs: []error{
		errors.New("down"),
		&metricsapi.StatusError{Code: 404},
		errors.New("down"),
	}}

	analyzer := newTestAnalyzer(fetcher)
	if history := analyzer.BuildHistory(context.Background(), 3); history != nil {
		t.Errorf("expected nil history, got %+v", history)
	}
}

func TestBuildHistoryMeansOverSuccessfulSubset(t *testing.T) {
	// 4 days requested, days 2 and 4 fail: means divide by 2, not 4
	fetcher := &scriptedFetcher{
		results: []*types.MetricsResult{
			aggResult(6, 2, 2), // total 10
			nil,
			aggResult(12, 4, 4), // total 20
			nil,
		},
		errs: []error{nil, errors.New("down"), nil, &metricsapi.StatusError{Code: 404}},
	}

	analyzer := newTestAnalyzer(fetcher)
	history := analyzer.BuildHistory(context.Background(), 4)
	if history == nil {
		t.Fatal("expected history")
	}
	if history.DaysUsed != 2 {
		t.Errorf("days used = %d, want 2", history.DaysUsed)
	}
	if history.Means.Total != 15 {
		t.Errorf("mean total = %d, want 15", history.Means.Total)
	}
	if history.Means.Answered != 9 {
		t.Errorf("mean answered = %d, want 9", history.Means.Answered)
	}
}

func TestClassifyLevelBuckets(t *testing.T) {
	tests := []struct {
		name    string
		current int
		mean    int
		want    types.Level
		ratio   int
	}{
		{"65 percent is below normal", 65, 100, types.LevelBelowNormal, 65},
		{"99 percent is normal", 99, 100, types.LevelNormal, 99},
		{"100 percent is high", 100, 100, types.LevelHigh, 100},
		{"130 percent is very high", 130, 100, types.LevelVeryHigh, 130},
		{"70 percent is normal", 70, 100, types.LevelNormal, 70},
		{"129 percent is high", 129, 100, types.LevelHigh, 129},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ClassifyLevel(tt.current, tt.mean)
			if c.Level != tt.want {
				t.Errorf("level = %s, want %s", c.Level, tt.want)
			}
			if c.Ratio != tt.ratio {
				t.Errorf("ratio = %d, want %d", c.Ratio, tt.ratio)
			}
			if !c.Defined {
				t.Error("expected defined classification")
			}
			if c.Indicator == "" {
				t.Error("expected an indicator symbol")
			}
		})
	}
}

func TestClassifyLevelZeroMean(t *testing.T) {
	c := ClassifyLevel(500, 0)
	if c.Level != types.LevelUndefined {
		t.Errorf("level = %s, want undefined", c.Level)
	}
	if c.Defined {
		t.Error("expected undefined classification for zero mean")
	}
}

func TestCompareTodaySoftFailure(t *testing.T) {
	// Every fetch fails: today's KPIs are still returned with an error marker
	fetcher := &scriptedFetcher{errs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
		errors.New("down"), errors.New("down"), errors.New("down"),
		errors.New("down"), errors.New("down"), errors.New("down"),
		errors.New("down"), errors.New("down"), errors.New("down"),
		errors.New("down"), errors.New("down"), errors.New("down"),
		errors.New("down"),
	}}

	logger := zerolog.New(&bytes.Buffer{})
	agg := aggregator.NewAggregator(fetcher, nil, logger)
	analyzer := NewAnalyzer(fetcher, agg, 2, logger)

	cmp := analyzer.CompareToday(context.Background())
	if cmp.Error == "" {
		t.Error("expected soft-failure error marker")
	}
	if cmp.History != nil || cmp.Levels != nil {
		t.Error("expected nil history and levels")
	}
	if cmp.Today.TotalCalls != 0 {
		t.Errorf("expected zero today snapshot, got %+v", cmp.Today)
	}
}

func TestCompareTodayWithBaseline(t *testing.T) {
	// First fetch is today's window, then two history days
	fetcher := &scriptedFetcher{
		results: []*types.MetricsResult{
			aggResult(90, 5, 5),  // today, total 100
			aggResult(60, 20, 20), // yesterday, total 100
			aggResult(60, 20, 20), // day before, total 100
		},
	}

	logger := zerolog.New(&bytes.Buffer{})
	agg := aggregator.NewAggregator(fetcher, nil, logger)
	analyzer := NewAnalyzer(fetcher, agg, 2, logger)

	cmp := analyzer.CompareToday(context.Background())
	if cmp.Error != "" {
		t.Fatalf("unexpected error marker: %s", cmp.Error)
	}
	if cmp.Levels == nil {
		t.Fatal("expected levels")
	}
	if cmp.Levels.Total.Level != types.LevelHigh {
		t.Errorf("total level = %s, want high (100%%)", cmp.Levels.Total.Level)
	}
	if cmp.Levels.Answered.Ratio != 150 {
		t.Errorf("answered ratio = %d, want 150", cmp.Levels.Answered.Ratio)
	}
	if cmp.Summary == "" {
		t.Error("expected a summary line")
	}
}
