package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dyprodg/callpulse/internal/aggregator"
	"github.com/dyprodg/callpulse/internal/dispatch"
	"github.com/dyprodg/callpulse/internal/history"
	"github.com/dyprodg/callpulse/internal/metrics"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Broadcaster publishes lifecycle events to connected viewers.
type Broadcaster interface {
	Publish(event types.Event)
}

// Scheduler owns the recurring report jobs, the hourly refresh job and the
// manual trigger path. Executions deliberately run without mutual
// exclusion: an in-flight scheduled run never blocks a manual trigger and
// vice versa. The only shared state, the execution log, appends atomically.
type Scheduler struct {
	aggregator  *aggregator.Aggregator
	analyzer    *history.Analyzer
	dispatcher  *dispatch.Dispatcher
	broadcaster Broadcaster
	logger      zerolog.Logger

	// Execution audit log, bounded, most recent first
	log *ExecutionLog

	// Job table
	mu    sync.Mutex
	cron  *cron.Cron
	times []string // zero-padded "HH:MM", sorted ascending

	// Same-second duplicate-trigger suppression
	triggerMu   sync.Mutex
	lastTrigger int64 // unix second of the last accepted trigger
}

// NewScheduler creates a scheduler with the given report times ("HH:MM",
// zero-padded, sorted).
func NewScheduler(agg *aggregator.Aggregator, analyzer *history.Analyzer, dispatcher *dispatch.Dispatcher, broadcaster Broadcaster, times []string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		aggregator:  agg,
		analyzer:    analyzer,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		logger:      logger,
		log:         NewExecutionLog(),
		times:       times,
	}
}

// Start creates and starts all jobs: one report job per configured time and
// the hourly KPI refresh.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startJobsLocked()
}

func (s *Scheduler) startJobsLocked() error {
	c := cron.New()

	for _, tod := range s.times {
		spec, err := cronSpec(tod)
		if err != nil {
			return err
		}
		if _, err := c.AddFunc(spec, func() {
			s.ExecuteReport(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to schedule report job at %s: %w", tod, err)
		}
	}

	if _, err := c.AddFunc("0 * * * *", s.hourlyRefresh); err != nil {
		return fmt.Errorf("failed to schedule hourly refresh: %w", err)
	}

	c.Start()
	s.cron = c

	s.logger.Info().
		Strs("report_times", s.times).
		Msg("scheduler started")
	return nil
}

// Stop cancels all scheduled jobs. Executions already in flight are not
// cancelled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.logger.Info().Msg("scheduler stopped")
}

// Reconfigure tears down every job and recreates them with the new times.
// In-flight executions are unaffected.
func (s *Scheduler) Reconfigure(times []string) error {
	for _, tod := range times {
		if _, err := cronSpec(tod); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.times = times
	return s.startJobsLocked()
}

// Times returns the configured report times.
func (s *Scheduler) Times() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.times))
	copy(out, s.times)
	return out
}

// History returns the execution records, most recent first.
func (s *Scheduler) History() []types.ExecutionRecord {
	return s.log.List()
}

// Trigger starts a report execution on demand, fire-and-forget. A second
// trigger within the same second is suppressed; the caller learns only
// whether the run was accepted.
func (s *Scheduler) Trigger() bool {
	s.triggerMu.Lock()
	now := time.Now().Unix()
	if now == s.lastTrigger {
		s.triggerMu.Unlock()
		s.logger.Warn().Msg("duplicate trigger within the same second suppressed")
		return false
	}
	s.lastTrigger = now
	s.triggerMu.Unlock()

	go s.ExecuteReport(context.Background())
	return true
}

// ExecuteReport runs the full report pipeline: compute today's KPIs, build
// the historical comparison, dispatch both, record the outcome and
// broadcast it. Any step failure is converted into a failed execution
// record; the scheduler itself never crashes.
func (s *Scheduler) ExecuteReport(ctx context.Context) types.ExecutionRecord {
	start := time.Now()
	record := types.ExecutionRecord{Timestamp: start}

	s.publish(types.NewEvent(types.EventLogLine, "report execution started", nil))

	kpis := s.aggregator.ComputeDailyKPIs(ctx, start)
	record.KPIs = &kpis
	s.publish(types.NewEvent(types.EventKPIUpdate, "", kpis))

	cmp := s.analyzer.Compare(ctx, kpis)
	if cmp.Error != "" {
		s.logger.Warn().Str("reason", cmp.Error).Msg("report continues without baseline")
	}

	result := s.dispatcher.SendReport(ctx, kpis, &cmp)
	record.Duration = time.Since(start).Seconds()
	record.Success = result.Success
	record.DispatchID = result.DispatchID
	record.Error = result.Error

	s.log.Append(record)
	metrics.Get().RecordReportExecution(time.Since(start), record.Success)

	if record.Success {
		s.logger.Info().
			Float64("duration_s", record.Duration).
			Str("dispatch_id", record.DispatchID).
			Msg("report execution complete")
		s.publish(types.NewEvent(types.EventExecutionComplete, "", record))
	} else {
		s.logger.Error().
			Str("error", record.Error).
			Float64("duration_s", record.Duration).
			Msg("report execution failed")
		s.publish(types.NewEvent(types.EventExecutionError, record.Error, record))
	}

	return record
}

// hourlyRefresh recomputes today's KPIs and broadcasts them without
// dispatching a notification.
func (s *Scheduler) hourlyRefresh() {
	kpis := s.aggregator.ComputeDailyKPIs(context.Background(), time.Now())
	s.publish(types.NewEvent(types.EventKPIUpdate, "hourly refresh", kpis))
	s.logger.Debug().Int("total", kpis.TotalCalls).Msg("hourly KPI refresh broadcast")
}

// NextRun returns the next report execution after now: the first configured
// time-of-day still ahead today, or the earliest configured time tomorrow.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	times := s.Times()
	if len(times) == 0 {
		return time.Time{}
	}

	current := now.Format("15:04")
	for _, tod := range times {
		// Zero-padded HH:MM compares lexicographically in time order
		if tod > current {
			return timeOfDayOn(now, tod)
		}
	}
	return timeOfDayOn(now.AddDate(0, 0, 1), times[0])
}

func timeOfDayOn(day time.Time, tod string) time.Time {
	parsed, _ := time.Parse("15:04", tod)
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
}

// cronSpec converts "HH:MM" into a daily cron spec.
func cronSpec(tod string) (string, error) {
	parsed, err := time.Parse("15:04", tod)
	if err != nil {
		return "", fmt.Errorf("invalid report time %q: %w", tod, err)
	}
	return fmt.Sprintf("%d %d * * *", parsed.Minute(), parsed.Hour()), nil
}

func (s *Scheduler) publish(event types.Event) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(event)
}
