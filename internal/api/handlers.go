package api

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dyprodg/callpulse/internal/auth"
	"github.com/dyprodg/callpulse/internal/cache"
	"github.com/dyprodg/callpulse/internal/types"
)

var dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ReportRunner is the slice of the scheduler the API needs.
type ReportRunner interface {
	Trigger() bool
	NextRun(now time.Time) time.Time
	History() []types.ExecutionRecord
	Reconfigure(times []string) error
	Times() []string
}

// MessagingStatus checks the connection state of the messaging service.
type MessagingStatus interface {
	Status(ctx context.Context) (bool, error)
}

// ViewerCounter reports the number of connected WebSocket viewers.
type ViewerCounter interface {
	ClientCount() int
}

// Handler serves the operational API
type Handler struct {
	cache     *cache.DayCache
	scheduler ReportRunner
	messenger MessagingStatus
	viewers   ViewerCounter
	logger    zerolog.Logger
}

func NewHandler(dayCache *cache.DayCache, scheduler ReportRunner, messenger MessagingStatus, viewers ViewerCounter, logger zerolog.Logger) *Handler {
	return &Handler{
		cache:     dayCache,
		scheduler: scheduler,
		messenger: messenger,
		viewers:   viewers,
		logger:    logger,
	}
}

// RequireAdmin middleware — only admin role allowed
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || !auth.HasRole(claims, "admin") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStatus returns a snapshot of the system state: today's cached call
// count, cache TTL, scheduled report times, next run and messaging health.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Format("2006-01-02")

	count, err := h.cache.Count(today)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read day cache count")
	}

	var ttlSeconds int64
	if remaining, err := h.cache.RemainingTTL(today); err == nil && remaining > 0 {
		ttlSeconds = int64(remaining.Seconds())
	}

	connected := false
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if ok, err := h.messenger.Status(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("messaging status check failed")
	} else {
		connected = ok
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"date":                today,
		"calls_cached":        count,
		"cache_ttl_seconds":   ttlSeconds,
		"report_times":        h.scheduler.Times(),
		"next_run":            h.scheduler.NextRun(time.Now()).Format(time.RFC3339),
		"messaging_connected": connected,
		"viewers":             h.viewers.ClientCount(),
	})
}

// GetReportHistory returns the recent report executions, most recent first
func (h *Handler) GetReportHistory(w http.ResponseWriter, r *http.Request) {
	records := h.scheduler.History()
	if records == nil {
		records = []types.ExecutionRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":      len(records),
		"executions": records,
	})
}

// TriggerReport starts a report execution in the background. Repeated
// triggers within the same second are rejected.
func (h *Handler) TriggerReport(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.GetUserFromContext(r.Context())
	if claims != nil {
		h.logger.Info().Str("user", claims.Email).Msg("manual report trigger")
	}

	w.Header().Set("Content-Type", "application/json")
	if !h.scheduler.Trigger() {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "report already triggered, try again shortly",
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "report execution started",
	})
}

// UpdateSchedule replaces the daily report times
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Times []string `json:"times"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if len(req.Times) == 0 {
		http.Error(w, `{"error":"times must not be empty"}`, http.StatusBadRequest)
		return
	}

	if err := h.scheduler.Reconfigure(req.Times); err != nil {
		h.logger.Warn().Err(err).Strs("times", req.Times).Msg("schedule update rejected")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.logger.Info().Strs("times", req.Times).Msg("report schedule updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "schedule updated",
		"times":   h.scheduler.Times(),
	})
}

// ClearCache removes all cached calls for the given date
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !dateKeyRe.MatchString(date) {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	if err := h.cache.Clear(date); err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to clear day cache")
		http.Error(w, `{"error":"failed to clear cache"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("date", date).Msg("day cache cleared via admin")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "cache cleared",
		"date":    date,
	})
}

// GetCachedCalls lists the cached calls for a date
func (h *Handler) GetCachedCalls(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !dateKeyRe.MatchString(date) {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	calls, err := h.cache.ListCalls(date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to list cached calls")
		http.Error(w, `{"error":"failed to read cache"}`, http.StatusInternalServerError)
		return
	}
	if calls == nil {
		calls = []types.CallRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"date":  date,
		"count": len(calls),
		"calls": calls,
	})
}
