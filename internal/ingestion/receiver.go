package ingestion

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyprodg/callpulse/internal/cache"
	"github.com/dyprodg/callpulse/internal/metrics"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// Broadcaster publishes lifecycle events to connected viewers.
type Broadcaster interface {
	Publish(event types.Event)
}

// Receiver handles inbound call-event webhooks from the telephony provider.
// Every known upstream payload shape is normalized into a CallRecord at
// this boundary before it touches the day cache.
type Receiver struct {
	cache          *cache.DayCache
	broadcaster    Broadcaster
	webhookToken   string
	logger         zerolog.Logger
	eventsReceived int64
	lastReceived   time.Time
	mu             sync.RWMutex
}

// NewReceiver creates a new webhook receiver
func NewReceiver(dayCache *cache.DayCache, broadcaster Broadcaster, webhookToken string, logger zerolog.Logger) *Receiver {
	return &Receiver{
		cache:        dayCache,
		broadcaster:  broadcaster,
		webhookToken: webhookToken,
		logger:       logger,
	}
}

// HandleCallEvent receives one call event, normalizes it and appends it to
// the day cache.
func (r *Receiver) HandleCallEvent(w http.ResponseWriter, req *http.Request) {
	m := metrics.Get()

	if r.webhookToken != "" && req.Header.Get("X-Webhook-Token") != r.webhookToken {
		m.RecordWebhookRejected()
		http.Error(w, `{"error":"invalid webhook token"}`, http.StatusUnauthorized)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
		r.logger.Error().Err(err).Msg("failed to decode webhook payload")
		m.RecordWebhookError()
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	call, err := types.NormalizeCall(raw)
	if err != nil {
		r.logger.Warn().Err(err).Msg("unrecognized call payload shape")
		m.RecordWebhookError()
		http.Error(w, `{"error":"unrecognized payload shape"}`, http.StatusUnprocessableEntity)
		return
	}

	if err := r.cache.AddCall(call); err != nil {
		r.logger.Error().Err(err).Str("date", call.DateKey).Msg("failed to cache call")
		m.RecordWebhookError()
		http.Error(w, `{"error":"cache write failed"}`, http.StatusInternalServerError)
		return
	}

	m.RecordWebhookReceived()
	if r.broadcaster != nil {
		r.broadcaster.Publish(types.NewEvent(types.EventCallReceived, "", call))
	}

	// Update stats
	count := atomic.AddInt64(&r.eventsReceived, 1)
	r.mu.Lock()
	r.lastReceived = time.Now()
	r.mu.Unlock()

	// Log periodically
	if count%100 == 0 {
		r.logger.Info().
			Int64("total_received", count).
			Msg("call events received")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "date": call.DateKey})
}

// GetStats returns receiver statistics
func (r *Receiver) GetStats(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	lastReceived := r.lastReceived
	r.mu.RUnlock()

	today := time.Now().Format("2006-01-02")
	count, err := r.cache.Count(today)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count cached calls")
	}

	stats := map[string]interface{}{
		"events_received": atomic.LoadInt64(&r.eventsReceived),
		"last_received":   lastReceived,
		"cached_today":    count,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
