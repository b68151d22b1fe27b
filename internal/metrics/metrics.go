package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Webhook metrics
	WebhookReceivedTotal int64
	WebhookRejectedTotal int64
	WebhookErrorsTotal   int64

	// Report pipeline metrics
	ReportsExecutedTotal  int64
	ReportsFailedTotal    int64
	lastExecutionDuration time.Duration

	// Upstream metrics
	MetricsFetchErrorsTotal int64

	// WebSocket metrics
	ViewerConnectionsTotal    int64
	ViewerDisconnectionsTotal int64
	activeViewers             int64

	// Cache metrics
	CacheWritesTotal int64
	CacheExpiryTotal int64

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{startTime: time.Now()}
	})
	return instance
}

// RecordWebhookReceived increments the webhook received counter
func (m *Metrics) RecordWebhookReceived() {
	m.mu.Lock()
	m.WebhookReceivedTotal++
	m.mu.Unlock()
}

// RecordWebhookRejected increments the webhook rejected counter
func (m *Metrics) RecordWebhookRejected() {
	m.mu.Lock()
	m.WebhookRejectedTotal++
	m.mu.Unlock()
}

// RecordWebhookError increments the webhook error counter
func (m *Metrics) RecordWebhookError() {
	m.mu.Lock()
	m.WebhookErrorsTotal++
	m.mu.Unlock()
}

// RecordReportExecution records one report run
func (m *Metrics) RecordReportExecution(duration time.Duration, success bool) {
	m.mu.Lock()
	m.ReportsExecutedTotal++
	if !success {
		m.ReportsFailedTotal++
	}
	m.lastExecutionDuration = duration
	m.mu.Unlock()
}

// RecordMetricsFetchError increments the upstream fetch error counter
func (m *Metrics) RecordMetricsFetchError() {
	m.mu.Lock()
	m.MetricsFetchErrorsTotal++
	m.mu.Unlock()
}

// RecordViewerConnect increments viewer connection counters
func (m *Metrics) RecordViewerConnect() {
	m.mu.Lock()
	m.ViewerConnectionsTotal++
	m.activeViewers++
	m.mu.Unlock()
}

// RecordViewerDisconnect increments viewer disconnection counter
func (m *Metrics) RecordViewerDisconnect() {
	m.mu.Lock()
	m.ViewerDisconnectionsTotal++
	m.activeViewers--
	m.mu.Unlock()
}

// RecordCacheWrite increments the cache write counter
func (m *Metrics) RecordCacheWrite() {
	m.mu.Lock()
	m.CacheWritesTotal++
	m.mu.Unlock()
}

// RecordCacheExpiry increments the cache expiry counter
func (m *Metrics) RecordCacheExpiry() {
	m.mu.Lock()
	m.CacheExpiryTotal++
	m.mu.Unlock()
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}) {
			switch v := value.(type) {
			case int64:
				w.Write([]byte(name + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("callpulse_uptime_seconds", time.Since(m.startTime).Seconds())

		// Webhook metrics
		write("callpulse_webhook_received_total", m.WebhookReceivedTotal)
		write("callpulse_webhook_rejected_total", m.WebhookRejectedTotal)
		write("callpulse_webhook_errors_total", m.WebhookErrorsTotal)

		// Report metrics
		write("callpulse_reports_executed_total", m.ReportsExecutedTotal)
		write("callpulse_reports_failed_total", m.ReportsFailedTotal)
		write("callpulse_report_duration_seconds", m.lastExecutionDuration.Seconds())

		// Upstream metrics
		write("callpulse_metrics_fetch_errors_total", m.MetricsFetchErrorsTotal)

		// Viewer metrics
		write("callpulse_viewer_connections_total", m.ViewerConnectionsTotal)
		write("callpulse_viewer_disconnections_total", m.ViewerDisconnectionsTotal)
		write("callpulse_viewer_active", m.activeViewers)

		// Cache metrics
		write("callpulse_cache_writes_total", m.CacheWritesTotal)
		write("callpulse_cache_expiry_total", m.CacheExpiryTotal)
	}
}
