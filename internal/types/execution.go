package types

import "time"

// ExecutionRecord is an audit entry for one run of the report pipeline.
// Records live in process memory only, most-recent-first, capped at 50.
type ExecutionRecord struct {
	Timestamp  time.Time    `json:"timestamp"`
	Success    bool         `json:"success"`
	KPIs       *KPISnapshot `json:"kpis,omitempty"` // whatever was computed before a failure, or nil
	Duration   float64      `json:"durationSeconds"`
	DispatchID string       `json:"dispatchId,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// CacheMeta is the TTL metadata stored alongside a day's call list.
// The TTL is sliding: every write refreshes ExpiresAt to now+TTL.
type CacheMeta struct {
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
	ExpiresAt  time.Time `json:"expiresAt" dynamodbav:"ExpiresAt"`
	TTLSeconds int64     `json:"ttlSeconds" dynamodbav:"TTLSeconds"`
}
