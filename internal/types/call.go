package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// CallCategory is the classification bucket a call falls into.
// Every call maps to exactly one category.
type CallCategory string

const (
	CategoryAnswered      CallCategory = "answered"
	CategoryAbandoned     CallCategory = "abandoned"
	CategoryRetainedInIVR CallCategory = "retained_ivr"
	CategoryOther         CallCategory = "other"
)

// CallRecord is the normalized internal representation of a single call.
// All upstream payload shapes are mapped into this type at the boundary;
// everything past the ingestion adapter assumes this shape only.
type CallRecord struct {
	CallID      string    `json:"callId" dynamodbav:"CallID"`   // sort key
	DateKey     string    `json:"dateKey" dynamodbav:"DateKey"` // YYYY-MM-DD (partition key)
	Timestamp   time.Time `json:"timestamp" dynamodbav:"Timestamp"`
	Queue       string    `json:"queue" dynamodbav:"Queue"`
	Status      string    `json:"status" dynamodbav:"Status"`
	Answered    bool      `json:"answered" dynamodbav:"Answered"`
	WaitSeconds float64   `json:"waitSeconds" dynamodbav:"WaitSeconds"`
	Duration    float64   `json:"duration" dynamodbav:"Duration"`
}

// NormalizeCall maps any of the historically observed upstream call shapes
// into a CallRecord. Field lookups are tried in order of how common the
// shape is; the first present key wins.
func NormalizeCall(raw map[string]json.RawMessage) (CallRecord, error) {
	rec := CallRecord{}

	rec.CallID = rawString(raw, "id", "call_id", "callId", "uniqueid")
	rec.Queue = rawString(raw, "queue", "queue_name", "queueName")
	rec.Status = rawString(raw, "status", "call_status", "state", "disposition")
	rec.Answered = rawBool(raw, "answered", "was_answered")
	rec.WaitSeconds = rawNumber(raw, "wait_time", "waitTime", "wait", "hold_secs")
	rec.Duration = rawNumber(raw, "duration", "talk_time", "billsec")

	ts := rawString(raw, "call_date", "date", "data", "timestamp", "start_time")
	if ts == "" {
		return rec, fmt.Errorf("call payload has no recognizable date field")
	}
	parsed, err := parseCallTime(ts)
	if err != nil {
		return rec, fmt.Errorf("failed to parse call date %q: %w", ts, err)
	}
	rec.Timestamp = parsed
	rec.DateKey = parsed.Format("2006-01-02")
	return rec, nil
}

// parseCallTime accepts the timestamp formats seen across provider versions.
func parseCallTime(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Some payloads carry a unix epoch as a string
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil && epoch > 0 {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported time format")
}

func rawString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		// Numeric IDs show up in older payloads
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return ""
}

func rawBool(raw map[string]json.RawMessage, keys ...string) bool {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			return b
		}
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			return n != 0
		}
	}
	return false
}

func rawNumber(raw map[string]json.RawMessage, keys ...string) float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(v, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if parsed, err := strconv.ParseFloat(s, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}
