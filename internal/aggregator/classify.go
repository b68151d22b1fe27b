package aggregator

import (
	"strconv"
	"strings"

	"github.com/dyprodg/callpulse/internal/types"
)

var (
	answeredMarkers  = []string{"answer", "complete", "connected"}
	abandonedMarkers = []string{"abandon", "no answer", "noanswer", "missed", "cancel"}
	ivrMarkers       = []string{"ivr", "auto attendant", "voicemenu"}
)

// Classify maps a call into exactly one category. The explicit answered
// flag wins outright. Status markers are tested abandoned-first: the
// no-answer dispositions contain "answer" as a substring and would shadow
// into answered otherwise.
func Classify(call types.CallRecord) types.CallCategory {
	if call.Answered {
		return types.CategoryAnswered
	}

	status := strings.ToLower(call.Status)
	if containsAny(status, abandonedMarkers) {
		return types.CategoryAbandoned
	}
	if containsAny(status, answeredMarkers) {
		return types.CategoryAnswered
	}
	if containsAny(status, ivrMarkers) || strings.TrimSpace(call.Queue) == "" {
		return types.CategoryRetainedInIVR
	}
	return types.CategoryOther
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// ParseClockDuration converts a colon-delimited "HH:MM:SS" duration string
// into seconds. Malformed input yields 0.
func ParseClockDuration(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return hours*3600 + minutes*60 + seconds
}
