package scheduler

import (
	"sync"

	"github.com/dyprodg/callpulse/internal/types"
)

// maxExecutionRecords caps the in-memory execution history.
const maxExecutionRecords = 50

// ExecutionLog is the bounded, most-recent-first audit log of report runs.
// Appends are atomic so overlapping executions cannot interleave writes.
type ExecutionLog struct {
	mu      sync.Mutex
	entries []types.ExecutionRecord
}

// NewExecutionLog creates an empty execution log
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{
		entries: make([]types.ExecutionRecord, 0, maxExecutionRecords),
	}
}

// Append inserts a record at the head, dropping the oldest entry beyond
// the cap.
func (l *ExecutionLog) Append(record types.ExecutionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]types.ExecutionRecord{record}, l.entries...)
	if len(l.entries) > maxExecutionRecords {
		l.entries = l.entries[:maxExecutionRecords]
	}
}

// List returns a copy of the records, most recent first.
func (l *ExecutionLog) List() []types.ExecutionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.ExecutionRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored records.
func (l *ExecutionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
