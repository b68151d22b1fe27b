package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dyprodg/callpulse/internal/history"
	"github.com/dyprodg/callpulse/internal/messaging"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	mu           sync.Mutex
	sent         []string // destination + "|" + text
	sendErr      error
	destinations []messaging.Destination
	listErr      error
}

func (f *fakeSender) Send(_ context.Context, destination, text string) (*messaging.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, destination+"|"+text)
	return &messaging.SendResult{Success: true, ID: "msg-1"}, nil
}

func (f *fakeSender) ListDestinations(_ context.Context) ([]messaging.Destination, error) {
	return f.destinations, f.listErr
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestDispatcher(sender Sender) *Dispatcher {
	d := NewDispatcher(sender, "ops-channel", zerolog.New(&bytes.Buffer{}))
	d.delay = 10 * time.Millisecond
	return d
}

func snapshot() types.KPISnapshot {
	return types.KPISnapshot{
		TotalCalls:    100,
		Answered:      80,
		Abandoned:     10,
		RetainedInIVR: 10,
		GeneratedAt:   time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC),
	}
}

func comparison() *types.Comparison {
	return &types.Comparison{
		Today:   snapshot(),
		History: &types.History{DaysUsed: 15, Means: types.HistoryMeans{Total: 90}},
		Levels: &types.LevelSet{
			Total:         history.ClassifyLevel(100, 90),
			Answered:      history.ClassifyLevel(80, 70),
			Abandoned:     history.ClassifyLevel(10, 15),
			RetainedInIVR: history.ClassifyLevel(10, 0),
		},
		Summary: "volume is high",
	}
}

func TestSendReportWithComparisonSendsTwoMessages(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender)

	result := d.SendReport(context.Background(), snapshot(), comparison())
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.DispatchID != "msg-1" {
		t.Errorf("dispatch id = %s, want msg-1", result.DispatchID)
	}
	if sender.sentCount() != 2 {
		t.Fatalf("expected exactly 2 messages, got %d", sender.sentCount())
	}
	if !strings.HasPrefix(sender.sent[0], "ops-channel|") {
		t.Errorf("wrong destination: %s", sender.sent[0])
	}
	if !strings.Contains(sender.sent[1], "Compared to the last 15 days") {
		t.Errorf("second message is not the comparison: %s", sender.sent[1])
	}
}

func TestSendReportWithoutComparisonSendsOne(t *testing.T) {
	for _, tc := range []struct {
		name string
		cmp  *types.Comparison
	}{
		{"nil comparison", nil},
		{"comparison without levels", &types.Comparison{Today: snapshot(), Error: "historical baseline unavailable"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			d := newTestDispatcher(sender)

			result := d.SendReport(context.Background(), snapshot(), tc.cmp)
			if !result.Success {
				t.Fatalf("expected success, got %+v", result)
			}
			if sender.sentCount() != 1 {
				t.Errorf("expected exactly 1 message, got %d", sender.sentCount())
			}
		})
	}
}

func TestSendReportTransportFailure(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("gateway down")}
	d := newTestDispatcher(sender)

	result := d.SendReport(context.Background(), snapshot(), nil)
	if result.Success {
		t.Error("expected failure")
	}
	if result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestSendReportToAll(t *testing.T) {
	sender := &fakeSender{destinations: []messaging.Destination{
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "Beta"},
	}}
	d := newTestDispatcher(sender)

	results := d.SendReportToAll(context.Background(), snapshot(), nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("expected success for %s", r.Destination)
		}
	}
	if sender.sentCount() != 2 {
		t.Errorf("expected 2 sends, got %d", sender.sentCount())
	}
}

func TestFormatReport(t *testing.T) {
	text := FormatReport(types.KPISnapshot{
		TotalCalls:         50,
		Answered:           40,
		Abandoned:          5,
		RetainedInIVR:      5,
		AverageWaitSeconds: 95,
		PeakHour:           &types.PeakHour{HourLabel: "14:00", Count: 12},
		GeneratedAt:        time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{"Total calls: 50", "Answered: 40", "Peak hour: 14:00 (12 calls)", "1m35s"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Other:") {
		t.Error("zero Other count should be omitted")
	}
}

func TestFormatComparisonUndefinedBaseline(t *testing.T) {
	text := FormatComparison(comparison())
	if !strings.Contains(text, "Retained in IVR: 10 (no baseline)") {
		t.Errorf("undefined classification not rendered:\n%s", text)
	}
	if !strings.Contains(text, "volume is high") {
		t.Errorf("summary missing:\n%s", text)
	}
}
