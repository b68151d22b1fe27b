package metricsapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFetchAggregateCallList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "" || r.URL.Query().Get("end") == "" {
			t.Error("expected start and end query params")
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"1","call_date":"2026-08-29 10:15:00","queue":"support","status":"ANSWERED","answered":true,"wait_time":12},
			{"id":"2","date":"2026-08-29T11:30:00","queue":"","status":"NO ANSWER","wait_time":"45"}
		]`))
	}))
	defer srv.Close()

	logger := zerolog.New(&bytes.Buffer{})
	client := NewClient(srv.URL, "secret", 5*time.Second, logger)

	result, err := client.FetchAggregate(context.Background(), time.Now().Add(-time.Hour), time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if len(result.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(result.Calls))
	}
	if result.Calls[0].CallID != "1" || !result.Calls[0].Answered {
		t.Errorf("first call not normalized correctly: %+v", result.Calls[0])
	}
	if result.Calls[1].WaitSeconds != 45 {
		t.Errorf("expected wait 45 from string field, got %f", result.Calls[1].WaitSeconds)
	}
	if result.Calls[1].DateKey != "2026-08-29" {
		t.Errorf("expected date key 2026-08-29, got %s", result.Calls[1].DateKey)
	}
}

func TestFetchAggregateObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answered":120,"abandoned":14,"retained_ivr":30,"avg_wait":"00:01:30"}`))
	}))
	defer srv.Close()

	logger := zerolog.New(&bytes.Buffer{})
	client := NewClient(srv.URL, "", 5*time.Second, logger)

	result, err := client.FetchAggregate(context.Background(), time.Now().Add(-time.Hour), time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || result.Aggregate == nil {
		t.Fatal("expected aggregate result")
	}
	if result.Aggregate.Answered != 120 || result.Aggregate.AvgWait != "00:01:30" {
		t.Errorf("aggregate not decoded correctly: %+v", result.Aggregate)
	}
}

func TestFetchAggregateEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	logger := zerolog.New(&bytes.Buffer{})
	client := NewClient(srv.URL, "", 5*time.Second, logger)

	result, err := client.FetchAggregate(context.Background(), time.Now().Add(-time.Hour), time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result for null body, got %+v", result)
	}
}

func TestFetchAggregateStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantNotFound bool
	}{
		{"not found", http.StatusNotFound, true},
		{"expectation failed", http.StatusExpectationFailed, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			logger := zerolog.New(&bytes.Buffer{})
			client := NewClient(srv.URL, "", 5*time.Second, logger)

			result, err := client.FetchAggregate(context.Background(), time.Now().Add(-time.Hour), time.Now(), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if result != nil {
				t.Error("expected nil result on status error")
			}
			if IsNotFound(err) != tt.wantNotFound {
				t.Errorf("IsNotFound = %v, want %v", IsNotFound(err), tt.wantNotFound)
			}
		})
	}
}
