package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestSend(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(SendResult{Success: true, ID: "msg-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "gw-token", zerolog.New(&bytes.Buffer{}))
	result, err := client.Send(context.Background(), "ops-room", "daily report")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !result.Success || result.ID != "msg-1" {
		t.Errorf("unexpected result: %+v", result)
	}
	if gotAuth != "Bearer gw-token" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotBody.Destination != "ops-room" || gotBody.Text != "daily report" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestSendGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.New(&bytes.Buffer{}))
	if _, err := client.Send(context.Background(), "ops-room", "daily report"); err == nil {
		t.Fatal("expected error on gateway failure")
	}
}

func TestSendUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", zerolog.New(&bytes.Buffer{}))
	if _, err := client.Send(context.Background(), "ops-room", "text"); err == nil {
		t.Fatal("expected error when gateway is unreachable")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
	}{
		{"connected", true},
		{"disconnected", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/status" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(statusResponse{Connected: tt.connected})
			}))
			defer server.Close()

			client := NewClient(server.URL, "", zerolog.New(&bytes.Buffer{}))
			connected, err := client.Status(context.Background())
			if err != nil {
				t.Fatalf("status failed: %v", err)
			}
			if connected != tt.connected {
				t.Errorf("expected connected=%v, got %v", tt.connected, connected)
			}
		})
	}
}

func TestListDestinations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/destinations" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Destination{
			{ID: "d1", Name: "Ops Room"},
			{ID: "d2", Name: "Management"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zerolog.New(&bytes.Buffer{}))
	destinations, err := client.ListDestinations(context.Background())
	if err != nil {
		t.Fatalf("list destinations failed: %v", err)
	}
	if len(destinations) != 2 || destinations[0].Name != "Ops Room" {
		t.Errorf("unexpected destinations: %+v", destinations)
	}
}
