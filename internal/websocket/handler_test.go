package websocket

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dyprodg/callpulse/internal/config"
)

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:5173", "https://dashboard.example.com"}

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin header", "", true},
		{"allowed origin", "http://localhost:5173", true},
		{"allowed origin case insensitive", "HTTP://LOCALHOST:5173", true},
		{"second allowed origin", "https://dashboard.example.com", true},
		{"disallowed origin", "http://evil.com", false},
		{"prefix is not a match", "http://localhost:51730", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := originAllowed(allowed, tt.origin); got != tt.want {
				t.Errorf("originAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestOriginAllowedWildcard(t *testing.T) {
	if !originAllowed([]string{"*"}, "http://anywhere.example.com") {
		t.Error("wildcard must admit any origin")
	}
}

func TestServeHTTPRejectsDisallowedOrigin(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:5173"}}
	handler := NewHandler(hub, cfg, logger)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Origin", "http://evil.com")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for disallowed origin, got %d", rec.Code)
	}
}
