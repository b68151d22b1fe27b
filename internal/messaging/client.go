package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// SendResult is the transport-level outcome of one send. No delivery
// confirmation beyond this is available.
type SendResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Destination is a registered messaging destination known to the gateway.
type Destination struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client wraps the messaging gateway HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates a new messaging client
func NewClient(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type sendRequest struct {
	Destination string `json:"destination"`
	Text        string `json:"text"`
}

// Send delivers a text payload to one destination. Transport and gateway
// failures come back as an error; the gateway's own accepted/rejected
// verdict is in the result.
func (c *Client) Send(ctx context.Context, destination, text string) (*SendResult, error) {
	body, err := json.Marshal(sendRequest{Destination: destination, Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("destination", destination).Msg("messaging gateway unreachable")
		return nil, fmt.Errorf("messaging send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("destination", destination).
			Msg("messaging gateway rejected send")
		return nil, fmt.Errorf("messaging gateway returned status %d", resp.StatusCode)
	}

	var result SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode send result: %w", err)
	}
	return &result, nil
}

type statusResponse struct {
	Connected bool `json:"connected"`
}

// Status reports whether the gateway has a live session with the messaging
// provider.
func (c *Client) Status(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/status", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create status request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("messaging status check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("messaging gateway returned status %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, fmt.Errorf("failed to decode status: %w", err)
	}
	return status.Connected, nil
}

// ListDestinations returns every destination registered with the gateway.
func (c *Client) ListDestinations(ctx context.Context) ([]Destination, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/destinations", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create destinations request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messaging destinations fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("messaging gateway returned status %d", resp.StatusCode)
	}

	var destinations []Destination
	if err := json.NewDecoder(resp.Body).Decode(&destinations); err != nil {
		return nil, fmt.Errorf("failed to decode destinations: %w", err)
	}
	return destinations, nil
}
