package metricsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dyprodg/callpulse/internal/metrics"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// StatusError is returned when the provider answers with a non-2xx status.
// Callers use it to tell a missing-data day (404-class) apart from an
// auth/format rejection (417-class); both resolve to "no data".
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("metrics API returned status %d", e.Code)
}

// IsNotFound reports whether err is a 404-class provider response. Those are
// routine for days without data and are kept out of the error logs.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client fetches raw or aggregated call data from the upstream reporting
// provider. It never retries; any transport or HTTP-level failure is
// reported to the caller, who treats it as "no data".
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates a new metrics API client
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchAggregate fetches call data for the [start, end] window. The provider
// returns either a pre-aggregated object or a raw call list; the result is
// nil when the body is empty.
func (c *Client) FetchAggregate(ctx context.Context, start, end time.Time, filters map[string]string) (*types.MetricsResult, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	for key, value := range filters {
		q.Set(key, value)
	}

	reqURL := c.baseURL + "/v1/calls?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Get().RecordMetricsFetchError()
		c.logger.Error().Err(err).Str("url", c.baseURL).Msg("metrics API unreachable")
		return nil, fmt.Errorf("metrics API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			c.logger.Debug().
				Int("status", resp.StatusCode).
				Time("start", start).
				Msg("metrics API has no data for window")
		case resp.StatusCode == http.StatusExpectationFailed || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Msg("metrics API rejected request, check token and query format")
		default:
			metrics.Get().RecordMetricsFetchError()
			c.logger.Error().
				Int("status", resp.StatusCode).
				Msg("metrics API error")
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics response: %w", err)
	}

	return decodeResult(body)
}

// decodeResult interprets the provider body: a JSON array is a raw call
// list, a JSON object is a pre-aggregated stats record, anything empty is
// no data.
func decodeResult(body []byte) (*types.MetricsResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var rawCalls []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rawCalls); err != nil {
			return nil, fmt.Errorf("failed to decode call list: %w", err)
		}
		if len(rawCalls) == 0 {
			return nil, nil
		}
		calls := make([]types.CallRecord, 0, len(rawCalls))
		for _, raw := range rawCalls {
			rec, err := types.NormalizeCall(raw)
			if err != nil {
				// Skip malformed entries rather than failing the window
				continue
			}
			calls = append(calls, rec)
		}
		return &types.MetricsResult{Calls: calls}, nil
	}

	var agg types.AggregateStats
	if err := json.Unmarshal(trimmed, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate stats: %w", err)
	}
	return &types.MetricsResult{Aggregate: &agg}, nil
}
