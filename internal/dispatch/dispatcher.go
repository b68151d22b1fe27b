package dispatch

import (
	"context"
	"time"

	"github.com/dyprodg/callpulse/internal/messaging"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// followUpDelay is the fixed pause before the historical-comparison
// follow-up message.
const followUpDelay = 2 * time.Second

// Sender is the subset of the messaging client the dispatcher needs.
type Sender interface {
	Send(ctx context.Context, destination, text string) (*messaging.SendResult, error)
	ListDestinations(ctx context.Context) ([]messaging.Destination, error)
}

// Result is the outcome of dispatching one report to one destination.
type Result struct {
	Success     bool   `json:"success"`
	Destination string `json:"destination"`
	DispatchID  string `json:"dispatchId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Dispatcher shapes KPI snapshots into messages and fans them out to
// messaging destinations. The report and the follow-up comparison are
// independent sends: a failed follow-up never rolls back the report.
type Dispatcher struct {
	sender      Sender
	destination string
	delay       time.Duration
	logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher targeting the configured destination.
func NewDispatcher(sender Sender, destination string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		destination: destination,
		delay:       followUpDelay,
		logger:      logger,
	}
}

// SendReport sends the KPI report and, when a comparison with a non-nil
// classification set is present, a second formatted message after a fixed
// delay. Only transport-level success is reported.
func (d *Dispatcher) SendReport(ctx context.Context, kpis types.KPISnapshot, cmp *types.Comparison) Result {
	return d.sendTo(ctx, d.destination, kpis, cmp)
}

// SendReportToAll sends the report to every destination registered with the
// messaging provider.
func (d *Dispatcher) SendReportToAll(ctx context.Context, kpis types.KPISnapshot, cmp *types.Comparison) []Result {
	destinations, err := d.sender.ListDestinations(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to list destinations")
		return []Result{{Success: false, Error: err.Error()}}
	}

	results := make([]Result, 0, len(destinations))
	for _, dest := range destinations {
		results = append(results, d.sendTo(ctx, dest.ID, kpis, cmp))
	}
	return results
}

func (d *Dispatcher) sendTo(ctx context.Context, destination string, kpis types.KPISnapshot, cmp *types.Comparison) Result {
	result := Result{Destination: destination}

	sendResult, err := d.sender.Send(ctx, destination, FormatReport(kpis))
	if err != nil {
		result.Error = err.Error()
		d.logger.Error().Err(err).Str("destination", destination).Msg("report dispatch failed")
		return result
	}

	result.Success = sendResult.Success
	result.DispatchID = sendResult.ID
	if result.DispatchID == "" {
		result.DispatchID = uuid.New().String()
	}
	if !sendResult.Success {
		result.Error = sendResult.Error
		return result
	}

	d.logger.Info().
		Str("destination", destination).
		Str("dispatch_id", result.DispatchID).
		Msg("report dispatched")

	if cmp == nil || cmp.Levels == nil {
		return result
	}

	// Follow-up comparison after a fixed pause; its failure is logged but
	// does not flag the already-sent report
	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
		d.logger.Warn().Str("destination", destination).Msg("follow-up cancelled")
		return result
	}

	if _, err := d.sender.Send(ctx, destination, FormatComparison(cmp)); err != nil {
		d.logger.Error().Err(err).Str("destination", destination).Msg("comparison dispatch failed")
	}
	return result
}
