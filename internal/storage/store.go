package storage

import (
	"context"
	"fmt"

	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// Store persists per-day call lists and their TTL metadata, keyed by an ISO
// date string (YYYY-MM-DD). Implementations do not interpret the TTL; the
// day cache owns expiry semantics.
type Store interface {
	AppendCall(date string, call types.CallRecord) error
	ReadCalls(date string) ([]types.CallRecord, error)
	ReadMeta(date string) (*types.CacheMeta, error)
	WriteMeta(date string, meta types.CacheMeta) error
	// Delete removes the call list and the metadata together.
	Delete(date string) error
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, backend, dir string, logger zerolog.Logger) (Store, error) {
	switch backend {
	case "file":
		return NewFileStore(dir, logger)
	case "dynamodb":
		return NewDynamoStore(ctx, LoadDynamoConfig(), logger)
	case "none":
		logger.Info().Msg("day cache persistence disabled (CACHE_BACKEND=none)")
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// NoopStore is a no-op implementation when persistence is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) AppendCall(_ string, _ types.CallRecord) error  { return nil }
func (s *NoopStore) ReadCalls(_ string) ([]types.CallRecord, error) { return nil, nil }
func (s *NoopStore) ReadMeta(_ string) (*types.CacheMeta, error)    { return nil, nil }
func (s *NoopStore) WriteMeta(_ string, _ types.CacheMeta) error    { return nil }
func (s *NoopStore) Delete(_ string) error                          { return nil }
