package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyprodg/callpulse/internal/types"
	"github.com/rs/zerolog"
)

// FileStore keeps one JSON call-list file and one JSON metadata file per
// calendar day, the ISO date embedded in the filename. Both are removed
// together on Delete.
type FileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	logger.Info().Str("dir", dir).Msg("file store initialized")
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) callsPath(date string) string {
	return filepath.Join(s.dir, "calls-"+date+".json")
}

func (s *FileStore) metaPath(date string) string {
	return filepath.Join(s.dir, "meta-"+date+".json")
}

func (s *FileStore) AppendCall(date string, call types.CallRecord) error {
	calls, err := s.ReadCalls(date)
	if err != nil {
		return err
	}
	calls = append(calls, call)

	data, err := json.Marshal(calls)
	if err != nil {
		return fmt.Errorf("failed to marshal call list: %w", err)
	}
	if err := os.WriteFile(s.callsPath(date), data, 0o644); err != nil {
		return fmt.Errorf("failed to write call list: %w", err)
	}
	return nil
}

func (s *FileStore) ReadCalls(date string) ([]types.CallRecord, error) {
	data, err := os.ReadFile(s.callsPath(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read call list: %w", err)
	}

	var calls []types.CallRecord
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, fmt.Errorf("failed to decode call list for %s: %w", date, err)
	}
	return calls, nil
}

func (s *FileStore) ReadMeta(date string) (*types.CacheMeta, error) {
	data, err := os.ReadFile(s.metaPath(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache meta: %w", err)
	}

	var meta types.CacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode cache meta for %s: %w", date, err)
	}
	return &meta, nil
}

func (s *FileStore) WriteMeta(date string, meta types.CacheMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal cache meta: %w", err)
	}
	if err := os.WriteFile(s.metaPath(date), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache meta: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(date string) error {
	var firstErr error
	for _, path := range []string{s.callsPath(date), s.metaPath(date)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	if firstErr == nil {
		s.logger.Debug().Str("date", date).Msg("day record removed")
	}
	return firstErr
}
