package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dyprodg/callpulse/internal/metrics"
	"github.com/dyprodg/callpulse/internal/storage"
	"github.com/dyprodg/callpulse/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DayCache is the durable, TTL-bounded store of per-day call events. It is
// the system-of-record for the rolling day: written by the webhook ingestion
// path, read by status queries. One logical record per calendar date.
//
// The TTL is sliding: every write refreshes the expiry to now+TTL. Expiry is
// evaluated lazily on read; an expired record is deleted on next access and
// treated as absent. All access to a date, reads included, goes through a
// per-date lock: concurrent webhook deliveries cannot lose appends, and a
// lazy expiry delete cannot interleave with an in-flight append.
type DayCache struct {
	store  storage.Store
	ttl    time.Duration
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is swappable for expiry tests
	now func() time.Time
}

// NewDayCache creates a new day cache on top of a storage backend.
func NewDayCache(store storage.Store, ttl time.Duration, logger zerolog.Logger) *DayCache {
	return &DayCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

func (c *DayCache) dateLock(date string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[date]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[date] = lock
	}
	return lock
}

// AddCall appends a call to its day's record and refreshes the TTL.
func (c *DayCache) AddCall(call types.CallRecord) error {
	if call.DateKey == "" {
		call.DateKey = c.now().Format("2006-01-02")
	}
	if call.CallID == "" {
		call.CallID = uuid.New().String()
	}

	lock := c.dateLock(call.DateKey)
	lock.Lock()
	defer lock.Unlock()

	if _, err := c.expireIfNeeded(call.DateKey); err != nil {
		return err
	}

	if err := c.store.AppendCall(call.DateKey, call); err != nil {
		return fmt.Errorf("failed to append call: %w", err)
	}

	now := c.now()
	meta, err := c.store.ReadMeta(call.DateKey)
	if err != nil {
		return err
	}
	created := now
	if meta != nil {
		created = meta.CreatedAt
	}
	if err := c.store.WriteMeta(call.DateKey, types.CacheMeta{
		CreatedAt:  created,
		ExpiresAt:  now.Add(c.ttl),
		TTLSeconds: int64(c.ttl.Seconds()),
	}); err != nil {
		return fmt.Errorf("failed to refresh cache meta: %w", err)
	}

	metrics.Get().RecordCacheWrite()
	c.logger.Debug().
		Str("date", call.DateKey).
		Str("call_id", call.CallID).
		Msg("call cached")
	return nil
}

// ListCalls returns the ingested calls for a date, or nil when the record
// is absent or expired.
func (c *DayCache) ListCalls(date string) ([]types.CallRecord, error) {
	lock := c.dateLock(date)
	lock.Lock()
	defer lock.Unlock()

	expired, err := c.expireIfNeeded(date)
	if err != nil || expired {
		return nil, err
	}
	return c.store.ReadCalls(date)
}

// Count returns the number of ingested calls for a date.
func (c *DayCache) Count(date string) (int, error) {
	calls, err := c.ListCalls(date)
	if err != nil {
		return 0, err
	}
	return len(calls), nil
}

// Exists reports whether a live record exists for the date. An expired
// record is deleted here and reported as absent.
func (c *DayCache) Exists(date string) (bool, error) {
	lock := c.dateLock(date)
	lock.Lock()
	defer lock.Unlock()

	expired, err := c.expireIfNeeded(date)
	if err != nil || expired {
		return false, err
	}
	meta, err := c.store.ReadMeta(date)
	if err != nil {
		return false, err
	}
	return meta != nil, nil
}

// RemainingTTL returns how long the day's record will live without further
// writes; zero when absent or expired.
func (c *DayCache) RemainingTTL(date string) (time.Duration, error) {
	lock := c.dateLock(date)
	lock.Lock()
	defer lock.Unlock()

	expired, err := c.expireIfNeeded(date)
	if err != nil || expired {
		return 0, err
	}
	meta, err := c.store.ReadMeta(date)
	if err != nil || meta == nil {
		return 0, err
	}
	remaining := meta.ExpiresAt.Sub(c.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Clear removes a day's record regardless of TTL.
func (c *DayCache) Clear(date string) error {
	lock := c.dateLock(date)
	lock.Lock()
	defer lock.Unlock()
	return c.store.Delete(date)
}

// expireIfNeeded lazily deletes an expired record. Returns true when the
// record was expired (and is now gone). Callers must hold the date lock:
// an unguarded expiry delete could race a write that has appended its call
// but not yet refreshed the meta.
func (c *DayCache) expireIfNeeded(date string) (bool, error) {
	meta, err := c.store.ReadMeta(date)
	if err != nil {
		return false, err
	}
	if meta == nil || c.now().Before(meta.ExpiresAt) {
		return false, nil
	}

	if err := c.store.Delete(date); err != nil {
		return true, fmt.Errorf("failed to delete expired record: %w", err)
	}
	metrics.Get().RecordCacheExpiry()
	c.logger.Info().
		Str("date", date).
		Time("expired_at", meta.ExpiresAt).
		Msg("expired day record removed")
	return true, nil
}
