// Package status maintains the client-side open/closed state per place,
// refreshed through the backend's three-step warmup protocol: trigger
// detail collection, trigger a status refresh, then sync the status logs.
//
// The defining invariant is the asymmetric merge: an empty, malformed or
// failed log fetch never erases previously cached records. Stale data
// beats absent data.
package status

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/api"
	"github.com/opennow/opennow-go/internal/types"
)

// Defaults mirror the backend's operational expectations: the trigger
// endpoints are expensive scans, so warmups are cooldown-gated.
const (
	DefaultTTL           = 30 * time.Second
	DefaultCooldown      = 240 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 1200 * time.Millisecond
)

// Backend is the remote surface the cache warms against.
type Backend interface {
	CollectDetails(ctx context.Context) error
	RefreshStatus(ctx context.Context) error
	FetchStatusLogs(ctx context.Context, force bool) ([]map[string]any, error)
}

// HTTPBackend delegates to the gateway.
type HTTPBackend struct {
	HTTP    *http.Client
	BaseURL string
}

func (b *HTTPBackend) CollectDetails(ctx context.Context) error {
	return api.CollectDetails(ctx, b.HTTP, b.BaseURL)
}

func (b *HTTPBackend) RefreshStatus(ctx context.Context) error {
	return api.RefreshStatus(ctx, b.HTTP, b.BaseURL)
}

func (b *HTTPBackend) FetchStatusLogs(ctx context.Context, force bool) ([]map[string]any, error) {
	return api.FetchStatusLogs(ctx, b.HTTP, b.BaseURL, force)
}

// Config tunes the cache. Zero values fall back to the defaults above.
type Config struct {
	TTL           time.Duration
	Cooldown      time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
}

// Status-log field spellings, in priority order.
var (
	logPlaceKeys   = []string{"placeId", "place_id", "kakao_id", "id"}
	logOpenKeys    = []string{"isOpenNow", "is_open_now", "is_open", "open_now"}
	logOpenAtKeys  = []string{"todayOpenTime", "open_time", "opens_at"}
	logCloseAtKeys = []string{"todayCloseTime", "close_time", "closes_at"}
	logNoteKeys    = []string{"statusNote", "status_note", "note", "status"}
	logMinToClose  = []string{"minutesToClose", "minutes_to_close"}
)

// Cache owns the status map. All mutation goes through its operations;
// readers receive copies.
type Cache struct {
	backend Backend
	log     zerolog.Logger
	cfg     Config

	mu             sync.Mutex
	records        map[string]types.OpenStatusRecord
	lastGoodAt     time.Time
	warmupInFlight bool
	lastWarmupAt   time.Time

	now func() time.Time
}

// NewCache builds a cache over backend.
func NewCache(backend Backend, cfg Config, log zerolog.Logger) *Cache {
	cfg.applyDefaults()
	return &Cache{
		backend: backend,
		log:     log,
		cfg:     cfg,
		records: make(map[string]types.OpenStatusRecord),
		now:     time.Now,
	}
}

// Cached returns the cached record for placeID without any I/O, or nil.
func (c *Cache) Cached(placeID string) *types.OpenStatusRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[placeID]
	if !ok {
		return nil
	}
	out := rec
	return &out
}

// Snapshot returns a copy of the whole status map.
func (c *Cache) Snapshot() map[string]types.OpenStatusRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]types.OpenStatusRecord, len(c.records))
	for k, v := range c.records {
		out[k] = v
	}
	return out
}

// SyncLogs fetches the status-log list and merges it into the map.
// Returns true iff the map was updated. A failed fetch, a non-list
// response, an empty list, or a list whose entries carry no usable
// identifier leaves the map untouched.
func (c *Cache) SyncLogs(ctx context.Context, force bool) bool {
	records, err := c.backend.FetchStatusLogs(ctx, force)
	if err != nil {
		c.log.Warn().Err(err).Msg("status log fetch failed; keeping cached map")
		return false
	}

	updates := make(map[string]types.OpenStatusRecord)
	for _, rec := range records {
		placeID := types.PickString(rec, logPlaceKeys...)
		if placeID == "" {
			continue
		}
		entry := types.OpenStatusRecord{
			PlaceID:        placeID,
			TodayOpenTime:  types.PickString(rec, logOpenAtKeys...),
			TodayCloseTime: types.PickString(rec, logCloseAtKeys...),
			StatusNote:     types.PickString(rec, logNoteKeys...),
		}
		if open, ok := types.PickBool(rec, logOpenKeys...); ok {
			entry.IsOpenNow = &open
		}
		if mins, ok := types.PickInt(rec, logMinToClose...); ok && mins >= 0 {
			entry.MinutesToClose = &mins
		}
		updates[placeID] = entry
	}
	if len(updates) == 0 {
		c.log.Debug().Int("raw", len(records)).Msg("status logs carried no usable records; keeping cached map")
		return false
	}

	c.mu.Lock()
	for id, entry := range updates {
		c.records[id] = entry
	}
	c.lastGoodAt = c.now()
	c.mu.Unlock()
	c.log.Debug().Int("merged", len(updates)).Msg("status logs merged")
	return true
}

// WarmupIfNeeded runs the three-step warmup sequence unless one is
// already in flight or the cooldown has not elapsed (force skips the
// cooldown, never the in-flight guard). Returns true when the sequence
// ran. Individual step failures are swallowed; only the log sync decides
// whether the map changes.
func (c *Cache) WarmupIfNeeded(ctx context.Context, force bool) bool {
	c.mu.Lock()
	if c.warmupInFlight {
		c.mu.Unlock()
		return false
	}
	if !force && c.now().Sub(c.lastWarmupAt) < c.cfg.Cooldown {
		c.mu.Unlock()
		return false
	}
	c.warmupInFlight = true
	c.lastWarmupAt = c.now()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.warmupInFlight = false
		c.mu.Unlock()
	}()

	warmupsTotal.Inc()
	if err := c.backend.CollectDetails(ctx); err != nil {
		c.log.Debug().Err(err).Msg("collect details failed; continuing warmup")
	}
	if err := c.backend.RefreshStatus(ctx); err != nil {
		c.log.Debug().Err(err).Msg("refresh status failed; continuing warmup")
	}
	c.syncLogsWithRetry(ctx)
	return true
}

var errLogsStillStale = errors.New("status logs still stale")

// syncLogsWithRetry forces a log sync up to RetryAttempts times with a
// constant delay, stopping on the first merge. Right after a triggered
// refresh the log endpoint can briefly serve stale or empty data; the
// bounded retry absorbs that race without polling indefinitely.
func (c *Cache) syncLogsWithRetry(ctx context.Context) {
	op := func() error {
		if c.SyncLogs(ctx, true) {
			return nil
		}
		return errLogsStillStale
	}
	bo := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(c.cfg.RetryDelay),
		uint64(c.cfg.RetryAttempts-1),
	)
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		c.log.Debug().Err(err).Msg("log sync exhausted retries")
	}
}

// Status is the read path used by detail views: the cached record when the
// map is fresh, otherwise a forced warmup followed by a cache read (which
// may still return the old value if the warmup produced nothing new).
func (c *Cache) Status(ctx context.Context, placeID string) *types.OpenStatusRecord {
	c.mu.Lock()
	fresh := !c.lastGoodAt.IsZero() && c.now().Sub(c.lastGoodAt) < c.cfg.TTL
	rec, ok := c.records[placeID]
	c.mu.Unlock()

	if ok && fresh {
		out := rec
		return &out
	}
	c.WarmupIfNeeded(ctx, true)
	return c.Cached(placeID)
}

// LastGoodAt reports when the map last merged a good response.
func (c *Cache) LastGoodAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastGoodAt
}
