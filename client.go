// Package opennow is the client SDK for the OpenNow cafe discovery
// backend. It coordinates geolocation, place discovery, the open-status
// warmup cache, the 24-hour cafe list, and optimistic bookmark mutations
// behind one Client facade.
package opennow

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/api"
	"github.com/opennow/opennow-go/internal/auth"
	"github.com/opennow/opennow-go/internal/bookmarks"
	"github.com/opennow/opennow-go/internal/geo"
	"github.com/opennow/opennow-go/internal/httpcache"
	"github.com/opennow/opennow-go/internal/open24"
	"github.com/opennow/opennow-go/internal/places"
	"github.com/opennow/opennow-go/internal/status"
	"github.com/opennow/opennow-go/internal/storage"
	"github.com/opennow/opennow-go/internal/taskqueue"
	"github.com/opennow/opennow-go/internal/types"
)

// warmupTaskKey serializes background warmups with the periodic refresher.
const warmupTaskKey = "status-refresh"

// Client is the SDK entry point. Construct with New; all methods are safe
// for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger

	store     storage.Store
	exec      *taskqueue.Executor
	session   *auth.Session
	discovery *places.Service
	provider  places.Provider
	status    *status.Cache
	open24    *open24.Session
	bookmarks *bookmarks.Store
	refresher *status.Refresher
	locator   geo.Locator
	resolver  *geo.Resolver

	autoRefresh time.Duration
	closedOnce  uint32
}

// New constructs a Client for the backend at baseURL. Additional behavior
// is supplied via functional options.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}

	c := &Client{
		cfg: defaultConfig(),
		log: zerolog.Nop(),
	}
	c.cfg.BaseURL = baseURL

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: c.cfg.HTTPTimeout}
	}
	if c.store == nil {
		c.store = storage.NewMemory()
	}
	if c.exec == nil {
		c.exec = taskqueue.NewExecutor(taskqueue.Config{}, c.log)
	}

	c.wrapTransport()

	c.session = auth.NewSession(c.http, c.cfg.BaseURL, c.store, c.log)
	if c.provider == nil {
		c.provider = &places.BackendProvider{HTTP: c.http, BaseURL: c.cfg.BaseURL}
	}
	c.discovery = places.NewService(c.provider, c.log)
	c.status = status.NewCache(
		&status.HTTPBackend{HTTP: c.http, BaseURL: c.cfg.BaseURL},
		status.Config{
			TTL:           c.cfg.StatusTTL,
			Cooldown:      c.cfg.WarmupCooldown,
			RetryAttempts: c.cfg.StatusRetryAttempts,
			RetryDelay:    c.cfg.StatusRetryDelay,
		},
		c.log,
	)
	c.resolver = geo.NewResolver(c.locator)
	c.open24 = open24.NewSession(
		&open24.HTTPBackend{HTTP: c.http, BaseURL: c.cfg.BaseURL},
		c.resolver,
		open24.Config{
			TTL:          c.cfg.CafesTTL,
			RadiusMeters: c.cfg.SearchRadiusMeters,
			GeoOptions:   c.geoOptions(),
		},
		c.log,
	)
	c.bookmarks = bookmarks.NewStore(
		&bookmarks.HTTPBackend{HTTP: c.http, BaseURL: c.cfg.BaseURL},
		c.session,
		c.log,
	)

	if c.autoRefresh > 0 {
		c.refresher = status.NewRefresher(c.status, c.exec, c.autoRefresh, c.log)
		c.refresher.Start()
	}
	return c
}

// wrapTransport stacks the response cache and the bearer-token wrapper
// over the base transport. The token wrapper sits outermost so cached
// entries never depend on who asked.
func (c *Client) wrapTransport() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	cached := httpcache.New(base, map[string]time.Duration{
		"/api/places/":           c.cfg.PlacesCacheTTL,
		"/api/open_status_logs/": c.cfg.StatusLogTTL,
		"/api/cafes_24h/":        c.cfg.CafesCacheTTL,
	})
	c.http.Transport = &tokenTransport{base: cached, tokens: func() string {
		if c.session == nil {
			return ""
		}
		return c.session.Token()
	}}
}

// tokenTransport adds the Authorization header when a session token is
// held.
type tokenTransport struct {
	base   http.RoundTripper
	tokens func() string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.tokens()
	if token == "" {
		return t.base.RoundTrip(req)
	}
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(cloned)
}

func (c *Client) geoOptions() geo.Options {
	return geo.Options{
		HighAccuracy: c.cfg.GeoHighAccuracy,
		Timeout:      c.cfg.GeoTimeout,
	}
}

// Close stops the background refresher and drains the task queue. Safe to
// call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.refresher != nil {
		c.refresher.Stop()
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return c.store.Close()
}

// --------------------------------------------------------------------
// Authentication
// --------------------------------------------------------------------

// Login exchanges credentials for a session token, persisted in the
// client state store.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.session.Login(ctx, username, password)
}

// Logout drops the session token.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// Username returns the logged-in username, or "".
func (c *Client) Username() string { return c.session.Username() }

// LoggedIn reports whether a session token is held.
func (c *Client) LoggedIn() bool { return c.session.Token() != "" }

// --------------------------------------------------------------------
// Location
// --------------------------------------------------------------------

// CurrentLocation resolves the device position through the configured
// locator.
func (c *Client) CurrentLocation(ctx context.Context) (Coordinates, error) {
	return c.resolver.Resolve(ctx, c.geoOptions())
}

// --------------------------------------------------------------------
// Place discovery
// --------------------------------------------------------------------

// DiscoverPlaces returns places within radiusMeters of center, nearest
// first.
func (c *Client) DiscoverPlaces(ctx context.Context, center Coordinates, radiusMeters int) ([]Place, error) {
	found, err := c.discovery.Discover(ctx, center, radiusMeters)
	if err != nil {
		discoveriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	discoveriesTotal.WithLabelValues("ok").Inc()
	return found, nil
}

// DiscoverNearby resolves the current location and discovers around it
// with the configured radius.
func (c *Client) DiscoverNearby(ctx context.Context) ([]Place, error) {
	pos, err := c.resolver.Resolve(ctx, c.geoOptions())
	if err != nil {
		return nil, err
	}
	return c.discovery.Discover(ctx, pos, c.cfg.SearchRadiusMeters)
}

// CollectPlaces asks the backend to collect fresh place data around
// center.
func (c *Client) CollectPlaces(ctx context.Context, center Coordinates, radiusMeters int) error {
	return api.CollectPlaces(ctx, c.http, c.cfg.BaseURL, types.CollectPlacesRequest{
		Lat:     center.Lat,
		Lng:     center.Lng,
		RadiusM: radiusMeters,
	})
}

// --------------------------------------------------------------------
// Open status
// --------------------------------------------------------------------

// OpenStatus returns the open/closed record for placeID, forcing a warmup
// when the cache has gone stale. May return nil when nothing is known.
func (c *Client) OpenStatus(ctx context.Context, placeID string) *OpenStatusRecord {
	return c.status.Status(ctx, placeID)
}

// CachedOpenStatus is a pure cache lookup with no I/O.
func (c *Client) CachedOpenStatus(placeID string) *OpenStatusRecord {
	return c.status.Cached(placeID)
}

// SyncStatusLogs fetches and merges the status-log list once. Returns
// true iff the cache was updated.
func (c *Client) SyncStatusLogs(ctx context.Context, force bool) bool {
	return c.status.SyncLogs(ctx, force)
}

// WarmupStatus submits the warmup sequence to the background task queue.
// The returned error only reports enqueue failures; the warmup itself
// never surfaces errors.
func (c *Client) WarmupStatus(ctx context.Context, force bool) error {
	return c.exec.Submit(ctx, warmupTaskKey, taskqueue.TaskFunc(func(taskCtx context.Context) error {
		c.status.WarmupIfNeeded(taskCtx, force)
		return nil
	}))
}

// --------------------------------------------------------------------
// 24-hour cafes
// --------------------------------------------------------------------

// Load24hCafes returns the nearby always-open cafes, served from cache
// within the TTL unless force is set. On failure the previous list is
// returned along with the error.
func (c *Client) Load24hCafes(ctx context.Context, force bool) ([]Place, error) {
	return c.open24.Load(ctx, force)
}

// Cached24hCafes returns the current list without I/O.
func (c *Client) Cached24hCafes() []Place { return c.open24.Cached() }

// CafeNotice returns the current user-facing notice for the 24h list
// ("" when none).
func (c *Client) CafeNotice() string { return c.open24.Notice() }

// --------------------------------------------------------------------
// Bookmarks
// --------------------------------------------------------------------

// ToggleBookmark adds or removes the bookmark for placeID, optimistically
// with rollback on failure.
func (c *Client) ToggleBookmark(ctx context.Context, placeID, displayName string) (*ToggleResult, error) {
	res, err := c.bookmarks.Toggle(ctx, placeID, displayName)
	if err != nil {
		return nil, err
	}
	togglesTotal.WithLabelValues(res.Action).Inc()
	return res, nil
}

// IsBookmarked reports local membership, counting optimistic entries.
func (c *Client) IsBookmarked(placeID string) bool {
	return c.bookmarks.IsBookmarked(placeID)
}

// Bookmarks returns a copy of the local bookmark set.
func (c *Client) Bookmarks() []Bookmark { return c.bookmarks.List() }

// RefreshBookmarks replaces the local set with the server's list.
func (c *Client) RefreshBookmarks(ctx context.Context) error {
	return c.bookmarks.Refresh(ctx)
}

// UpdateBookmarkMemo patches the memo on the bookmark for placeID.
func (c *Client) UpdateBookmarkMemo(ctx context.Context, placeID, memo string) error {
	return c.bookmarks.UpdateMemo(ctx, placeID, memo)
}
