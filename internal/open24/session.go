// Package open24 holds the "nearby always-open cafes" list with its own
// TTL, in-flight coalescing, and a monotonic sequence guard that lets only
// the most recently started load mutate state.
package open24

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/api"
	"github.com/opennow/opennow-go/internal/geo"
	"github.com/opennow/opennow-go/internal/places"
	"github.com/opennow/opennow-go/internal/types"
)

// DefaultTTL is how long a non-empty list is served without a refetch.
const DefaultTTL = 120 * time.Second

// User-facing failure reasons. Soft outcomes (stale-empty) reuse
// NoticeKeptStale without an accompanying error.
const (
	NoticeUnsupported      = "location is not available on this device"
	NoticePermissionDenied = "location access is blocked"
	NoticeLoadFailed       = "could not load 24-hour cafes"
	NoticeKeptStale        = "no fresh results; showing the previous list"
)

// Backend fetches the raw 24h cafe list for a coordinate.
type Backend interface {
	List24h(ctx context.Context, center geo.Coordinates, radiusMeters int, force bool) ([]map[string]any, error)
}

// HTTPBackend delegates to the gateway.
type HTTPBackend struct {
	HTTP    *http.Client
	BaseURL string
}

func (b *HTTPBackend) List24h(ctx context.Context, center geo.Coordinates, radiusMeters int, force bool) ([]map[string]any, error) {
	return api.List24hCafes(ctx, b.HTTP, b.BaseURL, center.Lat, center.Lng, radiusMeters, force)
}

// pending is one in-flight load shared by coalesced callers.
type pending struct {
	done  chan struct{}
	cafes []types.Place
	err   error
}

// Config tunes the session.
type Config struct {
	TTL          time.Duration
	RadiusMeters int
	GeoOptions   geo.Options
}

// Session owns the cached list. Readers receive copies.
type Session struct {
	backend  Backend
	resolver *geo.Resolver
	log      zerolog.Logger
	cfg      Config

	mu            sync.Mutex
	cafes         []types.Place
	lastFetchedAt time.Time
	notice        string
	inflight      *pending
	seq           uint64

	now func() time.Time
}

// NewSession builds the session state.
func NewSession(backend Backend, resolver *geo.Resolver, cfg Config, log zerolog.Logger) *Session {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = 1000
	}
	return &Session{
		backend:  backend,
		resolver: resolver,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Cached returns a copy of the current list without I/O.
func (s *Session) Cached() []types.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Notice returns the current user-facing notice ("" when none).
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// Load returns the nearby always-open cafes.
//
//  1. Without force, a fresh non-empty cache is returned directly.
//  2. Without force, a load already in flight is joined rather than
//     duplicated.
//  3. Otherwise a new load starts: it captures a sequence number, resolves
//     the current location, fetches, and is only allowed to mutate state
//     if no newer load has started at each checkpoint.
//
// On failure the cached list is preserved, a notice is recorded, and the
// error is returned alongside the cached list so callers can keep
// rendering.
func (s *Session) Load(ctx context.Context, force bool) ([]types.Place, error) {
	s.mu.Lock()
	if !force && len(s.cafes) > 0 && s.now().Sub(s.lastFetchedAt) < s.cfg.TTL {
		out := s.snapshotLocked()
		s.mu.Unlock()
		return out, nil
	}
	if !force && s.inflight != nil {
		p := s.inflight
		s.mu.Unlock()
		select {
		case <-p.done:
			return p.cafes, p.err
		case <-ctx.Done():
			return s.Cached(), ctx.Err()
		}
	}
	s.seq++
	mySeq := s.seq
	p := &pending{done: make(chan struct{})}
	s.inflight = p
	s.mu.Unlock()

	cafes, err := s.run(ctx, mySeq, force)

	s.mu.Lock()
	if s.inflight == p {
		s.inflight = nil
	}
	s.mu.Unlock()
	p.cafes, p.err = cafes, err
	close(p.done)
	return cafes, err
}

// run performs one load attempt under sequence guard mySeq.
func (s *Session) run(ctx context.Context, mySeq uint64, force bool) ([]types.Place, error) {
	pos, err := s.resolver.Resolve(ctx, s.cfg.GeoOptions)
	if err != nil {
		return s.fail(err)
	}
	if s.superseded(mySeq) {
		return s.Cached(), nil
	}

	records, err := s.backend.List24h(ctx, pos, s.cfg.RadiusMeters, force)
	if err != nil {
		return s.fail(err)
	}
	fetched := places.NormalizeAll(records)
	for i := range fetched {
		d := geo.Distance(pos, geo.Coordinates{Lat: fetched[i].Lat, Lng: fetched[i].Lng})
		fetched[i].DistanceMeters = &d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mySeq != s.seq {
		// A newer load started while we were fetching; discard silently.
		return s.snapshotLocked(), nil
	}
	if len(fetched) == 0 && len(s.cafes) > 0 {
		staleEmptyTotal.Inc()
		s.notice = NoticeKeptStale
		s.log.Warn().Msg("24h list came back empty; keeping previous list")
		return s.snapshotLocked(), nil
	}
	s.cafes = fetched
	s.lastFetchedAt = s.now()
	s.notice = ""
	return s.snapshotLocked(), nil
}

// superseded reports whether a newer load has started since mySeq.
func (s *Session) superseded(mySeq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mySeq != s.seq
}

// fail classifies err into a user-facing notice and preserves the cache.
func (s *Session) fail(err error) ([]types.Place, error) {
	notice := NoticeLoadFailed
	switch {
	case errors.Is(err, geo.ErrUnsupported):
		notice = NoticeUnsupported
	case errors.Is(err, geo.ErrPermissionDenied):
		notice = NoticePermissionDenied
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = notice
	s.log.Warn().Err(err).Str("notice", notice).Msg("24h load failed; cache preserved")
	return s.snapshotLocked(), err
}

func (s *Session) snapshotLocked() []types.Place {
	out := make([]types.Place, len(s.cafes))
	copy(out, s.cafes)
	return out
}
