package open24

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/geo"
)

// fixedLocator returns one position forever.
type fixedLocator struct{ pos geo.Coordinates }

func (l *fixedLocator) CurrentPosition(context.Context, geo.Options) (geo.Coordinates, error) {
	return l.pos, nil
}

// failingLocator returns a scripted error.
type failingLocator struct{ err error }

func (l *failingLocator) CurrentPosition(context.Context, geo.Options) (geo.Coordinates, error) {
	return geo.Coordinates{}, l.err
}

// scriptedBackend serves one response per call, blocking on gate[i] when
// set.
type scriptedBackend struct {
	mu        sync.Mutex
	responses []func() ([]map[string]any, error)
	calls     int32
}

func (b *scriptedBackend) List24h(context.Context, geo.Coordinates, int, bool) ([]map[string]any, error) {
	n := int(atomic.AddInt32(&b.calls, 1))
	b.mu.Lock()
	if n > len(b.responses) {
		n = len(b.responses)
	}
	fn := b.responses[n-1]
	b.mu.Unlock()
	// Run outside the lock; scripted responses may block.
	return fn()
}

func respond(recs []map[string]any) func() ([]map[string]any, error) {
	return func() ([]map[string]any, error) { return recs, nil }
}

func cafeRec(id string, lat, lng float64) map[string]any {
	return map[string]any{"id": id, "name": id, "lat": lat, "lng": lng}
}

func newTestSession(b Backend, loc geo.Locator, cfg Config) *Session {
	return NewSession(b, geo.NewResolver(loc), cfg, zerolog.Nop())
}

func TestLoadPopulatesAndComputesDistance(t *testing.T) {
	t.Parallel()
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		respond([]map[string]any{cafeRec("c1", 37.5, 127.0)}),
	}}
	s := newTestSession(backend, &fixedLocator{pos: geo.Coordinates{Lat: 37.5, Lng: 127.0}}, Config{})

	cafes, err := s.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cafes) != 1 || cafes[0].ID != "c1" {
		t.Fatalf("cafes = %+v", cafes)
	}
	if cafes[0].DistanceMeters == nil || *cafes[0].DistanceMeters != 0 {
		t.Fatalf("distance = %v, want 0 at own position", cafes[0].DistanceMeters)
	}
	if s.Notice() != "" {
		t.Fatalf("notice = %q, want empty on success", s.Notice())
	}
}

func TestLoadServesFreshCacheWithinTTL(t *testing.T) {
	t.Parallel()
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		respond([]map[string]any{cafeRec("c1", 1, 1)}),
	}}
	s := newTestSession(backend, &fixedLocator{}, Config{TTL: 120 * time.Second})
	clock := time.Now()
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	if _, err := s.Load(ctx, false); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(119 * time.Second)
	if _, err := s.Load(ctx, false); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&backend.calls); n != 1 {
		t.Fatalf("backend calls = %d, want 1 within TTL", n)
	}

	clock = clock.Add(2 * time.Second)
	if _, err := s.Load(ctx, false); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&backend.calls); n != 2 {
		t.Fatalf("backend calls = %d, want refetch after TTL", n)
	}
}

func TestForceBypassesTTL(t *testing.T) {
	t.Parallel()
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		respond([]map[string]any{cafeRec("c1", 1, 1)}),
	}}
	s := newTestSession(backend, &fixedLocator{}, Config{TTL: time.Hour})
	ctx := context.Background()

	if _, err := s.Load(ctx, false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, true); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&backend.calls); n != 2 {
		t.Fatalf("backend calls = %d, want force to refetch", n)
	}
}

func TestStaleEmptyGuardKeepsPreviousList(t *testing.T) {
	t.Parallel()
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		respond([]map[string]any{cafeRec("c1", 1, 1)}),
		respond(nil), // refetch comes back empty
	}}
	s := newTestSession(backend, &fixedLocator{}, Config{})
	ctx := context.Background()

	if _, err := s.Load(ctx, true); err != nil {
		t.Fatal(err)
	}
	cafes, err := s.Load(ctx, true)
	if err != nil {
		t.Fatalf("empty refetch is not an error: %v", err)
	}
	if len(cafes) != 1 || cafes[0].ID != "c1" {
		t.Fatalf("previous list not preserved: %+v", cafes)
	}
	if s.Notice() != NoticeKeptStale {
		t.Fatalf("notice = %q, want %q", s.Notice(), NoticeKeptStale)
	}
}

func TestEmptyResultOnEmptyCacheIsAccepted(t *testing.T) {
	t.Parallel()
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){respond(nil)}}
	s := newTestSession(backend, &fixedLocator{}, Config{})

	cafes, err := s.Load(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(cafes) != 0 {
		t.Fatalf("cafes = %+v", cafes)
	}
	if s.Notice() != "" {
		t.Fatalf("notice = %q, an empty area is not a stale-empty", s.Notice())
	}
}

func TestLoadFailurePreservesCacheAndSetsNotice(t *testing.T) {
	t.Parallel()
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		respond([]map[string]any{cafeRec("c1", 1, 1)}),
		func() ([]map[string]any, error) { return nil, errors.New("backend down") },
	}}
	s := newTestSession(backend, &fixedLocator{}, Config{})
	ctx := context.Background()

	if _, err := s.Load(ctx, true); err != nil {
		t.Fatal(err)
	}
	cafes, err := s.Load(ctx, true)
	if err == nil {
		t.Fatal("expected the fetch error to propagate")
	}
	if len(cafes) != 1 {
		t.Fatalf("cached list not returned alongside the error: %+v", cafes)
	}
	if s.Notice() != NoticeLoadFailed {
		t.Fatalf("notice = %q", s.Notice())
	}
}

func TestGeoFailureNotices(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		err    error
		notice string
	}{
		{"unsupported", geo.ErrUnsupported, NoticeUnsupported},
		{"permission", geo.ErrPermissionDenied, NoticePermissionDenied},
		{"other", errors.New("gps glitch"), NoticeLoadFailed},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := newTestSession(&scriptedBackend{responses: []func() ([]map[string]any, error){respond(nil)}},
				&failingLocator{err: tc.err}, Config{})
			_, err := s.Load(context.Background(), false)
			if !errors.Is(err, tc.err) {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if s.Notice() != tc.notice {
				t.Fatalf("notice = %q, want %q", s.Notice(), tc.notice)
			}
		})
	}
}

func TestConcurrentLoadsCoalesce(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		func() ([]map[string]any, error) {
			<-release
			return []map[string]any{cafeRec("c1", 1, 1)}, nil
		},
	}}
	s := newTestSession(backend, &fixedLocator{}, Config{})

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cafes, err := s.Load(context.Background(), false)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			for _, c := range cafes {
				results[i] = append(results[i], c.ID)
			}
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, ids := range results {
		if len(ids) != 1 || ids[0] != "c1" {
			t.Fatalf("caller %d got %v", i, ids)
		}
	}
	if n := atomic.LoadInt32(&backend.calls); n != 1 {
		t.Fatalf("backend calls = %d, want 1 coalesced fetch", n)
	}
}

func TestSupersededLoadDoesNotOverwrite(t *testing.T) {
	t.Parallel()
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		func() ([]map[string]any, error) {
			close(firstStarted)
			<-releaseFirst
			return []map[string]any{cafeRec("old", 1, 1)}, nil
		},
		respond([]map[string]any{cafeRec("new", 2, 2)}),
	}}
	s := newTestSession(backend, &fixedLocator{}, Config{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Load(context.Background(), true)
	}()
	<-firstStarted

	// A newer forced load starts and completes while the first is still
	// fetching.
	cafes, err := s.Load(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(cafes) != 1 || cafes[0].ID != "new" {
		t.Fatalf("second load got %+v", cafes)
	}

	close(releaseFirst)
	<-done

	got := s.Cached()
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("stale load overwrote state: %+v", got)
	}
}

func TestCachedReturnsCopy(t *testing.T) {
	t.Parallel()
	backend := &scriptedBackend{responses: []func() ([]map[string]any, error){
		respond([]map[string]any{cafeRec("c1", 1, 1)}),
	}}
	s := newTestSession(backend, &fixedLocator{}, Config{})
	if _, err := s.Load(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	snap := s.Cached()
	snap[0].ID = "mutated"
	if s.Cached()[0].ID != "c1" {
		t.Fatal("Cached must return a copy")
	}
}
