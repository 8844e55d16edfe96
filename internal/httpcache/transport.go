// Package httpcache layers two independent policies over an
// http.RoundTripper: in-flight deduplication of identical requests, and a
// TTL-bound response cache for designated read endpoints.
//
// The cache is consulted before dedup and network; a hit short-circuits
// both. Only successful (2xx) payloads are cached; errors are never
// swallowed, every coalesced caller observes the same failure.
package httpcache

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// entry is a stored response for one cache key.
type entry struct {
	status    int
	header    http.Header
	body      []byte
	expiresAt time.Time
}

// call is one in-flight request shared by every coalesced caller.
type call struct {
	done   chan struct{}
	status int
	header http.Header
	body   []byte
	err    error
}

// Transport implements http.RoundTripper. TTLs maps URL path prefixes of
// cacheable GET endpoints to their time-to-live; paths without a rule are
// deduplicated but never cached.
type Transport struct {
	base http.RoundTripper
	ttls map[string]time.Duration

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*call

	now func() time.Time
}

// New wraps base. A nil base falls back to http.DefaultTransport.
func New(base http.RoundTripper, ttls map[string]time.Duration) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:     base,
		ttls:     ttls,
		entries:  make(map[string]*entry),
		inflight: make(map[string]*call),
		now:      time.Now,
	}
}

// ttlFor returns the cache TTL for a request path, or zero when the path
// is not a designated read endpoint.
func (t *Transport) ttlFor(req *http.Request) time.Duration {
	if req.Method != http.MethodGet {
		return 0
	}
	for prefix, ttl := range t.ttls {
		if strings.HasPrefix(req.URL.Path, prefix) {
			return ttl
		}
	}
	return 0
}

// cacheKey is method + full URL + serialized body. The body is restored so
// the request can still be sent.
func cacheKey(req *http.Request) (string, error) {
	key := req.Method + " " + req.URL.String()
	if req.Body == nil || req.Body == http.NoBody {
		return key, nil
	}
	payload, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return "", err
	}
	req.Body = io.NopCloser(bytes.NewReader(payload))
	return key + " " + string(payload), nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	key, err := cacheKey(req)
	if err != nil {
		return nil, err
	}
	ttl := t.ttlFor(req)
	// A forced request skips the cache read but its response still lands
	// in the store below, so later plain reads see the forced payload
	// instead of the stale pre-force entry.
	bypass := req.Header.Get("Cache-Control") == "no-cache"

	t.mu.Lock()
	if ttl > 0 && !bypass {
		if e, ok := t.entries[key]; ok {
			if t.now().Before(e.expiresAt) {
				t.mu.Unlock()
				hitsTotal.Inc()
				return synthesize(req, e.status, e.header, e.body), nil
			}
			delete(t.entries, key) // expired: evict and treat as miss
		}
		missesTotal.Inc()
	}

	if c, ok := t.inflight[key]; ok {
		t.mu.Unlock()
		coalescedTotal.Inc()
		select {
		case <-c.done:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
		if c.err != nil {
			return nil, c.err
		}
		return synthesize(req, c.status, c.header, c.body), nil
	}

	c := &call{done: make(chan struct{})}
	t.inflight[key] = c
	t.mu.Unlock()

	resp, err := t.base.RoundTrip(req)
	if err == nil {
		c.status = resp.StatusCode
		c.header = resp.Header.Clone()
		c.body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
	}
	c.err = err

	t.mu.Lock()
	delete(t.inflight, key) // cleared exactly once, win or lose
	if c.err == nil && ttl > 0 && c.status >= 200 && c.status <= 299 {
		t.entries[key] = &entry{
			status:    c.status,
			header:    c.header,
			body:      c.body,
			expiresAt: t.now().Add(ttl),
		}
	}
	t.mu.Unlock()
	close(c.done)

	if c.err != nil {
		return nil, c.err
	}
	return synthesize(req, c.status, c.header, c.body), nil
}

// synthesize builds a response each caller can read independently.
func synthesize(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	return &http.Response{
		Status:        http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
