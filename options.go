package opennow

// This file defines the functional options that configure a Client during
// construction. Options must be deterministic and side-effect free; they
// are applied before the cache and token transports are installed.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/geo"
	"github.com/opennow/opennow-go/internal/places"
	"github.com/opennow/opennow-go/internal/storage"
	"github.com/opennow/opennow-go/internal/taskqueue"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithConfig replaces the compiled-in defaults wholesale, e.g. with the
// result of LoadConfig. The base URL passed to New still wins.
func WithConfig(cfg Config) Option {
	return func(c *Client) error {
		baseURL := c.cfg.BaseURL
		c.cfg = cfg
		if baseURL != "" {
			c.cfg.BaseURL = baseURL
		}
		return nil
	}
}

// WithHTTPTimeout sets the underlying http.Client timeout. Prefer
// per-request context deadlines; this is a coarse safety net bounding one
// whole HTTP exchange.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.cfg.HTTPTimeout = d
		if c.http != nil {
			c.http.Timeout = d
		}
		return nil
	}
}

// WithHTTPClient supplies a custom http.Client. Its transport is still
// wrapped with the response cache and the token wrapper.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.http = hc
		return nil
	}
}

// WithLogger routes SDK logs through log. The default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// WithDebugLogging wraps the transport so each request/response is
// dumped when enabled. Also switched on by OPENNOW_DEBUG=true or
// DEBUG=true. Do not enable in production; dumps include headers and
// bodies.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if !enabled {
			return nil
		}
		if c.http == nil {
			c.http = &http.Client{Timeout: c.cfg.HTTPTimeout}
		}
		c.http.Transport = &debugTransport{base: c.http.Transport}
		return nil
	}
}

// WithLocator injects the platform location capability.
func WithLocator(loc geo.Locator) Option {
	return func(c *Client) error {
		c.locator = loc
		return nil
	}
}

// WithIPGeolocation resolves position from an IP-geolocation endpoint,
// for hosts without a native positioning service.
func WithIPGeolocation(endpoint string) Option {
	return func(c *Client) error {
		if endpoint == "" {
			return fmt.Errorf("ip geolocation endpoint must not be empty")
		}
		c.locator = geo.NewHTTPLocator(nil, endpoint)
		return nil
	}
}

// WithGooglePlaces discovers places through the Google Places API instead
// of the backend.
func WithGooglePlaces(apiKey string) Option {
	return func(c *Client) error {
		p, err := places.NewGoogleProvider(apiKey)
		if err != nil {
			return err
		}
		c.provider = p
		return nil
	}
}

// WithDurableState persists session state in an embedded database at dir
// instead of process memory.
func WithDurableState(dir string) Option {
	return func(c *Client) error {
		store, err := storage.OpenBadger(dir)
		if err != nil {
			return err
		}
		c.store = store
		return nil
	}
}

// WithTaskQueueConfig tunes the background executor.
func WithTaskQueueConfig(cfg taskqueue.Config) Option {
	return func(c *Client) error {
		c.exec = taskqueue.NewExecutor(cfg, c.log)
		return nil
	}
}

// WithAutoRefresh periodically syncs the open-status logs in the
// background. Intervals under a second are rounded up.
func WithAutoRefresh(interval time.Duration) Option {
	return func(c *Client) error {
		if interval <= 0 {
			return fmt.Errorf("auto refresh interval must be > 0")
		}
		c.autoRefresh = interval
		return nil
	}
}
