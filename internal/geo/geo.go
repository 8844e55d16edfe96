// Package geo wraps the host's location capability behind a cancelable,
// timeout-bound resolver and provides great-circle distance math.
package geo

import (
	"context"
	"errors"
	"math"
	"time"
)

// Coordinates is a WGS 84 point in float degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Options controls a single position fix. Freshness policy belongs to
// callers; this layer never caches.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

var (
	// ErrUnsupported means the platform has no location capability.
	ErrUnsupported = errors.New("geolocation unsupported")

	// ErrPermissionDenied means the user has blocked location access.
	ErrPermissionDenied = errors.New("geolocation permission denied")

	// ErrTimeout means no fix arrived within Options.Timeout.
	ErrTimeout = errors.New("geolocation timed out")
)

// Locator is the external location capability. Implementations must honor
// ctx cancellation.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Coordinates, error)
}

// Resolver bounds a Locator call with the configured timeout and maps
// deadline expiry to ErrTimeout.
type Resolver struct {
	loc Locator
}

// NewResolver wraps loc. A nil loc yields ErrUnsupported on every call.
func NewResolver(loc Locator) *Resolver {
	return &Resolver{loc: loc}
}

// Resolve returns the current position or one of the package sentinel
// errors.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (Coordinates, error) {
	if r == nil || r.loc == nil {
		return Coordinates{}, ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	pos, err := r.loc.CurrentPosition(ctx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Coordinates{}, ErrTimeout
		}
		return Coordinates{}, err
	}
	return pos, nil
}

const earthRadiusMeters = 6371000

// Haversine returns the great-circle distance between two points in
// meters, rounded to the nearest meter.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(earthRadiusMeters * c)
}

// Distance is Haversine over Coordinates values.
func Distance(a, b Coordinates) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}
