package geo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/opennow/opennow-go/internal/types"
)

// HTTPLocator resolves an approximate position from an IP-geolocation
// endpoint. It is the default capability for headless hosts; embedders
// with access to a real positioning service should inject their own
// Locator instead.
type HTTPLocator struct {
	Client   *http.Client
	Endpoint string
}

// NewHTTPLocator builds a locator against endpoint, e.g. a freegeoip-style
// service returning {"latitude": .., "longitude": ..}.
func NewHTTPLocator(client *http.Client, endpoint string) *HTTPLocator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLocator{Client: client, Endpoint: endpoint}
}

// CurrentPosition implements Locator.
func (l *HTTPLocator) CurrentPosition(ctx context.Context, _ Options) (Coordinates, error) {
	if l.Endpoint == "" {
		return Coordinates{}, ErrUnsupported
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Endpoint, nil)
	if err != nil {
		return Coordinates{}, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return Coordinates{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Coordinates{}, ErrPermissionDenied
	default:
		return Coordinates{}, ErrUnsupported
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Coordinates{}, err
	}
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		return Coordinates{}, err
	}
	lat, latOK := types.PickFloat(rec, "lat", "latitude")
	lng, lngOK := types.PickFloat(rec, "lng", "lon", "longitude")
	if !latOK || !lngOK {
		return Coordinates{}, ErrUnsupported
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}
