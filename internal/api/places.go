package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/opennow/opennow-go/internal/types"
)

// CollectPlaces asks the backend to collect places around a coordinate.
// The response is a provider-defined ack and is discarded.
func CollectPlaces(ctx context.Context, hc *http.Client, baseURL string, req types.CollectPlacesRequest) error {
	return call(ctx, hc, baseURL, request{
		Op:     "collect places",
		Method: http.MethodPost,
		Path:   "/api/collect/",
		Body:   req,
	}, nil)
}

// ListPlaces fetches raw place records within radius meters of a point.
// Records are left unnormalized; the discovery service owns field mapping.
func ListPlaces(ctx context.Context, hc *http.Client, baseURL string, lat, lng float64, radiusMeters int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))
	body, err := callRaw(ctx, hc, baseURL, request{
		Op:     "list places",
		Method: http.MethodGet,
		Path:   "/api/places/",
		Query:  q,
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

// List24hCafes fetches the always-open cafes near a point. The response
// may be a bare array or a wrapper object.
func List24hCafes(ctx context.Context, hc *http.Client, baseURL string, lat, lng float64, radiusMeters int, force bool) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))
	body, err := callRaw(ctx, hc, baseURL, request{
		Op:     "list 24h cafes",
		Method: http.MethodGet,
		Path:   "/api/cafes_24h/",
		Query:  q,
		Force:  force,
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}
