// Package places discovers cafes near a coordinate, normalizes the
// heterogeneous record shapes backends return, and orders results by
// proximity.
package places

import (
	"context"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/api"
	"github.com/opennow/opennow-go/internal/geo"
	"github.com/opennow/opennow-go/internal/types"
)

// Provider supplies raw nearby places. Implementations: the OpenNow
// backend and the Google Places proxy.
type Provider interface {
	Nearby(ctx context.Context, center geo.Coordinates, radiusMeters int) ([]types.Place, error)
}

// BackendProvider reads places from the OpenNow backend.
type BackendProvider struct {
	HTTP    *http.Client
	BaseURL string
}

// Nearby implements Provider.
func (p *BackendProvider) Nearby(ctx context.Context, center geo.Coordinates, radiusMeters int) ([]types.Place, error) {
	records, err := api.ListPlaces(ctx, p.HTTP, p.BaseURL, center.Lat, center.Lng, radiusMeters)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(records), nil
}

// Service combines a Provider with distance computation and sorting.
type Service struct {
	provider Provider
	log      zerolog.Logger
}

// NewService builds a discovery service over provider.
func NewService(provider Provider, log zerolog.Logger) *Service {
	return &Service{provider: provider, log: log}
}

// Discover returns places within radiusMeters of center, nearest first.
// Ties keep provider order (stable sort).
func (s *Service) Discover(ctx context.Context, center geo.Coordinates, radiusMeters int) ([]types.Place, error) {
	found, err := s.provider.Nearby(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}
	for i := range found {
		d := geo.Haversine(center.Lat, center.Lng, found[i].Lat, found[i].Lng)
		found[i].DistanceMeters = &d
	}
	sort.SliceStable(found, func(i, j int) bool {
		return *found[i].DistanceMeters < *found[j].DistanceMeters
	})
	s.log.Debug().Int("count", len(found)).Int("radius_m", radiusMeters).Msg("places discovered")
	return found, nil
}
