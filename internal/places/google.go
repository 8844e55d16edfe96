package places

import (
	"context"

	"googlemaps.github.io/maps"

	"github.com/opennow/opennow-go/internal/geo"
	"github.com/opennow/opennow-go/internal/types"
)

// GoogleProvider discovers cafes through the Google Places Nearby Search
// API instead of the OpenNow backend.
type GoogleProvider struct {
	client *maps.Client
}

// NewGoogleProvider builds a provider with the given API key.
func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleProvider{client: c}, nil
}

// Nearby implements Provider.
func (p *GoogleProvider) Nearby(ctx context.Context, center geo.Coordinates, radiusMeters int) ([]types.Place, error) {
	resp, err := p.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: center.Lat, Lng: center.Lng},
		Radius:   uint(radiusMeters),
		Type:     maps.PlaceTypeCafe,
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.PlaceID == "" && r.Name == "" {
			continue
		}
		out = append(out, types.Place{
			ID:          r.PlaceID,
			Name:        r.Name,
			Lat:         r.Geometry.Location.Lat,
			Lng:         r.Geometry.Location.Lng,
			Address:     r.Vicinity,
			ExternalURL: "https://www.google.com/maps/place/?q=place_id:" + r.PlaceID,
		})
	}
	return out, nil
}
