package places

import (
	"fmt"

	"github.com/opennow/opennow-go/internal/types"
)

// Candidate keys per logical field, tried in priority order. Backends and
// provider proxies disagree on spellings; this list is the normalization
// contract.
var (
	idKeys      = []string{"id", "place_id", "kakao_id"}
	nameKeys    = []string{"name", "place_name", "cafe_name", "title"}
	latKeys     = []string{"lat", "latitude", "y"}
	lngKeys     = []string{"lng", "lon", "longitude", "x"}
	addressKeys = []string{"address", "road_address", "address_name", "vicinity"}
	urlKeys     = []string{"url", "place_url", "external_url"}
)

// Normalize maps one raw backend record onto a Place. Records without
// finite coordinates are dropped, not defaulted.
func Normalize(rec map[string]any) (types.Place, bool) {
	lat, latOK := types.PickFloat(rec, latKeys...)
	lng, lngOK := types.PickFloat(rec, lngKeys...)
	if !latOK || !lngOK {
		return types.Place{}, false
	}
	name := types.PickString(rec, nameKeys...)
	id := types.PickString(rec, idKeys...)
	if id == "" {
		// Coordinate+name fallback keeps the id stable across fetches.
		id = fmt.Sprintf("%s@%.6f,%.6f", name, lat, lng)
	}
	return types.Place{
		ID:          id,
		Name:        name,
		Lat:         lat,
		Lng:         lng,
		Address:     types.PickString(rec, addressKeys...),
		ExternalURL: types.PickString(rec, urlKeys...),
	}, true
}

// NormalizeAll maps a raw record list, dropping unusable entries and
// preserving input order.
func NormalizeAll(records []map[string]any) []types.Place {
	out := make([]types.Place, 0, len(records))
	for _, rec := range records {
		if p, ok := Normalize(rec); ok {
			out = append(out, p)
		}
	}
	return out
}
