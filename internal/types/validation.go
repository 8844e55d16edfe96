package types

import (
	"strings"

	oerr "github.com/opennow/opennow-go/internal/errors"
)

// NormalizePlaceID trims the identifier and rejects empty values.
func NormalizePlaceID(placeID string) (string, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return "", oerr.ErrPlaceIDRequired
	}
	return placeID, nil
}
