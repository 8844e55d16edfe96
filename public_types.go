package opennow

import (
	"github.com/opennow/opennow-go/internal/bookmarks"
	"github.com/opennow/opennow-go/internal/geo"
	"github.com/opennow/opennow-go/internal/types"
)

// Public type aliases so SDK consumers only import the opennow package.
type (
	// Domain entities
	Place            = types.Place
	OpenStatusRecord = types.OpenStatusRecord
	Bookmark         = types.Bookmark

	// Geolocation
	Coordinates = geo.Coordinates
	GeoOptions  = geo.Options
	Locator     = geo.Locator

	// Results
	ToggleResult = bookmarks.ToggleResult
)

// Toggle actions, re-exported for switch statements on ToggleResult.
const (
	ActionAdded   = bookmarks.ActionAdded
	ActionRemoved = bookmarks.ActionRemoved
)
