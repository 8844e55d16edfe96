package types

// ------------------------------
// Core Domain Entities
// ------------------------------

// Place is a discovered location. Instances are created fresh on every
// discovery fetch and never mutated; the next fetch supersedes them.
type Place struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
	Address        string   `json:"address,omitempty"`
	ExternalURL    string   `json:"externalUrl,omitempty"`
}

// OpenStatusRecord is the live open/closed state for one place.
// IsOpenNow is tri-state: nil means unknown.
type OpenStatusRecord struct {
	PlaceID        string `json:"placeId"`
	IsOpenNow      *bool  `json:"isOpenNow,omitempty"`
	TodayOpenTime  string `json:"todayOpenTime,omitempty"`
	TodayCloseTime string `json:"todayCloseTime,omitempty"`
	StatusNote     string `json:"statusNote,omitempty"`
	MinutesToClose *int   `json:"minutesToClose,omitempty"`
}

// Bookmark is a user's saved place. While Pending is true the ID is a
// locally generated placeholder that must never be sent to the server as a
// path parameter.
type Bookmark struct {
	ID          string `json:"bookmarkId"`
	Pending     bool   `json:"-"`
	PlaceID     string `json:"placeId"`
	DisplayName string `json:"displayName"`
	Memo        string `json:"memo,omitempty"`
}
