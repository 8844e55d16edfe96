package types

// ------------------------------
// Request Types
// ------------------------------

// CollectPlacesRequest triggers server-side place collection around a
// coordinate.
type CollectPlacesRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RadiusM int     `json:"radius_m"`
}

// CreateBookmarkRequest holds parameters for a new bookmark. The backend
// keys bookmarks by the provider place id.
type CreateBookmarkRequest struct {
	KakaoID  string `json:"kakao_id"`
	CafeName string `json:"cafe_name"`
}

// UpdateMemoRequest patches the free-text memo on a bookmark.
type UpdateMemoRequest struct {
	Memo string `json:"memo"`
}

// LoginRequest holds credentials for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
