package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/opennow/opennow-go/internal/types"
)

// Bookmark field names vary by backend revision; resolve each logical
// field from candidate keys in priority order.
var (
	bookmarkIDKeys   = []string{"bookmarkId", "id", "pk"}
	bookmarkPlaceKey = []string{"placeId", "place_id", "kakao_id"}
	bookmarkNameKeys = []string{"displayName", "cafe_name", "name"}
	bookmarkMemoKeys = []string{"memo", "note"}
)

func normalizeBookmark(rec map[string]any) (types.Bookmark, bool) {
	placeID := types.PickString(rec, bookmarkPlaceKey...)
	if placeID == "" {
		return types.Bookmark{}, false
	}
	return types.Bookmark{
		ID:          types.PickString(rec, bookmarkIDKeys...),
		PlaceID:     placeID,
		DisplayName: types.PickString(rec, bookmarkNameKeys...),
		Memo:        types.PickString(rec, bookmarkMemoKeys...),
	}, true
}

// decodeBookmark accepts either a bare bookmark object or one wrapped
// under a "bookmark" key.
func decodeBookmark(body []byte) (types.Bookmark, bool) {
	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		return types.Bookmark{}, false
	}
	if inner, ok := rec["bookmark"].(map[string]any); ok {
		rec = inner
	}
	return normalizeBookmark(rec)
}

// ListBookmarks returns the authoritative bookmark list for the session
// user.
func ListBookmarks(ctx context.Context, hc *http.Client, baseURL string) ([]types.Bookmark, error) {
	body, err := callRaw(ctx, hc, baseURL, request{
		Op:     "list bookmarks",
		Method: http.MethodGet,
		Path:   "/api/auth/bookmarks/",
	})
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	bookmarks := make([]types.Bookmark, 0, len(records))
	for _, rec := range records {
		if b, ok := normalizeBookmark(rec); ok {
			bookmarks = append(bookmarks, b)
		}
	}
	return bookmarks, nil
}

// CreateBookmark saves a place for the session user and returns the
// server-confirmed record.
func CreateBookmark(ctx context.Context, hc *http.Client, baseURL, placeID, displayName string) (types.Bookmark, error) {
	body, err := callRaw(ctx, hc, baseURL, request{
		Op:     "create bookmark",
		Method: http.MethodPost,
		Path:   "/api/auth/bookmarks/",
		Body:   types.CreateBookmarkRequest{KakaoID: placeID, CafeName: displayName},
	})
	if err != nil {
		return types.Bookmark{}, err
	}
	if b, ok := decodeBookmark(body); ok {
		return b, nil
	}
	// Server acked without a parseable body; the caller keeps its own
	// record and reconciles on the next list refresh.
	return types.Bookmark{PlaceID: placeID, DisplayName: displayName}, nil
}

// DeleteBookmark removes a bookmark by its server-assigned id.
func DeleteBookmark(ctx context.Context, hc *http.Client, baseURL, bookmarkID string) error {
	return call(ctx, hc, baseURL, request{
		Op:     "delete bookmark",
		Method: http.MethodDelete,
		Path:   "/api/auth/bookmarks/" + url.PathEscape(bookmarkID) + "/",
	}, nil)
}

// PatchBookmarkMemo updates the memo on a bookmark.
func PatchBookmarkMemo(ctx context.Context, hc *http.Client, baseURL, bookmarkID, memo string) (types.Bookmark, error) {
	body, err := callRaw(ctx, hc, baseURL, request{
		Op:     "patch bookmark memo",
		Method: http.MethodPatch,
		Path:   "/api/auth/bookmarks/" + url.PathEscape(bookmarkID) + "/memo/",
		Body:   types.UpdateMemoRequest{Memo: memo},
	})
	if err != nil {
		return types.Bookmark{}, err
	}
	b, _ := decodeBookmark(body)
	return b, nil
}
