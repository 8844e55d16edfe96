// Package bookmarks is the authoritative client-side collection of saved
// places. Mutations are optimistic: the local set changes immediately,
// then is confirmed, reconciled, or rolled back against the server.
package bookmarks

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opennow/opennow-go/internal/api"
	oerr "github.com/opennow/opennow-go/internal/errors"
	"github.com/opennow/opennow-go/internal/types"
)

// Backend is the remote bookmark surface.
type Backend interface {
	List(ctx context.Context) ([]types.Bookmark, error)
	Create(ctx context.Context, placeID, displayName string) (types.Bookmark, error)
	Delete(ctx context.Context, bookmarkID string) error
	PatchMemo(ctx context.Context, bookmarkID, memo string) (types.Bookmark, error)
}

// HTTPBackend delegates to the gateway.
type HTTPBackend struct {
	HTTP    *http.Client
	BaseURL string
}

func (b *HTTPBackend) List(ctx context.Context) ([]types.Bookmark, error) {
	return api.ListBookmarks(ctx, b.HTTP, b.BaseURL)
}

func (b *HTTPBackend) Create(ctx context.Context, placeID, displayName string) (types.Bookmark, error) {
	return api.CreateBookmark(ctx, b.HTTP, b.BaseURL, placeID, displayName)
}

func (b *HTTPBackend) Delete(ctx context.Context, bookmarkID string) error {
	return api.DeleteBookmark(ctx, b.HTTP, b.BaseURL, bookmarkID)
}

func (b *HTTPBackend) PatchMemo(ctx context.Context, bookmarkID, memo string) (types.Bookmark, error) {
	return api.PatchBookmarkMemo(ctx, b.HTTP, b.BaseURL, bookmarkID, memo)
}

// TokenSource reports the active session token; an empty token means no
// session.
type TokenSource interface {
	Token() string
}

// Toggle actions.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// ToggleResult reports what a toggle did.
type ToggleResult struct {
	Action   string
	Bookmark types.Bookmark
}

// Store holds the bookmark set, indexed by place id for O(1) membership.
type Store struct {
	backend Backend
	tokens  TokenSource
	log     zerolog.Logger

	mu    sync.Mutex
	items map[string]types.Bookmark // keyed by PlaceID

	newTempID func() string
}

// NewStore builds an empty store.
func NewStore(backend Backend, tokens TokenSource, log zerolog.Logger) *Store {
	return &Store{
		backend:   backend,
		tokens:    tokens,
		log:       log,
		items:     make(map[string]types.Bookmark),
		newTempID: func() string { return "local-" + uuid.NewString() },
	}
}

// IsBookmarked reports membership for placeID, counting unconfirmed
// optimistic entries.
func (s *Store) IsBookmarked(placeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[placeID]
	return ok
}

// List returns a copy of the current set, ordered by display name.
func (s *Store) List() []types.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Bookmark, 0, len(s.items))
	for _, b := range s.items {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out
}

// Get returns the bookmark for placeID, if present.
func (s *Store) Get(placeID string) (types.Bookmark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.items[placeID]
	return b, ok
}

// Toggle adds placeID when absent and removes it when present. The local
// set is updated before the server confirms; failures roll the set back
// and propagate so the UI can show an actionable message.
func (s *Store) Toggle(ctx context.Context, placeID, displayName string) (*ToggleResult, error) {
	if s.tokens == nil || s.tokens.Token() == "" {
		return nil, oerr.ErrLoginRequired
	}
	placeID, err := types.NormalizePlaceID(placeID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	existing, present := s.items[placeID]
	if !present {
		temp := types.Bookmark{
			ID:          s.newTempID(),
			Pending:     true,
			PlaceID:     placeID,
			DisplayName: displayName,
		}
		s.items[placeID] = temp
		s.mu.Unlock()
		return s.confirmAdd(ctx, temp)
	}
	delete(s.items, placeID)
	s.mu.Unlock()
	return s.confirmRemove(ctx, existing)
}

// confirmAdd replaces the optimistic record with the server's, or rolls it
// back.
func (s *Store) confirmAdd(ctx context.Context, temp types.Bookmark) (*ToggleResult, error) {
	confirmed, err := s.backend.Create(ctx, temp.PlaceID, temp.DisplayName)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if cur, ok := s.items[temp.PlaceID]; ok && cur.ID == temp.ID {
			delete(s.items, temp.PlaceID)
		}
		rollbacksTotal.Inc()
		s.log.Warn().Err(err).Str("place", temp.PlaceID).Msg("bookmark add rolled back")
		return nil, err
	}
	// The server's echoed place id is not trusted as the merge key; pin
	// it to the id the user acted on.
	confirmed.PlaceID = temp.PlaceID
	confirmed.Pending = false
	if confirmed.DisplayName == "" {
		confirmed.DisplayName = temp.DisplayName
	}
	// Install only while our optimistic record is still current; a
	// removal that raced the confirmation must not be resurrected.
	if cur, ok := s.items[temp.PlaceID]; ok && cur.ID == temp.ID {
		s.items[temp.PlaceID] = confirmed
	}
	return &ToggleResult{Action: ActionAdded, Bookmark: confirmed}, nil
}

// confirmRemove deletes server-side, restoring the record on failure.
// When the held id is itself temporary (an add whose confirmation hasn't
// landed yet), the authoritative list is consulted for the real id first.
func (s *Store) confirmRemove(ctx context.Context, removed types.Bookmark) (*ToggleResult, error) {
	err := s.deleteRemote(ctx, removed)
	if err != nil {
		s.mu.Lock()
		s.items[removed.PlaceID] = removed
		s.mu.Unlock()
		rollbacksTotal.Inc()
		s.log.Warn().Err(err).Str("place", removed.PlaceID).Msg("bookmark removal rolled back")
		return nil, err
	}
	// Removal succeeded; refresh the full list to close any gap the
	// temporary-id race may have left. A refresh failure is tolerable —
	// the delete itself is confirmed.
	if err := s.Refresh(ctx); err != nil {
		s.log.Debug().Err(err).Msg("post-removal refresh failed")
	}
	return &ToggleResult{Action: ActionRemoved, Bookmark: removed}, nil
}

func (s *Store) deleteRemote(ctx context.Context, removed types.Bookmark) error {
	id := removed.ID
	if removed.Pending || id == "" {
		list, err := s.backend.List(ctx)
		if err != nil {
			return err
		}
		id = ""
		for _, b := range list {
			if b.PlaceID == removed.PlaceID {
				id = b.ID
				break
			}
		}
		if id == "" {
			// The server never saw it; treat as already removed.
			return nil
		}
	}
	return s.backend.Delete(ctx, id)
}

// UpdateMemo patches the memo on the bookmark for placeID. A pending
// record is reconciled against the server first so the temporary id never
// reaches a path parameter.
func (s *Store) UpdateMemo(ctx context.Context, placeID, memo string) error {
	if s.tokens == nil || s.tokens.Token() == "" {
		return oerr.ErrLoginRequired
	}
	placeID, err := types.NormalizePlaceID(placeID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	b, ok := s.items[placeID]
	s.mu.Unlock()
	if !ok {
		return oerr.ErrNotFound
	}
	if b.Pending || b.ID == "" {
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		s.mu.Lock()
		b, ok = s.items[placeID]
		s.mu.Unlock()
		if !ok || b.Pending || b.ID == "" {
			return oerr.ErrNotFound
		}
	}
	updated, err := s.backend.PatchMemo(ctx, b.ID, memo)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[placeID]
	if !ok {
		return nil
	}
	cur.Memo = memo
	if updated.Memo != "" {
		cur.Memo = updated.Memo
	}
	s.items[placeID] = cur
	return nil
}

// Refresh replaces the set with the server's authoritative list. Pending
// optimistic entries the server does not know yet are preserved.
func (s *Store) Refresh(ctx context.Context) error {
	list, err := s.backend.List(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]types.Bookmark, len(list))
	for _, b := range list {
		next[b.PlaceID] = b
	}
	for placeID, b := range s.items {
		if b.Pending {
			if _, known := next[placeID]; !known {
				next[placeID] = b
			}
		}
	}
	s.items = next
	return nil
}
