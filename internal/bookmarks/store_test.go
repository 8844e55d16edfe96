package bookmarks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	oerr "github.com/opennow/opennow-go/internal/errors"
	"github.com/opennow/opennow-go/internal/types"
)

// staticTokens implements TokenSource.
type staticTokens string

func (s staticTokens) Token() string { return string(s) }

// fakeBackend records calls and serves scripted results.
type fakeBackend struct {
	list      []types.Bookmark
	listErr   error
	createErr error
	deleteErr error
	patchErr  error

	// created echoes the server's view of a create; when nil the request
	// is echoed back with a server id.
	created *types.Bookmark
	patched types.Bookmark

	// onCreate runs inside Create before it returns, simulating work that
	// races the confirmation.
	onCreate func()

	createCalls int
	deleteCalls int
	listCalls   int
	patchCalls  int
	deletedIDs  []string
}

func (b *fakeBackend) List(context.Context) ([]types.Bookmark, error) {
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	out := make([]types.Bookmark, len(b.list))
	copy(out, b.list)
	return out, nil
}

func (b *fakeBackend) Create(_ context.Context, placeID, displayName string) (types.Bookmark, error) {
	b.createCalls++
	if b.onCreate != nil {
		b.onCreate()
	}
	if b.createErr != nil {
		return types.Bookmark{}, b.createErr
	}
	if b.created != nil {
		return *b.created, nil
	}
	return types.Bookmark{ID: "srv-" + placeID, PlaceID: placeID, DisplayName: displayName}, nil
}

func (b *fakeBackend) Delete(_ context.Context, bookmarkID string) error {
	b.deleteCalls++
	b.deletedIDs = append(b.deletedIDs, bookmarkID)
	return b.deleteErr
}

func (b *fakeBackend) PatchMemo(_ context.Context, bookmarkID, memo string) (types.Bookmark, error) {
	b.patchCalls++
	if b.patchErr != nil {
		return types.Bookmark{}, b.patchErr
	}
	out := b.patched
	out.Memo = memo
	return out, nil
}

func newTestStore(b Backend, token string) *Store {
	return NewStore(b, staticTokens(token), zerolog.Nop())
}

func TestToggleRequiresLogin(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeBackend{}, "")
	if _, err := s.Toggle(context.Background(), "c1", "Cafe"); !errors.Is(err, oerr.ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
	if err := s.UpdateMemo(context.Background(), "c1", "m"); !errors.Is(err, oerr.ErrLoginRequired) {
		t.Fatalf("memo err = %v, want ErrLoginRequired", err)
	}
}

func TestToggleRejectsEmptyPlaceID(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeBackend{}, "tok")
	if _, err := s.Toggle(context.Background(), "   ", "Cafe"); !errors.Is(err, oerr.ErrPlaceIDRequired) {
		t.Fatalf("err = %v, want ErrPlaceIDRequired", err)
	}
}

func TestToggleAddConfirms(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	s := newTestStore(backend, "tok")

	res, err := s.Toggle(context.Background(), "c1", "Cafe One")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if res.Action != ActionAdded {
		t.Fatalf("action = %q", res.Action)
	}
	got, ok := s.Get("c1")
	if !ok {
		t.Fatal("bookmark missing after add")
	}
	if got.ID != "srv-c1" || got.Pending {
		t.Fatalf("confirmed record = %+v", got)
	}
	if !s.IsBookmarked("c1") {
		t.Fatal("IsBookmarked = false after add")
	}
}

func TestToggleAddPinsPlaceID(t *testing.T) {
	t.Parallel()
	// Server echoes a different place id spelling; the local key must stay
	// the id the user acted on.
	backend := &fakeBackend{created: &types.Bookmark{ID: "srv-9", PlaceID: "something-else"}}
	s := newTestStore(backend, "tok")

	if _, err := s.Toggle(context.Background(), "c1", "Cafe"); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get("c1")
	if !ok || got.PlaceID != "c1" {
		t.Fatalf("record = %+v, want PlaceID pinned to c1", got)
	}
	if got.DisplayName != "Cafe" {
		t.Fatalf("display name = %q, want local fallback", got.DisplayName)
	}
}

func TestToggleAddRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{createErr: errors.New("server rejected")}
	s := newTestStore(backend, "tok")

	if _, err := s.Toggle(context.Background(), "c1", "Cafe"); err == nil {
		t.Fatal("expected create failure to propagate")
	}
	if s.IsBookmarked("c1") {
		t.Fatal("optimistic add not rolled back")
	}
}

func TestConfirmationDoesNotResurrectRemovedBookmark(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	s := newTestStore(backend, "tok")

	// While the create confirmation is in flight, the optimistic record
	// is removed (the user toggled off again).
	backend.onCreate = func() {
		s.mu.Lock()
		delete(s.items, "c1")
		s.mu.Unlock()
	}

	res, err := s.Toggle(context.Background(), "c1", "Cafe")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if res.Action != ActionAdded {
		t.Fatalf("action = %q", res.Action)
	}
	if s.IsBookmarked("c1") {
		t.Fatal("confirmation landing after a removal must not resurrect the bookmark")
	}
}

func TestToggleRemoveConfirms(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	s := newTestStore(backend, "tok")
	ctx := context.Background()

	if _, err := s.Toggle(ctx, "c1", "Cafe"); err != nil {
		t.Fatal(err)
	}
	res, err := s.Toggle(ctx, "c1", "Cafe")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Action != ActionRemoved {
		t.Fatalf("action = %q", res.Action)
	}
	if s.IsBookmarked("c1") {
		t.Fatal("bookmark still present after remove")
	}
	if len(backend.deletedIDs) != 1 || backend.deletedIDs[0] != "srv-c1" {
		t.Fatalf("deleted ids = %v", backend.deletedIDs)
	}
}

func TestToggleRemoveRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	s := newTestStore(backend, "tok")
	ctx := context.Background()

	if _, err := s.Toggle(ctx, "c1", "Cafe"); err != nil {
		t.Fatal(err)
	}
	backend.deleteErr = errors.New("server down")
	if _, err := s.Toggle(ctx, "c1", "Cafe"); err == nil {
		t.Fatal("expected delete failure to propagate")
	}
	if !s.IsBookmarked("c1") {
		t.Fatal("removal not rolled back")
	}
}

func TestRemovePendingResolvesServerID(t *testing.T) {
	t.Parallel()
	// A pending record (temp id) is removed; the real id must come from
	// the authoritative list, never the temp id.
	backend := &fakeBackend{list: []types.Bookmark{{ID: "srv-7", PlaceID: "c1"}}}
	s := newTestStore(backend, "tok")
	s.mu.Lock()
	s.items["c1"] = types.Bookmark{ID: s.newTempID(), Pending: true, PlaceID: "c1"}
	s.mu.Unlock()

	res, err := s.Toggle(context.Background(), "c1", "")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Action != ActionRemoved {
		t.Fatalf("action = %q", res.Action)
	}
	for _, id := range backend.deletedIDs {
		if strings.HasPrefix(id, "local-") {
			t.Fatalf("temporary id %q sent as a path parameter", id)
		}
	}
	if len(backend.deletedIDs) != 1 || backend.deletedIDs[0] != "srv-7" {
		t.Fatalf("deleted ids = %v", backend.deletedIDs)
	}
}

func TestRemovePendingUnknownToServerIsNoop(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{} // server list is empty
	s := newTestStore(backend, "tok")
	s.mu.Lock()
	s.items["c1"] = types.Bookmark{ID: s.newTempID(), Pending: true, PlaceID: "c1"}
	s.mu.Unlock()

	res, err := s.Toggle(context.Background(), "c1", "")
	if err != nil {
		t.Fatalf("remove of a never-synced bookmark must succeed: %v", err)
	}
	if res.Action != ActionRemoved {
		t.Fatalf("action = %q", res.Action)
	}
	if backend.deleteCalls != 0 {
		t.Fatal("no delete should reach the server for an unsynced bookmark")
	}
	if s.IsBookmarked("c1") {
		t.Fatal("bookmark still present")
	}
}

func TestToggleAlternates(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeBackend{}, "tok")
	ctx := context.Background()

	want := []string{ActionAdded, ActionRemoved, ActionAdded, ActionRemoved}
	for i, action := range want {
		res, err := s.Toggle(ctx, "c1", "Cafe")
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if res.Action != action {
			t.Fatalf("toggle %d action = %q, want %q", i, res.Action, action)
		}
	}
}

func TestUpdateMemoUnknownPlace(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeBackend{}, "tok")
	if err := s.UpdateMemo(context.Background(), "c1", "memo"); !errors.Is(err, oerr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateMemoPatchesConfirmedRecord(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	s := newTestStore(backend, "tok")
	ctx := context.Background()

	if _, err := s.Toggle(ctx, "c1", "Cafe"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateMemo(ctx, "c1", "best espresso"); err != nil {
		t.Fatalf("memo: %v", err)
	}
	got, _ := s.Get("c1")
	if got.Memo != "best espresso" {
		t.Fatalf("memo = %q", got.Memo)
	}
}

func TestUpdateMemoPendingReconcilesFirst(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{list: []types.Bookmark{{ID: "srv-3", PlaceID: "c1", DisplayName: "Cafe"}}}
	s := newTestStore(backend, "tok")
	s.mu.Lock()
	temp := s.newTempID()
	s.items["c1"] = types.Bookmark{ID: temp, Pending: true, PlaceID: "c1"}
	s.mu.Unlock()

	if err := s.UpdateMemo(context.Background(), "c1", "note"); err != nil {
		t.Fatalf("memo: %v", err)
	}
	if backend.listCalls == 0 {
		t.Fatal("pending record should be reconciled against the server first")
	}
	got, _ := s.Get("c1")
	if got.ID != "srv-3" {
		t.Fatalf("record id = %q, want the reconciled server id", got.ID)
	}
	if got.Memo != "note" {
		t.Fatalf("memo = %q", got.Memo)
	}
}

func TestUpdateMemoPendingStillUnknownFails(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{} // reconciliation finds nothing
	s := newTestStore(backend, "tok")
	s.mu.Lock()
	s.items["c1"] = types.Bookmark{ID: s.newTempID(), Pending: true, PlaceID: "c1"}
	s.mu.Unlock()

	if err := s.UpdateMemo(context.Background(), "c1", "note"); !errors.Is(err, oerr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if backend.patchCalls != 0 {
		t.Fatal("patch must not be attempted without a server id")
	}
}

func TestRefreshReplacesButKeepsPending(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{list: []types.Bookmark{
		{ID: "srv-1", PlaceID: "c1", DisplayName: "Alpha"},
		{ID: "srv-2", PlaceID: "c2", DisplayName: "Beta"},
	}}
	s := newTestStore(backend, "tok")
	s.mu.Lock()
	s.items["c9"] = types.Bookmark{ID: s.newTempID(), Pending: true, PlaceID: "c9", DisplayName: "Gamma"}
	s.items["gone"] = types.Bookmark{ID: "srv-0", PlaceID: "gone"}
	s.mu.Unlock()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !s.IsBookmarked("c1") || !s.IsBookmarked("c2") {
		t.Fatal("server entries missing after refresh")
	}
	if !s.IsBookmarked("c9") {
		t.Fatal("pending optimistic entry dropped by refresh")
	}
	if s.IsBookmarked("gone") {
		t.Fatal("entry the server no longer knows should be dropped")
	}

	names := make([]string, 0)
	for _, b := range s.List() {
		names = append(names, b.DisplayName)
	}
	if len(names) != 3 || names[0] != "Alpha" || names[1] != "Beta" || names[2] != "Gamma" {
		t.Fatalf("list order = %v, want sorted by display name", names)
	}
}
