package view

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/catalog"
	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
)

type fakeCatalog struct {
	mu        sync.Mutex
	home      domain.HomeResult
	details   map[string]domain.MediaDetails
	gates     map[string]chan struct{}
	credits   map[int]domain.PersonCreditsPage
	pageGates map[int]chan struct{}
	calls     []int
}

func (f *fakeCatalog) LoadHome(ctx context.Context) (domain.HomeResult, error) {
	return f.home, nil
}

func (f *fakeCatalog) RefreshSpotlight(ctx context.Context) (catalog.Spotlight, error) {
	return catalog.Spotlight{Genre: domain.Genre{ID: 35, Name: "Comedy"}, Items: []domain.MediaItem{item("c")}}, nil
}

func (f *fakeCatalog) MediaDetails(ctx context.Context, kind domain.MediaKind, id string) (domain.MediaDetails, error) {
	f.mu.Lock()
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	details, ok := f.details[id]
	if !ok {
		return domain.MediaDetails{}, domain.ErrNotFound
	}
	return details, nil
}

func (f *fakeCatalog) PersonCredits(ctx context.Context, personID string, page int) (domain.PersonCreditsPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	gate := f.pageGates[page]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	result, ok := f.credits[page]
	if !ok {
		return domain.PersonCreditsPage{}, errors.New("boom")
	}
	result.PersonID = personID
	return result, nil
}

type failingStore struct{ favorites.MemoryStore }

func (*failingStore) Save(ctx context.Context, list []domain.Favorite) error {
	return errors.New("disk full")
}

func newTestManager(t *testing.T, cat *fakeCatalog, opts ...ManagerOption) *Manager {
	t.Helper()
	return NewManager(Deps{Catalog: cat, Favorites: favorites.NewService(favorites.NewMemoryStore())}, opts...)
}

func TestControllerDiscardsSlowDetails(t *testing.T) {
	gate := make(chan struct{})
	cat := &fakeCatalog{
		details: map[string]domain.MediaDetails{
			"1": {MediaItem: item("1"), Tagline: "old"},
			"2": {MediaItem: item("2"), Tagline: "new"},
		},
		gates: map[string]chan struct{}{"1": gate},
	}
	session, _ := newTestManager(t, cat).Create(context.Background())

	done := make(chan error, 1)
	go func() { done <- session.SelectMedia(context.Background(), item("1")) }()

	// Wait until the first request owns the details slot.
	deadline := time.Now().Add(2 * time.Second)
	for session.State().Selected == nil {
		if time.Now().After(deadline) {
			t.Fatal("first selection never applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := session.SelectMedia(context.Background(), item("2")); err != nil {
		t.Fatalf("SelectMedia: %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("slow SelectMedia: %v", err)
	}

	state := session.State()
	if state.Selected == nil || state.Selected.ID != "2" || state.Details == nil || state.Details.Tagline != "new" {
		t.Fatalf("stale details won the race: %#v %#v", state.Selected, state.Details)
	}
}

func TestControllerDetailsFailureClosesView(t *testing.T) {
	session, _ := newTestManager(t, &fakeCatalog{}).Create(context.Background())
	err := session.SelectMedia(context.Background(), item("missing"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if session.State().Selected != nil {
		t.Fatal("failed details must clear the selection")
	}
}

func TestControllerPersonLoadMore(t *testing.T) {
	cat := &fakeCatalog{credits: map[int]domain.PersonCreditsPage{
		1: {Items: []domain.MediaItem{item("1")}, Page: 1, TotalPages: 2},
		2: {Items: []domain.MediaItem{item("2")}, Page: 2, TotalPages: 2},
	}}
	session, _ := newTestManager(t, cat).Create(context.Background())
	ctx := context.Background()

	if err := session.SelectPerson(ctx, "p1"); err != nil {
		t.Fatalf("SelectPerson: %v", err)
	}
	if err := session.LoadMorePerson(ctx); err != nil {
		t.Fatalf("LoadMorePerson: %v", err)
	}
	if err := session.LoadMorePerson(ctx); err != nil {
		t.Fatalf("LoadMorePerson at end: %v", err)
	}

	state := session.State()
	if len(state.Person.Items) != 2 || state.Person.Page != 2 {
		t.Fatalf("unexpected person page: %#v", state.Person)
	}
	if len(cat.calls) != 2 {
		t.Fatalf("expected no request past the last page, got calls %v", cat.calls)
	}
}

func TestControllerSelectMediaDropsPendingLoadMore(t *testing.T) {
	gate := make(chan struct{})
	cat := &fakeCatalog{
		credits: map[int]domain.PersonCreditsPage{
			1: {Items: []domain.MediaItem{item("1")}, Page: 1, TotalPages: 2},
			2: {Items: []domain.MediaItem{item("2")}, Page: 2, TotalPages: 2},
		},
		pageGates: map[int]chan struct{}{2: gate},
		details:   map[string]domain.MediaDetails{"9": {MediaItem: item("9")}},
	}
	session, _ := newTestManager(t, cat).Create(context.Background())
	ctx := context.Background()

	if err := session.SelectPerson(ctx, "p1"); err != nil {
		t.Fatalf("SelectPerson: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- session.LoadMorePerson(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		cat.mu.Lock()
		n := len(cat.calls)
		cat.mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("load more never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := session.SelectMedia(ctx, item("9")); err != nil {
		t.Fatalf("SelectMedia: %v", err)
	}
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("LoadMorePerson: %v", err)
	}

	state := session.State()
	if state.Person.PersonID != "" || len(state.Person.Items) != 0 {
		t.Fatalf("late credits page must be dropped after details open, got %#v", state.Person)
	}
	if state.Details == nil || state.Details.ID != "9" {
		t.Fatalf("expected details for 9, got %#v", state.Details)
	}
}

func TestControllerToggleFavoritePersists(t *testing.T) {
	store := favorites.NewMemoryStore()
	m := NewManager(Deps{Catalog: &fakeCatalog{}, Favorites: favorites.NewService(store)})
	session, _ := m.Create(context.Background())

	list, err := session.ToggleFavorite(context.Background(), item("1"))
	if err != nil || len(list) != 1 {
		t.Fatalf("ToggleFavorite: %v %#v", err, list)
	}
	saved, _ := store.Load(context.Background())
	if len(saved) != 1 || saved[0].ID != "1" {
		t.Fatalf("favorites not persisted: %#v", saved)
	}

	other, _ := m.Create(context.Background())
	if got := other.State().Favorites; len(got) != 1 {
		t.Fatalf("new session must load saved favorites, got %#v", got)
	}
}

func TestControllerToggleFavoriteSaveError(t *testing.T) {
	m := NewManager(Deps{Catalog: &fakeCatalog{}, Favorites: favorites.NewService(&failingStore{})})
	session, _ := m.Create(context.Background())
	if _, err := session.ToggleFavorite(context.Background(), item("1")); err == nil {
		t.Fatal("expected save error")
	}
	if got := session.State().Favorites; len(got) != 0 {
		t.Fatalf("failed save must leave favorites untouched, got %#v", got)
	}
}

func TestControllerToggleFavoriteSharedAcrossSessions(t *testing.T) {
	ctx := context.Background()
	store := favorites.NewMemoryStore()
	m := NewManager(Deps{Catalog: &fakeCatalog{}, Favorites: favorites.NewService(store)})
	first, _ := m.Create(ctx)
	second, _ := m.Create(ctx)

	if _, err := first.ToggleFavorite(ctx, item("1")); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	list, err := second.ToggleFavorite(ctx, item("2"))
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if len(list) != 2 || list[0].ID != "1" || list[1].ID != "2" {
		t.Fatalf("second session must see the first toggle, got %#v", list)
	}
	saved, _ := store.Load(ctx)
	if len(saved) != 2 {
		t.Fatalf("want 2 saved favorites, got %#v", saved)
	}
}

func TestControllerToggleFavoriteConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	store := favorites.NewMemoryStore()
	m := NewManager(Deps{Catalog: &fakeCatalog{}, Favorites: favorites.NewService(store)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		session, _ := m.Create(ctx)
		id := string(rune('a' + i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := session.ToggleFavorite(ctx, item(id)); err != nil {
				t.Errorf("toggle %s: %v", id, err)
			}
		}()
	}
	wg.Wait()

	saved, _ := store.Load(ctx)
	if len(saved) != 8 {
		t.Fatalf("want 8 saved favorites, got %d", len(saved))
	}
}

func TestControllerPlayWithoutProbe(t *testing.T) {
	session, _ := newTestManager(t, &fakeCatalog{}).Create(context.Background())
	res, err := session.Play(context.Background(), domain.KindTV, "42", 2, 3, false)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if res.URL != "https://vidsrc.to/embed/tv/42/2/3" || res.Host != "primary" {
		t.Fatalf("unexpected resolution %#v", res)
	}
	if state := session.State(); state.Playback == nil || state.Playback.Plan.Episode != 3 {
		t.Fatalf("playback not recorded: %#v", state.Playback)
	}
}

func TestControllerPlayProbeFailure(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	m := NewManager(Deps{
		Catalog: &fakeCatalog{},
		Player:  embed.NewProber(nil, time.Second, nil),
		Hosts:   embed.Hosts{Primary: down.URL, Fallback: down.URL},
	})
	session, _ := m.Create(context.Background())
	_, err := session.Play(context.Background(), domain.KindMovie, "1", 0, 0, true)
	if !errors.Is(err, embed.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	state := session.State()
	if state.Playback != nil || state.PlaybackError == "" {
		t.Fatalf("expected playback error, got %#v", state)
	}
}

func TestControllerExecute(t *testing.T) {
	cat := &fakeCatalog{home: domain.HomeResult{
		Categories:    domain.CategoryResultSet{domain.CategoryTrending: {item("1")}},
		SpotlightName: "Drama",
	}}
	session, _ := newTestManager(t, cat).Create(context.Background())
	ctx := context.Background()

	state, err := session.Execute(ctx, Command{Type: CommandLoadHome})
	if err != nil || state.SpotlightGenre != "Drama" {
		t.Fatalf("loadHome: %v %#v", err, state)
	}
	state, err = session.Execute(ctx, Command{Type: CommandRefreshSpotlight})
	if err != nil || state.SpotlightGenre != "Comedy" {
		t.Fatalf("refreshSpotlight: %v %q", err, state.SpotlightGenre)
	}
	state, _ = session.Execute(ctx, Command{Type: CommandShowFavorites, Show: true})
	if !state.ShowFavorites {
		t.Fatal("showFavorites not applied")
	}
	if _, err := session.Execute(ctx, Command{Type: "dance"}); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
	if _, err := session.Execute(ctx, Command{Type: CommandToggleFavorite}); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand for missing item, got %v", err)
	}
	if _, err := session.Execute(ctx, Command{Type: CommandPlay, Kind: "person", ID: "1"}); !errors.Is(err, domain.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestControllerPublishesStates(t *testing.T) {
	session, _ := newTestManager(t, &fakeCatalog{}).Create(context.Background())
	var got []State
	cancel := session.Subscribe(func(s State) { got = append(got, s) })
	session.ShowFavorites(true)
	cancel()
	session.ShowFavorites(false)
	if len(got) != 1 || !got[0].ShowFavorites {
		t.Fatalf("expected one published state, got %d", len(got))
	}
}
