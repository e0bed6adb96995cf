package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

func TestResultCacheFreshStaleExpired(t *testing.T) {
	cache := newResultCache("test", time.Minute, domain.CloneItems)
	now := time.Now()
	ctx := context.Background()

	cache.store(ctx, "k", []domain.MediaItem{{ID: "1"}}, now)

	items, ok, refresh := cache.lookup(ctx, "k", now.Add(30*time.Second))
	if !ok || refresh || len(items) != 1 {
		t.Fatalf("expected fresh hit, got ok=%v refresh=%v", ok, refresh)
	}

	_, ok, refresh = cache.lookup(ctx, "k", now.Add(2*time.Minute))
	if !ok || !refresh {
		t.Fatalf("expected stale hit with refresh, got ok=%v refresh=%v", ok, refresh)
	}
	_, ok, refresh = cache.lookup(ctx, "k", now.Add(2*time.Minute))
	if !ok || refresh {
		t.Fatalf("expected a single refresh per stale period, got refresh=%v", refresh)
	}

	cache.clearRefreshing("k")
	if _, _, refresh = cache.lookup(ctx, "k", now.Add(2*time.Minute)); !refresh {
		t.Fatal("expected refresh to be offered again after a failed refresh")
	}

	if _, ok, _ = cache.lookup(ctx, "k", now.Add(4*time.Minute)); ok {
		t.Fatal("expected miss after stale window")
	}
}

func TestResultCacheReturnsCopies(t *testing.T) {
	cache := newResultCache("test", time.Minute, domain.CloneItems)
	now := time.Now()
	cache.store(context.Background(), "k", []domain.MediaItem{{ID: "1", GenreIDs: []int{28}}}, now)

	items, _, _ := cache.lookup(context.Background(), "k", now)
	items[0].GenreIDs[0] = 99
	again, _, _ := cache.lookup(context.Background(), "k", now)
	if again[0].GenreIDs[0] != 28 {
		t.Fatal("cached value was mutated through a returned copy")
	}
}

func TestResultCacheTrimsOldest(t *testing.T) {
	cache := newResultCache("test", time.Minute, domain.CloneItems)
	cache.maxEntries = 2
	now := time.Now()
	ctx := context.Background()
	cache.store(ctx, "a", nil, now)
	cache.store(ctx, "b", nil, now.Add(time.Second))
	cache.store(ctx, "c", nil, now.Add(2*time.Second))

	if _, ok, _ := cache.lookup(ctx, "a", now.Add(2*time.Second)); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
	if _, ok, _ := cache.lookup(ctx, "c", now.Add(2*time.Second)); !ok {
		t.Fatal("expected newest entry to be kept")
	}
}

func TestClaimExpired(t *testing.T) {
	cache := newResultCache("test", time.Minute, domain.HomeResult.Clone)
	now := time.Now()
	if !cache.claimExpired("home", now) {
		t.Fatal("missing entry must be claimable")
	}
	cache.store(context.Background(), "home", domain.HomeResult{}, now)
	if cache.claimExpired("home", now.Add(time.Second)) {
		t.Fatal("fresh entry must not be claimed")
	}
	if !cache.claimExpired("home", now.Add(2*time.Minute)) {
		t.Fatal("expired entry must be claimed")
	}
	if cache.claimExpired("home", now.Add(2*time.Minute)) {
		t.Fatal("entry already being refreshed must not be claimed twice")
	}
}

func TestSearchCacheKey(t *testing.T) {
	cases := map[string]string{
		"  Amélie ":              "amelie",
		"AMELIE":                 "amelie",
		"The   Dark  Knight":     "the dark knight",
		"Léon: The Professional": "leon: the professional",
	}
	for raw, want := range cases {
		if got := searchCacheKey(raw); got != want {
			t.Fatalf("searchCacheKey(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestSearchIsCachedByFoldedQuery(t *testing.T) {
	source := &countingSearchSource{fakeSource: fakeSource{search: map[domain.MediaKind]domain.Page{
		domain.KindMovie: pageOf(validItem("1", "Amélie")),
	}}}
	svc := NewService(source)
	for _, q := range []string{"Amélie", "amelie", " AMELIE "} {
		items, err := svc.Search(context.Background(), q)
		if err != nil || len(items) != 1 {
			t.Fatalf("Search(%q) = %v, %v", q, items, err)
		}
	}
	if source.calls != 3 {
		t.Fatalf("expected one fan-out of three searches, got %d calls", source.calls)
	}
}

type countingSearchSource struct {
	fakeSource
	calls int
}

func (c *countingSearchSource) Search(ctx context.Context, kind domain.MediaKind, query string) domain.Page {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.fakeSource.Search(ctx, kind, query)
}
