package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "k", BaseURL: server.URL})
}

func TestTrendingNormalizesItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/all/day" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "k" || r.URL.Query().Get("page") != "2" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"page":2,"total_pages":7,"results":[
			{"id":10,"title":"Alpha","poster_path":"/a.jpg","media_type":"movie","genre_ids":[28],"release_date":"2001-02-03"},
			{"id":11,"name":"Beta","poster_path":"/b.jpg","media_type":"tv","first_air_date":"2010-01-01","origin_country":["US"]}
		]}`))
	})

	page := client.Trending(context.Background(), 2)
	if page.TotalPages != 7 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %#v", page)
	}
	first, second := page.Items[0], page.Items[1]
	if first.ID != "10" || first.Title != "Alpha" || first.Kind != domain.KindMovie || first.Year() != 2001 {
		t.Fatalf("unexpected first item: %#v", first)
	}
	if second.Title != "Beta" || second.Kind != domain.KindTV || second.ReleaseDate != "2010-01-01" {
		t.Fatalf("unexpected second item: %#v", second)
	}
}

func TestListFailureIsEmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	page := client.NowPlaying(context.Background(), 1)
	if len(page.Items) != 0 || page.TotalPages != 1 {
		t.Fatalf("expected empty page, got %#v", page)
	}
	if page.Items == nil {
		t.Fatal("expected non-nil empty items")
	}
}

func TestMalformedBodyIsEmptyPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":`))
	})
	page := client.Discover(context.Background(), domain.DiscoverQuery{Kind: domain.KindMovie})
	if len(page.Items) != 0 || page.TotalPages != 1 {
		t.Fatalf("expected empty page, got %#v", page)
	}
}

func TestMissingTotalPagesDefaultsToOne(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	if got := client.Trending(context.Background(), 1).TotalPages; got != 1 {
		t.Fatalf("expected 1 total page, got %d", got)
	}
}

func TestDiscoverParams(t *testing.T) {
	params := discoverParams(domain.DiscoverQuery{
		Kind:              domain.KindTV,
		Page:              3,
		SortBy:            "popularity.desc",
		OriginalLanguages: []string{"en", "fr"},
		Networks:          []int{213, 49},
		Genres:            []int{18},
		WithoutGenres:     []int{99},
		MinVoteCount:      100,
		MinVoteAverage:    7.5,
		ReleasedFrom:      "1990-01-01",
		ReleasedTo:        "1999-12-31",
	})
	checks := map[string]string{
		"page":                   "3",
		"sort_by":                "popularity.desc",
		"with_original_language": "en|fr",
		"with_networks":          "213|49",
		"with_genres":            "18",
		"without_genres":         "99",
		"vote_count.gte":         "100",
		"vote_average.gte":       "7.5",
		"first_air_date.gte":     "1990-01-01",
		"first_air_date.lte":     "1999-12-31",
		"include_adult":          "false",
	}
	for key, want := range checks {
		if got := params.Get(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
	if params.Has("with_release_type") || params.Has("first_air_date_year") {
		t.Fatalf("unexpected zero-value params: %v", params)
	}

	movie := discoverParams(domain.DiscoverQuery{Kind: domain.KindMovie, Year: 1994, ReleaseTypes: []int{2, 3}})
	if movie.Get("primary_release_year") != "1994" || movie.Get("with_release_type") != "2|3" {
		t.Fatalf("unexpected movie params: %v", movie)
	}
}

func TestSearchSendsIncludeAdultFalse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/person" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("include_adult") != "false" || r.URL.Query().Get("query") != "nolan" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[{"id":525,"name":"Christopher Nolan","profile_path":"/p.jpg","known_for_department":"Directing"}]}`))
	})
	page := client.Search(context.Background(), domain.KindPerson, " nolan ")
	if len(page.Items) != 1 {
		t.Fatalf("expected one person, got %#v", page.Items)
	}
	person := page.Items[0]
	if person.Kind != domain.KindPerson || person.PosterPath != "/p.jpg" || person.Title != "Christopher Nolan" {
		t.Fatalf("unexpected person item: %#v", person)
	}
}

func TestBlankSearchSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	page := client.Search(context.Background(), domain.KindMovie, "   ")
	if len(page.Items) != 0 || calls.Load() != 0 {
		t.Fatalf("expected no request, got %d calls", calls.Load())
	}
}

func TestCombinedCreditsDefaultsKind(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cast":[{"id":1,"title":"Film","poster_path":"/f.jpg"},{"id":2,"name":"Show","first_air_date":"2011-04-17"}],
			"crew":[{"id":3,"title":"Directed","job":"Director","media_type":"movie"}]}`))
	})
	credits, err := client.CombinedCredits(context.Background(), "42")
	if err != nil {
		t.Fatalf("CombinedCredits: %v", err)
	}
	if len(credits.Cast) != 2 || len(credits.Crew) != 1 {
		t.Fatalf("unexpected credits: %#v", credits)
	}
	if credits.Cast[0].Kind != domain.KindMovie || credits.Cast[1].Kind != domain.KindTV {
		t.Fatalf("unexpected kinds: %q %q", credits.Cast[0].Kind, credits.Cast[1].Kind)
	}
	if credits.Crew[0].Job != "Director" {
		t.Fatalf("expected job to be kept, got %#v", credits.Crew[0])
	}
}

func TestDetailsMapsGenresAndCredits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("append_to_response") != "credits" {
			t.Fatalf("expected credits to be appended, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"id":5,"title":"Doc","poster_path":"/d.jpg","genres":[{"id":99,"name":"Documentary"}],
			"production_countries":[{"iso_3166_1":"GB"}],"credits":{"cast":[{"id":7}],"crew":[{"id":8}]}}`))
	})
	details, err := client.Details(context.Background(), domain.KindMovie, "5", true)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if !details.IsDocumentary || len(details.GenreIDs) != 1 || details.GenreIDs[0] != 99 {
		t.Fatalf("unexpected genres: %#v", details)
	}
	if len(details.ProductionCountries) != 1 || details.ProductionCountries[0] != "GB" {
		t.Fatalf("unexpected countries: %v", details.ProductionCountries)
	}
	if len(details.CastIDs) != 1 || details.CastIDs[0] != "7" || details.CrewIDs[0] != "8" {
		t.Fatalf("unexpected credit ids: %v %v", details.CastIDs, details.CrewIDs)
	}
}

func TestDetailsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_code":34}`, http.StatusNotFound)
	})
	_, err := client.Details(context.Background(), domain.KindTV, "999", false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"name":"Someone","known_for_department":"Acting"}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "k",
		BaseURL: server.URL,
		Retry:   RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2},
	})
	person, err := client.Person(context.Background(), "1")
	if err != nil {
		t.Fatalf("Person: %v", err)
	}
	if person.Name != "Someone" || calls.Load() != 2 {
		t.Fatalf("unexpected result %#v after %d calls", person, calls.Load())
	}
}

func TestDefaultRetryMakesSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	if _, err := client.Person(context.Background(), "1"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one attempt, got %d", calls.Load())
	}
}

func TestDisabledClientFails(t *testing.T) {
	client := NewClient(Config{})
	if client.Enabled() {
		t.Fatal("client without key must be disabled")
	}
	if _, err := client.Person(context.Background(), "1"); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestCanonicalQueryDropsAPIKey(t *testing.T) {
	got := canonicalQuery(map[string][]string{"page": {"1"}, "api_key": {"secret"}, "query": {"x"}})
	if got != "page=1&query=x" {
		t.Fatalf("unexpected canonical query %q", got)
	}
}

func TestImageURL(t *testing.T) {
	client := NewClient(Config{})
	if got := client.ImageURL("/p.jpg", ""); got != "https://image.tmdb.org/t/p/w500/p.jpg" {
		t.Fatalf("unexpected image url %q", got)
	}
	if client.ImageURL("", "w300") != "" {
		t.Fatal("expected empty url for empty path")
	}
}
