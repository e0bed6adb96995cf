package domain

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := map[string]MediaKind{
		"movie":  KindMovie,
		" TV ":   KindTV,
		"Person": KindPerson,
	}
	for raw, want := range cases {
		got, err := ParseKind(raw)
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseKind(%q) = %q, want %q", raw, got, want)
		}
	}
	if _, err := ParseKind("episode"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestMediaItemYear(t *testing.T) {
	if got := (MediaItem{ReleaseDate: "1994-09-23"}).Year(); got != 1994 {
		t.Fatalf("expected 1994, got %d", got)
	}
	if got := (MediaItem{ReleaseDate: "19"}).Year(); got != 0 {
		t.Fatalf("expected 0 for short date, got %d", got)
	}
	if got := (MediaItem{}).Year(); got != 0 {
		t.Fatalf("expected 0 for empty date, got %d", got)
	}
}

func TestCloneDetachesSlices(t *testing.T) {
	original := MediaItem{ID: "1", GenreIDs: []int{28}, OriginCountry: []string{"US"}}
	cloned := original.Clone()
	cloned.GenreIDs[0] = 99
	cloned.OriginCountry[0] = "GB"
	if original.GenreIDs[0] != 28 || original.OriginCountry[0] != "US" {
		t.Fatalf("clone shares backing arrays with original: %#v", original)
	}
}

func TestPersonCreditsPageHasMore(t *testing.T) {
	if (PersonCreditsPage{}).HasMore() {
		t.Fatal("idle page must not report more")
	}
	page := PersonCreditsPage{PersonID: "7", Page: 1, TotalPages: 3}
	if !page.HasMore() {
		t.Fatal("expected more pages")
	}
	page.Page = 3
	if page.HasMore() {
		t.Fatal("expected no more pages on last page")
	}
}

func TestGenresForSortedAndComplete(t *testing.T) {
	movies := GenresFor(KindMovie)
	if len(movies) != len(MovieGenres) {
		t.Fatalf("expected %d movie genres, got %d", len(MovieGenres), len(movies))
	}
	for i := 1; i < len(movies); i++ {
		if movies[i-1].ID >= movies[i].ID {
			t.Fatalf("genres not sorted at %d: %v", i, movies)
		}
	}
	if len(GenresFor(KindTV)) != len(SeriesGenres) {
		t.Fatal("tv genre table size mismatch")
	}
}
