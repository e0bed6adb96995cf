package catalog

import (
	"testing"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

func TestDeduperFirstWriterWins(t *testing.T) {
	d := NewDeduper()
	trending := []domain.MediaItem{validItem("1", "Dune"), validItem("2", "Heat")}
	topRated := []domain.MediaItem{validItem("2", "Heat"), validItem("3", "DUNE"), validItem("4", "Alien")}

	first := d.Filter(trending)
	second := d.Filter(topRated)
	if len(first) != 2 {
		t.Fatalf("expected first list intact, got %#v", first)
	}
	if len(second) != 1 || second[0].ID != "4" {
		t.Fatalf("expected only Alien to survive, got %#v", second)
	}
}

func TestDeduperFoldsUnicodeTitles(t *testing.T) {
	d := NewDeduper()
	if !d.Keep(validItem("1", "Am\u00e9lie")) {
		t.Fatal("first item must be kept")
	}
	// Decomposed e + combining acute, upper case.
	if d.Keep(validItem("2", "AME\u0301LIE")) {
		t.Fatal("expected folded title duplicate to be dropped")
	}
	if !d.Keep(validItem("3", "Amelie")) {
		t.Fatal("accent-free title is a different title")
	}
}

func TestDeduperEmptyTitleOnlyChecksID(t *testing.T) {
	d := NewDeduper()
	if !d.Keep(domain.MediaItem{ID: "1"}) || !d.Keep(domain.MediaItem{ID: "2"}) {
		t.Fatal("items without titles must not collide")
	}
	if d.Keep(domain.MediaItem{ID: "1"}) {
		t.Fatal("repeated id must be dropped")
	}
}

func TestDedupeByID(t *testing.T) {
	items := []domain.MediaItem{
		{ID: "1", Job: "Actor"},
		{ID: "2"},
		{ID: "1", Job: "Director"},
	}
	kept := DedupeByID(items)
	if len(kept) != 2 || kept[0].Job != "Actor" || kept[1].ID != "2" {
		t.Fatalf("unexpected dedupe result: %#v", kept)
	}
}
