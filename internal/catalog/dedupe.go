package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

// Deduper remembers ids and folded titles across several lists. The first
// item to claim an id or title wins. Not safe for concurrent use.
type Deduper struct {
	ids    map[string]struct{}
	titles map[string]struct{}
	folder cases.Caser
}

func NewDeduper() *Deduper {
	return &Deduper{
		ids:    make(map[string]struct{}),
		titles: make(map[string]struct{}),
		folder: cases.Fold(),
	}
}

// Keep reports whether item is new and records its id and title.
func (d *Deduper) Keep(item domain.MediaItem) bool {
	title := d.foldTitle(item.Title)
	if _, seen := d.ids[item.ID]; seen {
		return false
	}
	if title != "" {
		if _, seen := d.titles[title]; seen {
			return false
		}
	}
	d.ids[item.ID] = struct{}{}
	if title != "" {
		d.titles[title] = struct{}{}
	}
	return true
}

func (d *Deduper) Filter(items []domain.MediaItem) []domain.MediaItem {
	return FilterItems(items, d.Keep)
}

func (d *Deduper) foldTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return d.folder.String(norm.NFC.String(title))
}

// DedupeByID keeps the first occurrence of every id.
func DedupeByID(items []domain.MediaItem) []domain.MediaItem {
	seen := make(map[string]struct{}, len(items))
	kept := make([]domain.MediaItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		kept = append(kept, item)
	}
	return kept
}
