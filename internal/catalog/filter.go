package catalog

import (
	"strings"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

var excludedLanguages = map[string]struct{}{
	"hi": {}, "bn": {}, "ml": {}, "ta": {}, "te": {},
}

const excludedCountry = "IN"

// WesternCountries and WesternLanguages restrict discover listings.
var (
	WesternCountries = []string{"US", "GB", "FR", "DE", "ES", "IT", "NL", "SE", "DK", "NO"}
	WesternLanguages = []string{"en", "es", "fr", "de", "it"}
)

var (
	westernCountrySet  = toSet(WesternCountries)
	westernLanguageSet = toSet(WesternLanguages)
)

// Predicate keeps an item when it returns true.
type Predicate func(domain.MediaItem) bool

// IsValidContent requires artwork and a title, and rejects adult titles,
// excluded original languages and titles produced in an excluded country.
func IsValidContent(item domain.MediaItem) bool {
	if strings.TrimSpace(item.PosterPath) == "" || strings.TrimSpace(item.Title) == "" {
		return false
	}
	if item.Adult {
		return false
	}
	if _, excluded := excludedLanguages[strings.ToLower(item.OriginalLanguage)]; excluded {
		return false
	}
	for _, country := range item.ProductionCountries {
		if strings.EqualFold(country, excludedCountry) {
			return false
		}
	}
	return true
}

func HasPoster(item domain.MediaItem) bool {
	return strings.TrimSpace(item.PosterPath) != ""
}

// IsWesternMovie keeps movies produced in an allowlisted country. Movies
// without production countries fall back to their original language.
func IsWesternMovie(item domain.MediaItem) bool {
	if item.ProductionCountries != nil {
		for _, country := range item.ProductionCountries {
			if _, ok := westernCountrySet[strings.ToUpper(country)]; ok {
				return true
			}
		}
		return false
	}
	_, ok := westernLanguageSet[strings.ToLower(item.OriginalLanguage)]
	return ok
}

// IsWesternSeries keeps shows with a poster and an allowlisted origin country.
func IsWesternSeries(item domain.MediaItem) bool {
	if !HasPoster(item) {
		return false
	}
	for _, country := range item.OriginCountry {
		if _, ok := westernCountrySet[strings.ToUpper(country)]; ok {
			return true
		}
	}
	return false
}

// AnimeDetector classifies titles as anime.
type AnimeDetector interface {
	IsAnime(item domain.MediaItem) bool
}

// KeywordAnimeDetector matches case-insensitive keywords in the title.
type KeywordAnimeDetector struct {
	Keywords []string
}

var DefaultAnimeKeywords = []string{"anime", "animated series", "japanese animation"}

func NewKeywordAnimeDetector() KeywordAnimeDetector {
	return KeywordAnimeDetector{Keywords: DefaultAnimeKeywords}
}

func (d KeywordAnimeDetector) IsAnime(item domain.MediaItem) bool {
	title := strings.ToLower(item.Title)
	for _, keyword := range d.Keywords {
		if keyword != "" && strings.Contains(title, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// NotAnime turns a detector into a predicate that drops anime.
func NotAnime(detector AnimeDetector) Predicate {
	return func(item domain.MediaItem) bool {
		return !detector.IsAnime(item)
	}
}

// FilterItems applies predicates in order and returns the surviving items.
// The input slice is not modified.
func FilterItems(items []domain.MediaItem, preds ...Predicate) []domain.MediaItem {
	kept := make([]domain.MediaItem, 0, len(items))
next:
	for _, item := range items {
		for _, pred := range preds {
			if !pred(item) {
				continue next
			}
		}
		kept = append(kept, item)
	}
	return kept
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
