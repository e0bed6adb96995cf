package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

// ScoreFunc assigns a ranking score to an item.
type ScoreFunc func(domain.MediaItem) float64

var priorityGenres = []int{domain.GenreAction, domain.GenreAdventure, domain.GenreDrama, domain.GenreComedy}

// TopSeriesPriority lists shows pinned to the top of the top-series carousel.
var TopSeriesPriority = []string{
	"Game of Thrones",
	"Breaking Bad",
	"The Office",
	"Friends",
	"Stranger Things",
	"The Walking Dead",
	"The Crown",
	"Better Call Saul",
	"The Mandalorian",
	"The Last of Us",
	"House of the Dragon",
	"True Detective",
	"Chernobyl",
	"The Boys",
	"The Witcher",
}

// SeriesPriority extends TopSeriesPriority for the popular series listing.
var SeriesPriority = append(append([]string(nil), TopSeriesPriority...),
	"Succession",
	"The White Lotus",
	"Fargo",
	"Black Mirror",
	"Westworld",
)

// ContentScore ranks actor credits: movies first, favored genres up,
// documentaries down, then popularity and rating.
func ContentScore(item domain.MediaItem) float64 {
	score := 0.0
	if item.Kind == domain.KindMovie {
		score += 1000
	}
	for _, genre := range priorityGenres {
		if item.HasGenre(genre) {
			score += 100
		}
	}
	if item.HasGenre(domain.GenreDocumentary) {
		score -= 500
	}
	score += item.Popularity
	score += item.VoteAverage * 10
	return score
}

// DirectorScore ranks a director's filmography: directed titles first.
func DirectorScore(item domain.MediaItem) float64 {
	score := 0.0
	if item.IsDirector {
		score += 10000
	}
	if item.Kind == domain.KindMovie {
		score += 1000
	}
	if item.IsDocumentary {
		score -= 5000
	}
	score += item.VoteAverage * 10
	score += item.Popularity
	if item.Year() >= 1990 {
		score += 100
	}
	return score
}

// SeriesScore ranks the popular series listing.
func SeriesScore(item domain.MediaItem) float64 {
	score := item.Popularity
	if matchesAny(item.Title, SeriesPriority) {
		score += 10000
	}
	score += item.VoteAverage * 100
	score += math.Min(float64(item.VoteCount)/100, 100)
	if item.HasGenre(domain.GenreNews) || item.HasGenre(domain.GenreTalk) {
		score -= 5000
	}
	return score
}

func TopSeriesScore(item domain.MediaItem) float64 {
	if IsTopSeriesPriority(item) {
		return 1000 + item.Popularity
	}
	return item.Popularity
}

func IsTopSeriesPriority(item domain.MediaItem) bool {
	return matchesAny(item.Title, TopSeriesPriority)
}

func matchesAny(title string, candidates []string) bool {
	title = strings.ToLower(title)
	if title == "" {
		return false
	}
	for _, candidate := range candidates {
		if strings.Contains(title, strings.ToLower(candidate)) {
			return true
		}
	}
	return false
}

// RankByScore stores fn's score on every item and sorts by it descending.
// Equal scores fall back to ascending numeric id, then lexical id.
func RankByScore(items []domain.MediaItem, fn ScoreFunc) []domain.MediaItem {
	ranked := make([]domain.MediaItem, len(items))
	for i, item := range items {
		item.Score = fn(item)
		ranked[i] = item
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return compareRanked(ranked[i], ranked[j], func(m domain.MediaItem) float64 { return m.Score }) < 0
	})
	return ranked
}

// SortByField orders items by key descending with the same tie-break as
// RankByScore. Score is left untouched.
func SortByField(items []domain.MediaItem, key ScoreFunc) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareRanked(items[i], items[j], key) < 0
	})
}

func ByPopularity(item domain.MediaItem) float64  { return item.Popularity }
func ByVoteAverage(item domain.MediaItem) float64 { return item.VoteAverage }

// compareRanked returns a negative value when left ranks before right.
func compareRanked(left, right domain.MediaItem, key ScoreFunc) int {
	if l, r := key(left), key(right); l != r {
		if l > r {
			return -1
		}
		return 1
	}
	return compareIDs(left.ID, right.ID)
}

func compareIDs(left, right string) int {
	leftNum, leftErr := strconv.ParseInt(left, 10, 64)
	rightNum, rightErr := strconv.ParseInt(right, 10, 64)
	switch {
	case leftErr == nil && rightErr == nil:
		switch {
		case leftNum < rightNum:
			return -1
		case leftNum > rightNum:
			return 1
		}
	case leftErr == nil:
		return -1
	case rightErr == nil:
		return 1
	}
	return strings.Compare(left, right)
}
