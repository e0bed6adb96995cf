package domain

import (
	"strconv"
	"strings"
	"time"
)

type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindTV     MediaKind = "tv"
	KindPerson MediaKind = "person"
)

// ParseKind accepts "movie", "tv" and "person" in any case.
func ParseKind(raw string) (MediaKind, error) {
	switch MediaKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindMovie:
		return KindMovie, nil
	case KindTV:
		return KindTV, nil
	case KindPerson:
		return KindPerson, nil
	default:
		return "", ErrInvalidKind
	}
}

// MediaItem is one normalized record returned by the metadata API.
type MediaItem struct {
	ID                  string    `json:"id" bson:"id"`
	Title               string    `json:"title" bson:"title"`
	PosterPath          string    `json:"posterPath,omitempty" bson:"posterPath,omitempty"`
	Kind                MediaKind `json:"kind" bson:"kind"`
	Overview            string    `json:"overview,omitempty" bson:"overview,omitempty"`
	Popularity          float64   `json:"popularity,omitempty" bson:"popularity,omitempty"`
	VoteAverage         float64   `json:"voteAverage,omitempty" bson:"voteAverage,omitempty"`
	VoteCount           int       `json:"voteCount,omitempty" bson:"voteCount,omitempty"`
	GenreIDs            []int     `json:"genreIds,omitempty" bson:"genreIds,omitempty"`
	OriginCountry       []string  `json:"originCountry,omitempty" bson:"originCountry,omitempty"`
	ProductionCountries []string  `json:"productionCountries,omitempty" bson:"productionCountries,omitempty"`
	OriginalLanguage    string    `json:"originalLanguage,omitempty" bson:"originalLanguage,omitempty"`
	ReleaseDate         string    `json:"releaseDate,omitempty" bson:"releaseDate,omitempty"`
	Adult               bool      `json:"adult,omitempty" bson:"adult,omitempty"`
	Job                 string    `json:"job,omitempty" bson:"job,omitempty"`
	Character           string    `json:"character,omitempty" bson:"character,omitempty"`
	KnownForDepartment  string    `json:"knownForDepartment,omitempty" bson:"knownForDepartment,omitempty"`
	IsDirector          bool      `json:"isDirector,omitempty" bson:"isDirector,omitempty"`
	IsDocumentary       bool      `json:"isDocumentary,omitempty" bson:"isDocumentary,omitempty"`
	Score               float64   `json:"score,omitempty" bson:"score,omitempty"`
}

// Year returns the four-digit year of ReleaseDate, or 0 when absent.
func (m MediaItem) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

func (m MediaItem) HasGenre(id int) bool {
	for _, genre := range m.GenreIDs {
		if genre == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached slices can be handed out safely.
func (m MediaItem) Clone() MediaItem {
	cloned := m
	cloned.GenreIDs = append([]int(nil), m.GenreIDs...)
	cloned.OriginCountry = append([]string(nil), m.OriginCountry...)
	cloned.ProductionCountries = append([]string(nil), m.ProductionCountries...)
	return cloned
}

func CloneItems(items []MediaItem) []MediaItem {
	if items == nil {
		return nil
	}
	cloned := make([]MediaItem, len(items))
	for i, item := range items {
		cloned[i] = item.Clone()
	}
	return cloned
}

// Page is one page of fetched items. TotalPages is never below 1.
type Page struct {
	Items      []MediaItem `json:"items"`
	TotalPages int         `json:"totalPages"`
}

func EmptyPage() Page {
	return Page{Items: []MediaItem{}, TotalPages: 1}
}

// PersonCreditsPage accumulates the credits of one person across load-more calls.
type PersonCreditsPage struct {
	PersonID   string      `json:"personId"`
	Director   bool        `json:"director"`
	Items      []MediaItem `json:"items"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

func (p PersonCreditsPage) HasMore() bool {
	return p.PersonID != "" && p.Page < p.TotalPages
}

// Favorite is a MediaItem snapshot persisted by the favorites store.
type Favorite struct {
	MediaItem `bson:",inline"`
	AddedAt   time.Time `json:"addedAt" bson:"addedAt"`
}

// MediaDetails is the detail payload of a movie or show.
type MediaDetails struct {
	MediaItem
	Tagline          string   `json:"tagline,omitempty"`
	Runtime          int      `json:"runtime,omitempty"`
	BackdropPath     string   `json:"backdropPath,omitempty"`
	Genres           []Genre  `json:"genres,omitempty"`
	NumberOfSeasons  int      `json:"numberOfSeasons,omitempty"`
	NumberOfEpisodes int      `json:"numberOfEpisodes,omitempty"`
	Seasons          []Season `json:"seasons,omitempty"`
	CastIDs          []string `json:"castIds,omitempty"`
	CrewIDs          []string `json:"crewIds,omitempty"`
}

type Season struct {
	Number       int    `json:"number"`
	Name         string `json:"name,omitempty"`
	EpisodeCount int    `json:"episodeCount"`
}

type Person struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ProfilePath        string `json:"profilePath,omitempty"`
	KnownForDepartment string `json:"knownForDepartment,omitempty"`
	Biography          string `json:"biography,omitempty"`
}

// IsDirector reports whether the person is primarily known for directing.
func (p Person) IsDirector() bool {
	return p.KnownForDepartment == "Directing"
}
