package tmdb

import (
	"strconv"
	"strings"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

type listResponse struct {
	Page       int       `json:"page"`
	Results    []rawItem `json:"results"`
	TotalPages int       `json:"total_pages"`
}

type country struct {
	ISO31661 string `json:"iso_3166_1"`
}

type rawItem struct {
	ID                  int       `json:"id"`
	Title               string    `json:"title"`
	Name                string    `json:"name"`
	Overview            string    `json:"overview"`
	PosterPath          string    `json:"poster_path"`
	ProfilePath         string    `json:"profile_path"`
	MediaType           string    `json:"media_type"`
	Adult               bool      `json:"adult"`
	OriginalLanguage    string    `json:"original_language"`
	Popularity          float64   `json:"popularity"`
	VoteAverage         float64   `json:"vote_average"`
	VoteCount           int       `json:"vote_count"`
	GenreIDs            []int     `json:"genre_ids"`
	OriginCountry       []string  `json:"origin_country"`
	ProductionCountries []country `json:"production_countries"`
	ReleaseDate         string    `json:"release_date"`
	FirstAirDate        string    `json:"first_air_date"`
	Job                 string    `json:"job"`
	Character           string    `json:"character"`
	KnownForDepartment  string    `json:"known_for_department"`
}

// normalize converts an upstream record. The kind comes from media_type when
// present, otherwise defaultKind, otherwise first_air_date implies tv.
func (r rawItem) normalize(defaultKind domain.MediaKind) domain.MediaItem {
	kind := domain.MediaKind(strings.ToLower(strings.TrimSpace(r.MediaType)))
	if kind != domain.KindMovie && kind != domain.KindTV && kind != domain.KindPerson {
		kind = defaultKind
	}
	if kind == "" {
		kind = domain.KindMovie
		if r.FirstAirDate != "" {
			kind = domain.KindTV
		}
	}

	title := r.Title
	if title == "" {
		title = r.Name
	}
	poster := r.PosterPath
	if poster == "" && kind == domain.KindPerson {
		poster = r.ProfilePath
	}
	releaseDate := r.ReleaseDate
	if releaseDate == "" {
		releaseDate = r.FirstAirDate
	}

	item := domain.MediaItem{
		ID:                 strconv.Itoa(r.ID),
		Title:              title,
		PosterPath:         poster,
		Kind:               kind,
		Overview:           r.Overview,
		Popularity:         r.Popularity,
		VoteAverage:        r.VoteAverage,
		VoteCount:          r.VoteCount,
		OriginalLanguage:   r.OriginalLanguage,
		ReleaseDate:        releaseDate,
		Adult:              r.Adult,
		Job:                r.Job,
		Character:          r.Character,
		KnownForDepartment: r.KnownForDepartment,
	}
	if len(r.GenreIDs) > 0 {
		item.GenreIDs = append([]int(nil), r.GenreIDs...)
	}
	if len(r.OriginCountry) > 0 {
		item.OriginCountry = append([]string(nil), r.OriginCountry...)
	}
	item.ProductionCountries = countryCodes(r.ProductionCountries)
	return item
}

func countryCodes(countries []country) []string {
	if len(countries) == 0 {
		return nil
	}
	codes := make([]string, 0, len(countries))
	for _, c := range countries {
		if c.ISO31661 != "" {
			codes = append(codes, c.ISO31661)
		}
	}
	return codes
}

type creditsResponse struct {
	Cast []rawItem `json:"cast"`
	Crew []rawItem `json:"crew"`
}

type personResponse struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	ProfilePath        string `json:"profile_path"`
	KnownForDepartment string `json:"known_for_department"`
	Biography          string `json:"biography"`
}

type genreResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type seasonResponse struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
}

type detailsResponse struct {
	rawItem
	Tagline          string           `json:"tagline"`
	Runtime          int              `json:"runtime"`
	BackdropPath     string           `json:"backdrop_path"`
	Genres           []genreResponse  `json:"genres"`
	NumberOfSeasons  int              `json:"number_of_seasons"`
	NumberOfEpisodes int              `json:"number_of_episodes"`
	Seasons          []seasonResponse `json:"seasons"`
	Credits          *creditsResponse `json:"credits"`
}

func (d detailsResponse) toDomain(kind domain.MediaKind) domain.MediaDetails {
	item := d.rawItem.normalize(kind)
	item.Kind = kind
	details := domain.MediaDetails{
		MediaItem:        item,
		Tagline:          d.Tagline,
		Runtime:          d.Runtime,
		BackdropPath:     d.BackdropPath,
		NumberOfSeasons:  d.NumberOfSeasons,
		NumberOfEpisodes: d.NumberOfEpisodes,
	}
	if len(d.Genres) > 0 {
		details.Genres = make([]domain.Genre, 0, len(d.Genres))
		details.GenreIDs = make([]int, 0, len(d.Genres))
		for _, g := range d.Genres {
			details.Genres = append(details.Genres, domain.Genre{ID: g.ID, Name: g.Name})
			details.GenreIDs = append(details.GenreIDs, g.ID)
		}
		details.IsDocumentary = details.HasGenre(domain.GenreDocumentary)
	}
	for _, s := range d.Seasons {
		details.Seasons = append(details.Seasons, domain.Season{
			Number:       s.SeasonNumber,
			Name:         s.Name,
			EpisodeCount: s.EpisodeCount,
		})
	}
	if d.Credits != nil {
		for _, c := range d.Credits.Cast {
			details.CastIDs = append(details.CastIDs, strconv.Itoa(c.ID))
		}
		for _, c := range d.Credits.Crew {
			details.CrewIDs = append(details.CrewIDs, strconv.Itoa(c.ID))
		}
	}
	return details
}
