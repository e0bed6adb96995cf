package tmdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func kindPath(kind domain.MediaKind) (string, error) {
	switch kind {
	case domain.KindMovie, domain.KindTV:
		return string(kind), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidKind, kind)
	}
}

// Trending lists the daily trending movies, shows and people.
func (c *Client) Trending(ctx context.Context, page int) domain.Page {
	return c.listPage(ctx, "trending", "/trending/all/day", pageParams(page), "")
}

func (c *Client) TopRated(ctx context.Context, kind domain.MediaKind, page int) domain.Page {
	path, err := kindPath(kind)
	if err != nil {
		c.logger.Warn("tmdb top rated rejected", slog.String("error", err.Error()))
		return domain.EmptyPage()
	}
	params := pageParams(page)
	params.Set("vote_count.gte", "1000")
	return c.listPage(ctx, "top_rated", "/"+path+"/top_rated", params, kind)
}

func (c *Client) NowPlaying(ctx context.Context, page int) domain.Page {
	return c.listPage(ctx, "now_playing", "/movie/now_playing", pageParams(page), domain.KindMovie)
}

// Discover runs a discover listing for movies or shows.
func (c *Client) Discover(ctx context.Context, q domain.DiscoverQuery) domain.Page {
	path, err := kindPath(q.Kind)
	if err != nil {
		c.logger.Warn("tmdb discover rejected", slog.String("error", err.Error()))
		return domain.EmptyPage()
	}
	return c.listPage(ctx, "discover_"+path, "/discover/"+path, discoverParams(q), q.Kind)
}

func discoverParams(q domain.DiscoverQuery) url.Values {
	params := pageParams(q.Page)
	setIf := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	setIf("language", q.Language)
	setIf("sort_by", q.SortBy)
	setIf("watch_region", q.WatchRegion)
	setIf("with_original_language", strings.Join(q.OriginalLanguages, "|"))
	setIf("with_release_type", joinInts(q.ReleaseTypes, "|"))
	setIf("with_networks", joinInts(q.Networks, "|"))
	setIf("with_genres", joinInts(q.Genres, ","))
	setIf("without_genres", joinInts(q.WithoutGenres, ","))
	if q.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	}
	if q.MinVoteAverage > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(q.MinVoteAverage, 'f', -1, 64))
	}
	if q.IncludeAdult {
		params.Set("include_adult", "true")
	} else {
		params.Set("include_adult", "false")
	}

	dateKey, yearKey := "primary_release_date", "primary_release_year"
	if q.Kind == domain.KindTV {
		dateKey, yearKey = "first_air_date", "first_air_date_year"
	}
	setIf(dateKey+".gte", q.ReleasedFrom)
	setIf(dateKey+".lte", q.ReleasedTo)
	if q.Year > 0 {
		params.Set(yearKey, strconv.Itoa(q.Year))
	}
	return params
}

func joinInts(values []int, sep string) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}

// Search runs a title or person search. Adult results are always excluded.
func (c *Client) Search(ctx context.Context, kind domain.MediaKind, query string) domain.Page {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.EmptyPage()
	}
	switch kind {
	case domain.KindMovie, domain.KindTV, domain.KindPerson:
	default:
		c.logger.Warn("tmdb search rejected", slog.String("kind", string(kind)))
		return domain.EmptyPage()
	}
	params := url.Values{
		"query":         {query},
		"include_adult": {"false"},
	}
	return c.listPage(ctx, "search_"+string(kind), "/search/"+string(kind), params, kind)
}

func (c *Client) Person(ctx context.Context, id string) (domain.Person, error) {
	var response personResponse
	if err := c.getJSON(ctx, "person", "/person/"+url.PathEscape(id), nil, &response); err != nil {
		return domain.Person{}, fmt.Errorf("person %s: %w", id, err)
	}
	return domain.Person{
		ID:                 strconv.Itoa(response.ID),
		Name:               response.Name,
		ProfilePath:        response.ProfilePath,
		KnownForDepartment: response.KnownForDepartment,
		Biography:          response.Biography,
	}, nil
}

// CombinedCredits returns the raw movie and tv credits of a person.
func (c *Client) CombinedCredits(ctx context.Context, id string) (domain.Credits, error) {
	var response creditsResponse
	if err := c.getJSON(ctx, "combined_credits", "/person/"+url.PathEscape(id)+"/combined_credits", nil, &response); err != nil {
		return domain.Credits{}, fmt.Errorf("credits of person %s: %w", id, err)
	}
	credits := domain.Credits{
		Cast: make([]domain.MediaItem, 0, len(response.Cast)),
		Crew: make([]domain.MediaItem, 0, len(response.Crew)),
	}
	for _, raw := range response.Cast {
		credits.Cast = append(credits.Cast, raw.normalize(""))
	}
	for _, raw := range response.Crew {
		credits.Crew = append(credits.Crew, raw.normalize(""))
	}
	return credits, nil
}

// Details fetches a movie or show. withCredits appends cast and crew ids.
func (c *Client) Details(ctx context.Context, kind domain.MediaKind, id string, withCredits bool) (domain.MediaDetails, error) {
	path, err := kindPath(kind)
	if err != nil {
		return domain.MediaDetails{}, err
	}
	var params url.Values
	if withCredits {
		params = url.Values{"append_to_response": {"credits"}}
	}
	var response detailsResponse
	if err := c.getJSON(ctx, path+"_details", "/"+path+"/"+url.PathEscape(id), params, &response); err != nil {
		return domain.MediaDetails{}, fmt.Errorf("%s %s details: %w", kind, id, err)
	}
	return response.toDomain(kind), nil
}
