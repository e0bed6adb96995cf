package catalog

import (
	"context"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

// SeriesNetworks are the broadcaster and streaming network ids allowed in
// series listings.
var SeriesNetworks = []int{
	213, 1024, 2739, 49, 2552, 4330, 3186, 64, 44, 2, 359, 2668,
	318, 16, 80, 174, 453, 13, 40, 56, 65, 2597, 4,
}

const (
	classicsCutoff   = "2000-12-31"
	randomGenrePages = 10
)

// Classics lists highly rated movies released before 2001.
func (s *Service) Classics(ctx context.Context, page int) domain.Page {
	result := s.source.Discover(ctx, domain.DiscoverQuery{
		Kind:         domain.KindMovie,
		Page:         page,
		SortBy:       "vote_average.desc",
		MinVoteCount: 1000,
		ReleasedTo:   classicsCutoff,
	})
	result.Items = setKind(FilterItems(result.Items, IsValidContent), domain.KindMovie)
	return result
}

// DiscoverMovies lists popular theatrical releases in western languages.
func (s *Service) DiscoverMovies(ctx context.Context, page int) domain.Page {
	result := s.source.Discover(ctx, domain.DiscoverQuery{
		Kind:              domain.KindMovie,
		Page:              page,
		Language:          "en-US",
		SortBy:            "popularity.desc",
		WatchRegion:       "US",
		OriginalLanguages: WesternLanguages,
		ReleaseTypes:      []int{2, 3},
		MinVoteCount:      100,
	})
	result.Items = setKind(FilterItems(result.Items, IsWesternMovie), domain.KindMovie)
	return result
}

// DiscoverByGenre lists western movies of one genre. Page 0 picks a random
// page among the first ten so repeated calls vary.
func (s *Service) DiscoverByGenre(ctx context.Context, genreID, page int) domain.Page {
	if page < 1 {
		page = s.randomPage(randomGenrePages)
	}
	result := s.source.Discover(ctx, domain.DiscoverQuery{
		Kind:              domain.KindMovie,
		Page:              page,
		WatchRegion:       "US",
		OriginalLanguages: WesternLanguages,
		ReleaseTypes:      []int{2, 3},
		Genres:            []int{genreID},
		MinVoteCount:      100,
	})
	result.Items = setKind(FilterItems(result.Items, IsWesternMovie), domain.KindMovie)
	return result
}

// DiscoverTV lists popular western shows ranked by SeriesScore.
func (s *Service) DiscoverTV(ctx context.Context, page int) domain.Page {
	result := s.source.Discover(ctx, domain.DiscoverQuery{
		Kind:              domain.KindTV,
		Page:              page,
		Language:          "en-US",
		SortBy:            "popularity.desc",
		WatchRegion:       "US",
		OriginalLanguages: WesternLanguages,
		Networks:          SeriesNetworks,
		MinVoteCount:      100,
	})
	items := FilterItems(result.Items, IsWesternSeries, NotAnime(s.anime))
	result.Items = RankByScore(setKind(items, domain.KindTV), SeriesScore)
	return result
}

func (s *Service) DiscoverTVByGenre(ctx context.Context, genreID, page int) domain.Page {
	if page < 1 {
		page = 1
	}
	result := s.source.Discover(ctx, domain.DiscoverQuery{
		Kind:              domain.KindTV,
		Page:              page,
		WatchRegion:       "US",
		OriginalLanguages: WesternLanguages,
		Networks:          SeriesNetworks,
		Genres:            []int{genreID},
	})
	result.Items = setKind(FilterItems(result.Items, IsWesternSeries), domain.KindTV)
	return result
}

// TopSeries lists the twenty best English-language shows. Animation is
// dropped unless the show is pinned.
func (s *Service) TopSeries(ctx context.Context, page int) domain.Page {
	result := s.source.Discover(ctx, domain.DiscoverQuery{
		Kind:              domain.KindTV,
		Page:              page,
		SortBy:            "popularity.desc",
		OriginalLanguages: []string{"en"},
		Networks:          SeriesNetworks,
		MinVoteCount:      1000,
	})
	items := FilterItems(result.Items, IsValidContent, NotAnime(s.anime), func(item domain.MediaItem) bool {
		if IsTopSeriesPriority(item) {
			return true
		}
		return len(item.GenreIDs) > 0 && !item.HasGenre(domain.GenreAnimation)
	})
	result.Items = Head(RankByScore(setKind(items, domain.KindTV), TopSeriesScore), PageSize)
	return result
}

// BrowseCategory pages through the movie or tv discover listings, optionally
// narrowed to one genre. The page cursor is passed to the remote API.
func (s *Service) BrowseCategory(ctx context.Context, kind domain.MediaKind, genreID, page int) (domain.Page, error) {
	if page < 1 {
		page = 1
	}
	switch kind {
	case domain.KindMovie:
		if genreID > 0 {
			return s.DiscoverByGenre(ctx, genreID, page), nil
		}
		return s.DiscoverMovies(ctx, page), nil
	case domain.KindTV:
		if genreID > 0 {
			return s.DiscoverTVByGenre(ctx, genreID, page), nil
		}
		return s.DiscoverTV(ctx, page), nil
	default:
		return domain.Page{}, domain.ErrInvalidKind
	}
}
