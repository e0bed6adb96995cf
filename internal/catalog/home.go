package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
)

// Spotlight is one pick of the genre spotlight carousel.
type Spotlight struct {
	Genre domain.Genre       `json:"genre"`
	Items []domain.MediaItem `json:"items"`
}

// LoadHome builds every home carousel. Categories load one after another and
// share one Deduper, so a title shown in an earlier carousel is skipped in
// later ones. A cached home still gets a freshly picked spotlight genre.
func (s *Service) LoadHome(ctx context.Context) (domain.HomeResult, error) {
	if s.cacheDisabled {
		result, _ := s.loadHome(ctx)
		return result, ctx.Err()
	}
	result, hit := cachedLoad(ctx, s.home, homeCacheKey, s.loadTimeout, s.loadHome)
	if hit {
		result = s.repickSpotlight(ctx, result)
	}
	return result, ctx.Err()
}

// repickSpotlight replaces the spotlight carousel of a cached home. The new
// items are deduplicated against every other carousel.
func (s *Service) repickSpotlight(ctx context.Context, cached domain.HomeResult) domain.HomeResult {
	result := cached.Clone()
	if result.Categories == nil {
		result.Categories = make(domain.CategoryResultSet, len(domain.HomeCategories))
	}
	deduper := NewDeduper()
	for id, items := range result.Categories {
		if id != domain.CategoryGenreSpotlight {
			deduper.Filter(items)
		}
	}
	genre := s.pickGenre()
	items := deduper.Filter(s.DiscoverByGenre(ctx, genre.ID, 0).Items)
	if ctx.Err() != nil {
		return cached
	}
	result.Categories[domain.CategoryGenreSpotlight] = Head(items, PageSize)
	result.SpotlightID = genre.ID
	result.SpotlightName = genre.Name
	return result
}

// loadHome reports false when the load was cut short by ctx and should not
// be cached.
func (s *Service) loadHome(ctx context.Context) (domain.HomeResult, bool) {
	startedAt := time.Now()
	deduper := NewDeduper()
	result := domain.HomeResult{Categories: make(domain.CategoryResultSet, len(domain.HomeCategories))}

	for _, category := range domain.HomeCategories {
		fetched := s.fetchCategory(ctx, category.ID, &result)
		unique := deduper.Filter(fetched)
		if dropped := len(fetched) - len(unique); dropped > 0 {
			metrics.PipelineItemsDropped.WithLabelValues("duplicate").Add(float64(dropped))
		}
		result.Categories[category.ID] = Head(unique, PageSize)
	}

	s.logger.Debug("home loaded",
		slog.String("spotlight", result.SpotlightName),
		slog.Duration("elapsed", time.Since(startedAt)),
	)
	return result, ctx.Err() == nil
}

func (s *Service) fetchCategory(ctx context.Context, id domain.CategoryID, result *domain.HomeResult) []domain.MediaItem {
	switch id {
	case domain.CategoryTrending:
		items := FilterItems(s.source.Trending(ctx, 1).Items, IsValidContent)
		return defaultKind(items, domain.KindMovie)
	case domain.CategoryTopRated:
		items := FilterItems(s.source.TopRated(ctx, domain.KindMovie, 1).Items, IsValidContent)
		return setKind(items, domain.KindMovie)
	case domain.CategoryInCinema:
		items := FilterItems(s.source.NowPlaying(ctx, 1).Items, IsValidContent)
		return setKind(items, domain.KindMovie)
	case domain.CategoryGenreSpotlight:
		genre := s.pickGenre()
		result.SpotlightID = genre.ID
		result.SpotlightName = genre.Name
		return s.DiscoverByGenre(ctx, genre.ID, 0).Items
	case domain.CategoryClassics:
		return s.Classics(ctx, 1).Items
	case domain.CategoryTopSeries:
		return s.TopSeries(ctx, 1).Items
	default:
		return []domain.MediaItem{}
	}
}

// RefreshSpotlight picks a new random genre for the spotlight carousel. The
// result is not deduplicated against the other carousels.
func (s *Service) RefreshSpotlight(ctx context.Context) (Spotlight, error) {
	genre := s.pickGenre()
	items := s.DiscoverByGenre(ctx, genre.ID, 0).Items
	return Spotlight{Genre: genre, Items: Head(items, PageSize)}, ctx.Err()
}

func (s *Service) pickGenre() domain.Genre {
	genres := domain.GenresFor(domain.KindMovie)
	return genres[s.intn(len(genres))]
}
