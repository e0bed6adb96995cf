package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
)

// PersonCredits returns one page of a person's ranked filmography. People
// known for directing get their directed movies first.
func (s *Service) PersonCredits(ctx context.Context, personID string, page int) (domain.PersonCreditsPage, error) {
	if page < 1 {
		page = 1
	}
	person, err := s.source.Person(ctx, personID)
	if err != nil {
		return domain.PersonCreditsPage{}, fmt.Errorf("load person: %w", err)
	}

	var result domain.Page
	if person.IsDirector() {
		result = s.DirectorCredits(ctx, personID, page)
	} else {
		result = s.ActorCredits(ctx, personID, page)
	}
	return domain.PersonCreditsPage{
		PersonID:   personID,
		Director:   person.IsDirector(),
		Items:      result.Items,
		Page:       page,
		TotalPages: result.TotalPages,
	}, nil
}

// ActorCredits merges cast and crew credits, keeps valid non-anime titles and
// ranks them by ContentScore.
func (s *Service) ActorCredits(ctx context.Context, personID string, page int) domain.Page {
	credits, err := s.source.CombinedCredits(ctx, personID)
	if err != nil {
		s.logger.Warn("person credits failed", slog.String("person", personID), slog.String("error", err.Error()))
		return domain.EmptyPage()
	}

	merged := make([]domain.MediaItem, 0, len(credits.Cast)+len(credits.Crew))
	merged = append(merged, credits.Cast...)
	merged = append(merged, credits.Crew...)
	unique := defaultCreditKind(DedupeByID(merged))

	items := s.filterCredits(unique)
	return Paginate(RankByScore(items, ContentScore), page, PageSize)
}

// DirectorCredits puts directed movies first, adds the remaining credits that
// have artwork, hydrates every title with its details and ranks by
// DirectorScore.
func (s *Service) DirectorCredits(ctx context.Context, personID string, page int) domain.Page {
	credits, err := s.source.CombinedCredits(ctx, personID)
	if err != nil {
		s.logger.Warn("director credits failed", slog.String("person", personID), slog.String("error", err.Error()))
		return domain.EmptyPage()
	}

	seen := make(map[string]struct{})
	ordered := make([]domain.MediaItem, 0, len(credits.Crew)+len(credits.Cast))
	for _, credit := range credits.Crew {
		if credit.Job != "Director" || credit.Kind != domain.KindMovie {
			continue
		}
		if _, ok := seen[credit.ID]; ok {
			continue
		}
		seen[credit.ID] = struct{}{}
		credit.IsDirector = true
		ordered = append(ordered, credit)
	}
	others := append(append([]domain.MediaItem(nil), credits.Cast...), credits.Crew...)
	for _, credit := range defaultCreditKind(others) {
		if _, ok := seen[credit.ID]; ok || !HasPoster(credit) {
			continue
		}
		seen[credit.ID] = struct{}{}
		credit.IsDirector = false
		ordered = append(ordered, credit)
	}

	hydrated := s.hydrate(ctx, ordered)
	items := s.filterCredits(hydrated)
	return Paginate(RankByScore(items, DirectorScore), page, PageSize)
}

// hydrate replaces list fields with the detail payload of every item. Items
// whose details fail to load are kept as they are.
func (s *Service) hydrate(ctx context.Context, items []domain.MediaItem) []domain.MediaItem {
	out := make([]domain.MediaItem, len(items))
	copy(out, items)

	p := pool.New().WithMaxGoroutines(s.hydrationWorkers)
	for i := range out {
		p.Go(func() {
			details, err := s.source.Details(ctx, out[i].Kind, out[i].ID, false)
			if err != nil {
				s.logger.Debug("credit hydration failed",
					slog.String("id", out[i].ID),
					slog.String("error", err.Error()),
				)
				return
			}
			out[i] = mergeDetails(out[i], details)
		})
	}
	p.Wait()
	return out
}

func mergeDetails(item domain.MediaItem, details domain.MediaDetails) domain.MediaItem {
	if details.Title != "" {
		item.Title = details.Title
	}
	if details.PosterPath != "" {
		item.PosterPath = details.PosterPath
	}
	if details.ReleaseDate != "" {
		item.ReleaseDate = details.ReleaseDate
	}
	if details.Overview != "" {
		item.Overview = details.Overview
	}
	if details.OriginalLanguage != "" {
		item.OriginalLanguage = details.OriginalLanguage
	}
	item.Popularity = details.Popularity
	item.VoteAverage = details.VoteAverage
	item.VoteCount = details.VoteCount
	item.Adult = details.Adult
	item.ProductionCountries = details.ProductionCountries
	item.GenreIDs = append([]int{}, details.GenreIDs...)
	item.IsDocumentary = details.HasGenre(domain.GenreDocumentary)
	return item
}

func (s *Service) filterCredits(items []domain.MediaItem) []domain.MediaItem {
	valid := FilterItems(items, IsValidContent)
	kept := FilterItems(valid, NotAnime(s.anime))
	metrics.PipelineItemsDropped.WithLabelValues("invalid").Add(float64(len(items) - len(valid)))
	metrics.PipelineItemsDropped.WithLabelValues("anime").Add(float64(len(valid) - len(kept)))
	return kept
}

// defaultCreditKind treats credits without a kind as movies.
func defaultCreditKind(items []domain.MediaItem) []domain.MediaItem {
	for i := range items {
		if items[i].Kind == "" {
			items[i].Kind = domain.KindMovie
		}
	}
	return items
}
