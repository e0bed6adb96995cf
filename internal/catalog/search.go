package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

var searchKinds = []domain.MediaKind{domain.KindMovie, domain.KindTV, domain.KindPerson}

// Search runs movie, show and person searches concurrently and returns the
// hits with artwork: movies first, then shows, then people.
func (s *Service) Search(ctx context.Context, query string) ([]domain.MediaItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.MediaItem{}, nil
	}
	if s.cacheDisabled {
		items, _ := s.searchNoCache(ctx, query)
		return items, nil
	}
	items, _ := cachedLoad(ctx, s.search, searchCacheKey(query), s.loadTimeout, func(ctx context.Context) ([]domain.MediaItem, bool) {
		return s.searchNoCache(ctx, query)
	})
	return items, nil
}

func (s *Service) searchNoCache(ctx context.Context, query string) ([]domain.MediaItem, bool) {
	pages := make([]domain.Page, len(searchKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range searchKinds {
		g.Go(func() error {
			pages[i] = s.source.Search(gctx, kind, query)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("search failed", slog.String("query", query), slog.String("error", err.Error()))
		return []domain.MediaItem{}, false
	}

	results := make([]domain.MediaItem, 0)
	for i, kind := range searchKinds {
		items := FilterItems(pages[i].Items, HasPoster)
		results = append(results, setKind(items, kind)...)
	}
	return results, true
}

// AdvancedFilters narrows AdvancedSearch. Zero values disable a filter.
type AdvancedFilters struct {
	Year   string   `json:"year,omitempty"`
	Genre  int      `json:"genre,omitempty"`
	People []string `json:"people,omitempty"`
	Rating float64  `json:"rating,omitempty"`
}

type yearRange struct {
	from int
	to   int
}

func (r yearRange) set() bool { return r.from > 0 }

func (r yearRange) contains(year int) bool {
	return year >= r.from && year <= r.to
}

// parseYearRange accepts "YYYY" or "YYYY-YYYY".
func parseYearRange(raw string) (yearRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return yearRange{}, nil
	}
	fromRaw, toRaw, isRange := strings.Cut(raw, "-")
	if !isRange {
		toRaw = fromRaw
	}
	from, err := strconv.Atoi(strings.TrimSpace(fromRaw))
	if err != nil || from <= 0 {
		return yearRange{}, fmt.Errorf("%w: year %q", ErrInvalidQuery, raw)
	}
	to, err := strconv.Atoi(strings.TrimSpace(toRaw))
	if err != nil || to < from {
		return yearRange{}, fmt.Errorf("%w: year %q", ErrInvalidQuery, raw)
	}
	return yearRange{from: from, to: to}, nil
}

// AdvancedSearch filters by year, genre, people and minimum rating. With
// people it intersects their filmographies locally; otherwise it delegates to
// the discover listing and its page cursor. Upstream failures yield an empty
// page.
func (s *Service) AdvancedSearch(ctx context.Context, filters AdvancedFilters, kind domain.MediaKind, page int) (domain.Page, error) {
	if kind != domain.KindMovie && kind != domain.KindTV {
		return domain.Page{}, domain.ErrInvalidKind
	}
	years, err := parseYearRange(filters.Year)
	if err != nil {
		return domain.Page{}, err
	}
	if filters.Rating < 0 || filters.Genre < 0 {
		return domain.Page{}, fmt.Errorf("%w: negative filter", ErrInvalidQuery)
	}
	if page < 1 {
		page = 1
	}

	var result domain.Page
	if people := compactIDs(filters.People); len(people) > 0 {
		result, err = s.searchByPeople(ctx, filters, people, years, kind, page)
		if err != nil {
			s.logger.Warn("advanced search failed", slog.String("error", err.Error()))
			return domain.EmptyPage(), nil
		}
	} else {
		result = s.discoverAdvanced(ctx, filters, years, kind, page)
	}

	result.Items = FilterItems(result.Items, HasPoster)
	if filters.Rating > 0 {
		SortByField(result.Items, ByVoteAverage)
	} else {
		SortByField(result.Items, ByPopularity)
	}
	return result, nil
}

func (s *Service) discoverAdvanced(ctx context.Context, filters AdvancedFilters, years yearRange, kind domain.MediaKind, page int) domain.Page {
	query := domain.DiscoverQuery{
		Kind:              kind,
		Page:              page,
		Language:          "en-US",
		SortBy:            "popularity.desc",
		OriginalLanguages: WesternLanguages,
		MinVoteCount:      100,
		MinVoteAverage:    filters.Rating,
	}
	if filters.Genre != domain.GenreDocumentary {
		query.WithoutGenres = []int{domain.GenreDocumentary}
	}
	if filters.Genre > 0 {
		query.Genres = []int{filters.Genre}
	}
	if years.set() {
		if years.from != years.to {
			query.ReleasedFrom = fmt.Sprintf("%04d-01-01", years.from)
			query.ReleasedTo = fmt.Sprintf("%04d-12-31", years.to)
		} else {
			query.Year = years.from
		}
	}
	result := s.source.Discover(ctx, query)
	result.Items = setKind(result.Items, kind)
	return result
}

func (s *Service) searchByPeople(ctx context.Context, filters AdvancedFilters, people []string, years yearRange, kind domain.MediaKind, page int) (domain.Page, error) {
	filmographies := make([][]string, len(people))
	p := pool.New().WithMaxGoroutines(s.hydrationWorkers).WithContext(ctx).WithCancelOnError()
	for i, personID := range people {
		p.Go(func(ctx context.Context) error {
			credits, err := s.source.CombinedCredits(ctx, personID)
			if err != nil {
				return err
			}
			filmographies[i] = creditIDs(credits, kind)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return domain.Page{}, err
	}

	common := intersectIDs(filmographies)
	matches := make([]*domain.MediaDetails, len(common))
	dp := pool.New().WithMaxGoroutines(s.hydrationWorkers)
	for i, id := range common {
		dp.Go(func() {
			details, err := s.source.Details(ctx, kind, id, true)
			if err != nil {
				s.logger.Debug("advanced search details failed", slog.String("id", id), slog.String("error", err.Error()))
				return
			}
			if !involvesAll(details, people) {
				return
			}
			details.Kind = kind
			matches[i] = &details
		})
	}
	dp.Wait()

	items := make([]domain.MediaItem, 0, len(matches))
	for _, details := range matches {
		if details == nil {
			continue
		}
		item := details.MediaItem
		if !HasPoster(item) {
			continue
		}
		if filters.Genre != domain.GenreDocumentary && item.HasGenre(domain.GenreDocumentary) {
			continue
		}
		if years.set() {
			year := item.Year()
			if year == 0 || !years.contains(year) {
				continue
			}
		}
		if filters.Genre > 0 && !item.HasGenre(filters.Genre) {
			continue
		}
		if filters.Rating > 0 && item.VoteAverage < filters.Rating {
			continue
		}
		items = append(items, item)
	}
	SortByField(items, ByPopularity)
	return Paginate(items, page, PageSize), nil
}

// creditIDs lists the ids of one kind a person worked on, skipping
// uncredited appearances. Cast ids come first.
func creditIDs(credits domain.Credits, kind domain.MediaKind) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(credits.Cast)+len(credits.Crew))
	add := func(item domain.MediaItem) {
		if item.ID == "" || item.ID == "0" || item.Kind != kind {
			return
		}
		if _, ok := seen[item.ID]; ok {
			return
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}
	for _, credit := range credits.Cast {
		if strings.Contains(strings.ToLower(credit.Character), "uncredited") {
			continue
		}
		add(credit)
	}
	for _, credit := range credits.Crew {
		add(credit)
	}
	return ids
}

// intersectIDs keeps the ids of the first list present in every other list.
func intersectIDs(lists [][]string) []string {
	if len(lists) == 0 {
		return nil
	}
	sets := make([]map[string]struct{}, len(lists))
	for i, list := range lists {
		sets[i] = make(map[string]struct{}, len(list))
		for _, id := range list {
			sets[i][id] = struct{}{}
		}
	}
	common := make([]string, 0, len(lists[0]))
next:
	for _, id := range lists[0] {
		for _, set := range sets[1:] {
			if _, ok := set[id]; !ok {
				continue next
			}
		}
		common = append(common, id)
	}
	return common
}

func involvesAll(details domain.MediaDetails, people []string) bool {
	involved := make(map[string]struct{}, len(details.CastIDs)+len(details.CrewIDs))
	for _, id := range details.CastIDs {
		involved[id] = struct{}{}
	}
	for _, id := range details.CrewIDs {
		involved[id] = struct{}{}
	}
	for _, person := range people {
		if _, ok := involved[person]; !ok {
			return false
		}
	}
	return true
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
