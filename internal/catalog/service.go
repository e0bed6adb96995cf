package catalog

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

var ErrInvalidQuery = errors.New("invalid search query")

const (
	defaultHydrationWorkers = 8
	defaultLoadTimeout      = 30 * time.Second
	homeCacheKey            = "home"
)

// Source is the metadata API as seen by the catalog. List calls never fail:
// errors surface as an empty page with one total page.
type Source interface {
	Trending(ctx context.Context, page int) domain.Page
	TopRated(ctx context.Context, kind domain.MediaKind, page int) domain.Page
	NowPlaying(ctx context.Context, page int) domain.Page
	Discover(ctx context.Context, query domain.DiscoverQuery) domain.Page
	Search(ctx context.Context, kind domain.MediaKind, query string) domain.Page
	Person(ctx context.Context, id string) (domain.Person, error)
	CombinedCredits(ctx context.Context, id string) (domain.Credits, error)
	Details(ctx context.Context, kind domain.MediaKind, id string, withCredits bool) (domain.MediaDetails, error)
}

type Service struct {
	source           Source
	logger           *slog.Logger
	anime            AnimeDetector
	intn             func(n int) int
	hydrationWorkers int
	loadTimeout      time.Duration
	cacheDisabled    bool
	home             *resultCache[domain.HomeResult]
	search           *resultCache[[]domain.MediaItem]
	warmInterval     time.Duration
	warmerRun        atomic.Bool
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnimeDetector replaces the keyword detector.
func WithAnimeDetector(detector AnimeDetector) ServiceOption {
	return func(s *Service) {
		if detector != nil {
			s.anime = detector
		}
	}
}

// WithRandom sets the source of random genre and page picks. intn must
// return a value in [0, n).
func WithRandom(intn func(n int) int) ServiceOption {
	return func(s *Service) {
		if intn != nil {
			s.intn = intn
		}
	}
}

func WithHydrationWorkers(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.hydrationWorkers = n
		}
	}
}

func WithHomeCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.home.setTTL(ttl)
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) {
		s.home.redis = backend
		s.search.redis = backend
	}
}

func NewService(source Source, opts ...ServiceOption) *Service {
	svc := &Service{
		source:           source,
		logger:           slog.Default(),
		anime:            NewKeywordAnimeDetector(),
		intn:             rand.IntN,
		hydrationWorkers: defaultHydrationWorkers,
		loadTimeout:      defaultLoadTimeout,
		home:             newResultCache("home", defaultHomeTTL, domain.HomeResult.Clone),
		search:           newResultCache("search", defaultSearchTTL, domain.CloneItems),
		warmInterval:     defaultWarmInterval,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// StartBackground keeps the home snapshot warm until ctx is done.
func (s *Service) StartBackground(ctx context.Context) {
	if s.cacheDisabled {
		return
	}
	if s.warmerRun.CompareAndSwap(false, true) {
		go s.runWarmer(ctx)
	}
}

func (s *Service) runWarmer(ctx context.Context) {
	ticker := time.NewTicker(s.warmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.warmHome(ctx)
		}
	}
}

func (s *Service) warmHome(ctx context.Context) {
	if !s.home.claimExpired(homeCacheKey, time.Now()) {
		return
	}
	refreshCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	result, ok := s.loadHome(refreshCtx)
	if !ok {
		s.home.clearRefreshing(homeCacheKey)
		return
	}
	s.home.store(refreshCtx, homeCacheKey, result, time.Now())
	s.logger.Debug("home snapshot warmed")
}

// MediaDetails fetches the detail payload of a movie or show.
func (s *Service) MediaDetails(ctx context.Context, kind domain.MediaKind, id string) (domain.MediaDetails, error) {
	if kind != domain.KindMovie && kind != domain.KindTV {
		return domain.MediaDetails{}, domain.ErrInvalidKind
	}
	details, err := s.source.Details(ctx, kind, id, false)
	if err != nil {
		s.logger.Warn("media details failed",
			slog.String("kind", string(kind)),
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return domain.MediaDetails{}, err
	}
	details.Kind = kind
	return details, nil
}

func (s *Service) randomPage(max int) int {
	return s.intn(max) + 1
}

func setKind(items []domain.MediaItem, kind domain.MediaKind) []domain.MediaItem {
	for i := range items {
		items[i].Kind = kind
	}
	return items
}

func defaultKind(items []domain.MediaItem, kind domain.MediaKind) []domain.MediaItem {
	for i := range items {
		if items[i].Kind == "" {
			items[i].Kind = kind
		}
	}
	return items
}
