package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/themalagasywizard/IHUB-4.1/internal/catalog"
	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
	"github.com/themalagasywizard/IHUB-4.1/internal/view"
)

type CatalogService interface {
	LoadHome(ctx context.Context) (domain.HomeResult, error)
	RefreshSpotlight(ctx context.Context) (catalog.Spotlight, error)
	BrowseCategory(ctx context.Context, kind domain.MediaKind, genreID, page int) (domain.Page, error)
	MediaDetails(ctx context.Context, kind domain.MediaKind, id string) (domain.MediaDetails, error)
	PersonCredits(ctx context.Context, personID string, page int) (domain.PersonCreditsPage, error)
	Search(ctx context.Context, query string) ([]domain.MediaItem, error)
	AdvancedSearch(ctx context.Context, filters catalog.AdvancedFilters, kind domain.MediaKind, page int) (domain.Page, error)
}

type ImageResolver interface {
	ImageURL(path, size string) string
}

type Server struct {
	catalog   CatalogService
	favorites *favorites.Service
	player    view.Player
	hosts     embed.Hosts
	sessions  *view.Manager
	images    ImageResolver
	imageHTTP *http.Client
	hub       *wsHub
	logger    *slog.Logger

	corsOrigins    []string
	rateRPS        float64
	rateBurst      int
	requestTimeout time.Duration

	now func() time.Time
}

const (
	maxQueryLength        = 500
	defaultRequestTimeout = 15 * time.Second
)

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithFavorites(service *favorites.Service) ServerOption {
	return func(s *Server) {
		s.favorites = service
	}
}

func WithPlayer(player view.Player) ServerOption {
	return func(s *Server) {
		s.player = player
	}
}

func WithEmbedHosts(hosts embed.Hosts) ServerOption {
	return func(s *Server) {
		s.hosts = hosts
	}
}

// WithSessions enables the session API. The server attaches its WebSocket
// hub to the manager as publisher.
func WithSessions(manager *view.Manager) ServerOption {
	return func(s *Server) {
		s.sessions = manager
	}
}

// WithImages enables the poster proxy. client may be nil.
func WithImages(resolver ImageResolver, client *http.Client) ServerOption {
	return func(s *Server) {
		s.images = resolver
		s.imageHTTP = client
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func WithRequestTimeout(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.requestTimeout = timeout
	}
}

func NewServer(catalogService CatalogService, options ...ServerOption) *Server {
	server := &Server{
		catalog:        catalogService,
		logger:         slog.Default(),
		hosts:          embed.DefaultHosts(),
		rateRPS:        50,
		rateBurst:      100,
		requestTimeout: defaultRequestTimeout,
		now:            time.Now,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	if server.favorites == nil {
		server.favorites = favorites.NewService(favorites.NewMemoryStore())
	}
	if server.imageHTTP == nil {
		server.imageHTTP = newImageProxyClient()
	}
	server.hub = newWSHub(server.logger)
	go server.hub.run()
	if server.sessions != nil {
		server.sessions.SetPublisher(server.hub)
	}
	return server
}

// Close disconnects every WebSocket client.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/home", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/home/spotlight", s.handleSpotlight).Methods(http.MethodPost)
	r.HandleFunc("/browse", s.handleBrowse).Methods(http.MethodGet)
	r.HandleFunc("/genres", s.handleGenres).Methods(http.MethodGet)
	r.HandleFunc("/media/{kind}/{id}", s.handleMediaDetails).Methods(http.MethodGet)
	r.HandleFunc("/people/{id}/credits", s.handlePersonCredits).Methods(http.MethodGet)
	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/search/advanced", s.handleAdvancedSearch).Methods(http.MethodGet)
	r.HandleFunc("/favorites", s.handleFavorites).Methods(http.MethodGet)
	r.HandleFunc("/favorites/toggle", s.handleFavoriteToggle).Methods(http.MethodPost)
	r.HandleFunc("/play/{kind}/{id}", s.handlePlay).Methods(http.MethodGet)
	r.HandleFunc("/image", s.handleImageProxy).Methods(http.MethodGet)

	r.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/actions", s.handleSessionAction).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/ws", s.handleSessionWS).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	r.Use(metricsMiddleware)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, r), "discovery",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, corsMiddleware(s.corsOrigins, rateLimitMiddleware(s.rateRPS, s.rateBurst, traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// requestContext bounds a handler's upstream work by the request timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

func pathKind(r *http.Request) (domain.MediaKind, string, bool) {
	vars := mux.Vars(r)
	kind, err := domain.ParseKind(vars["kind"])
	if err != nil {
		return "", "", false
	}
	return kind, strings.TrimSpace(vars["id"]), true
}
