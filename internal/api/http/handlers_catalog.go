package apihttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/themalagasywizard/IHUB-4.1/internal/catalog"
	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
)

type searchResponse struct {
	Query string             `json:"query"`
	Items []domain.MediaItem `json:"items"`
}

type favoritesResponse struct {
	Items []domain.Favorite `json:"items"`
	Added *bool             `json:"added,omitempty"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, err := s.catalog.LoadHome(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSpotlight(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	spotlight, err := s.catalog.RefreshSpotlight(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spotlight)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r, domain.KindMovie)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	genre, err := parseNonNegativeInt(r, "genre", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid genre")
		return
	}
	page, err := parseNonNegativeInt(r, "page", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	result, err := s.catalog.BrowseCategory(ctx, kind, genre, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r, domain.KindMovie)
	if err != nil || kind == domain.KindPerson {
		writeError(w, http.StatusBadRequest, "invalid_request", "kind must be movie or tv")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   kind,
		"genres": domain.GenresFor(kind),
	})
}

func (s *Server) handleMediaDetails(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", domain.ErrInvalidKind.Error())
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	details, err := s.catalog.MediaDetails(ctx, kind, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handlePersonCredits(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	result, err := s.catalog.PersonCredits(ctx, id, page)
	if err != nil {
		s.logger.Warn("person credits failed", slog.String("person", id), slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 500 characters)")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	items, err := s.catalog.Search(ctx, query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.MediaItem{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Items: items})
}

func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r, domain.KindMovie)
	if err != nil || kind == domain.KindPerson {
		writeError(w, http.StatusBadRequest, "invalid_request", "kind must be movie or tv")
		return
	}
	genre, err := parseNonNegativeInt(r, "genre", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid genre")
		return
	}
	rating, err := parseOptionalFloat(r, "rating", 0)
	if err != nil || rating < 0 || rating > 10 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid rating")
		return
	}
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}
	filters := catalog.AdvancedFilters{
		Year:   strings.TrimSpace(r.URL.Query().Get("year")),
		Genre:  genre,
		People: parseCSV(r.URL.Query().Get("people")),
		Rating: rating,
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	result, err := s.catalog.AdvancedSearch(ctx, filters, kind, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	list, err := s.favorites.Load(ctx)
	if err != nil {
		s.logger.Error("favorites load failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load favorites")
		return
	}
	writeJSON(w, http.StatusOK, favoritesResponse{Items: favorites.Clone(list)})
}

func (s *Server) handleFavoriteToggle(w http.ResponseWriter, r *http.Request) {
	var item domain.MediaItem
	if err := decodeJSONBody(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(item.ID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	next, added, err := s.favorites.Toggle(ctx, item, s.now())
	if err != nil {
		s.logger.Error("favorites toggle failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to save favorites")
		return
	}
	writeJSON(w, http.StatusOK, favoritesResponse{Items: next, Added: &added})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := pathKind(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", domain.ErrInvalidKind.Error())
		return
	}
	season, err := parseNonNegativeInt(r, "season", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid season")
		return
	}
	episode, err := parseNonNegativeInt(r, "episode", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid episode")
		return
	}

	plan, err := s.hosts.Plan(kind, id, season, episode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resolution := embed.Resolution{Plan: plan, URL: plan.PrimaryURL, Host: "primary"}
	if parseOptionalBool(r.URL.Query().Get("probe")) && s.player != nil {
		resolution, err = s.player.Resolve(r.Context(), plan)
		if err != nil {
			if errors.Is(err, embed.ErrUnavailable) {
				writeJSON(w, http.StatusBadGateway, map[string]any{
					"error": map[string]string{
						"code":    "embed_unavailable",
						"message": "Failed to load video. Please try again.",
					},
					"plan": plan,
				})
				return
			}
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resolution)
}
