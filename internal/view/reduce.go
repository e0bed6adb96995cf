package view

import (
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/catalog"
	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
)

// Action is one state transition. Actions that deliver the result of an
// async request carry the token handed out by Begin.
type Action interface {
	apply(State) State
}

type tokened interface {
	token() Token
}

// Reduce applies action to s. Results whose token is no longer current
// leave the state unchanged.
func Reduce(s State, action Action) State {
	if action == nil {
		return s
	}
	if t, ok := action.(tokened); ok && !s.Accepts(t.token()) {
		return s
	}
	return action.apply(s)
}

// Stale reports whether Reduce would discard action.
func Stale(s State, action Action) bool {
	t, ok := action.(tokened)
	return ok && !s.Accepts(t.token())
}

type HomeLoaded struct {
	Token  Token
	Result domain.HomeResult
}

func (a HomeLoaded) token() Token { return a.Token }

func (a HomeLoaded) apply(s State) State {
	result := a.Result.Clone()
	s.Categories = result.Categories
	if s.Categories == nil {
		s.Categories = domain.CategoryResultSet{}
	}
	s.SpotlightGenre = result.SpotlightName
	return s
}

// SpotlightReplaced swaps only the genre carousel.
type SpotlightReplaced struct {
	Token     Token
	Spotlight catalog.Spotlight
}

func (a SpotlightReplaced) token() Token { return a.Token }

func (a SpotlightReplaced) apply(s State) State {
	categories := make(domain.CategoryResultSet, len(s.Categories)+1)
	for id, items := range s.Categories {
		categories[id] = items
	}
	categories[domain.CategoryGenreSpotlight] = domain.CloneItems(a.Spotlight.Items)
	s.Categories = categories
	s.SpotlightGenre = a.Spotlight.Genre.Name
	return s
}

// MediaSelected opens the detail view for Item while details load. Person
// browsing returns to idle.
type MediaSelected struct {
	Token Token
	Item  domain.MediaItem
}

func (a MediaSelected) token() Token { return a.Token }

func (a MediaSelected) apply(s State) State {
	item := a.Item.Clone()
	s.Selected = &item
	s.Details = nil
	s.Person = domain.PersonCreditsPage{Items: []domain.MediaItem{}}
	return s
}

type DetailsLoaded struct {
	Token   Token
	Details domain.MediaDetails
}

func (a DetailsLoaded) token() Token { return a.Token }

func (a DetailsLoaded) apply(s State) State {
	details := a.Details
	s.Details = &details
	return s
}

// DetailsFailed closes the detail view.
type DetailsFailed struct {
	Token Token
}

func (a DetailsFailed) token() Token { return a.Token }

func (a DetailsFailed) apply(s State) State {
	s.Selected = nil
	s.Details = nil
	return s
}

type SelectionCleared struct{}

func (SelectionCleared) apply(s State) State {
	s.Selected = nil
	s.Details = nil
	return s
}

// PersonSelected closes any open detail view and starts a fresh credits list.
type PersonSelected struct {
	Token    Token
	PersonID string
}

func (a PersonSelected) token() Token { return a.Token }

func (a PersonSelected) apply(s State) State {
	s.Selected = nil
	s.Details = nil
	s.Person = domain.PersonCreditsPage{PersonID: a.PersonID, Items: []domain.MediaItem{}}
	return s
}

type PersonCreditsLoaded struct {
	Token Token
	Page  domain.PersonCreditsPage
}

func (a PersonCreditsLoaded) token() Token { return a.Token }

func (a PersonCreditsLoaded) apply(s State) State {
	page := a.Page
	page.Items = domain.CloneItems(page.Items)
	if page.Items == nil {
		page.Items = []domain.MediaItem{}
	}
	s.Person = page
	s.ShowFavorites = false
	return s
}

// PersonMoreLoaded appends the next page of the current person's credits.
// Pages for another person or out of sequence are ignored.
type PersonMoreLoaded struct {
	Token Token
	Page  domain.PersonCreditsPage
}

func (a PersonMoreLoaded) token() Token { return a.Token }

func (a PersonMoreLoaded) apply(s State) State {
	if a.Page.PersonID != s.Person.PersonID || a.Page.Page != s.Person.Page+1 {
		return s
	}
	items := make([]domain.MediaItem, 0, len(s.Person.Items)+len(a.Page.Items))
	items = append(items, s.Person.Items...)
	items = append(items, domain.CloneItems(a.Page.Items)...)
	s.Person = domain.PersonCreditsPage{
		PersonID:   s.Person.PersonID,
		Director:   a.Page.Director,
		Items:      items,
		Page:       a.Page.Page,
		TotalPages: a.Page.TotalPages,
	}
	return s
}

type FavoritesLoaded struct {
	Favorites []domain.Favorite
}

func (a FavoritesLoaded) apply(s State) State {
	s.Favorites = favorites.Clone(a.Favorites)
	return s
}

// FavoriteToggled adds Item to favorites, or removes it when its id is
// already present.
type FavoriteToggled struct {
	Item domain.MediaItem
	At   time.Time
}

func (a FavoriteToggled) apply(s State) State {
	s.Favorites, _ = favorites.Toggle(s.Favorites, a.Item, a.At)
	return s
}

type ShowFavorites struct {
	Show bool
}

func (a ShowFavorites) apply(s State) State {
	s.ShowFavorites = a.Show
	return s
}

// PlaybackStarted closes the detail view and opens the player.
type PlaybackStarted struct {
	Token      Token
	Resolution embed.Resolution
}

func (a PlaybackStarted) token() Token { return a.Token }

func (a PlaybackStarted) apply(s State) State {
	resolution := a.Resolution
	s.Selected = nil
	s.Details = nil
	s.Playback = &resolution
	s.PlaybackError = ""
	return s
}

type PlaybackFailed struct {
	Token   Token
	Message string
}

func (a PlaybackFailed) token() Token { return a.Token }

func (a PlaybackFailed) apply(s State) State {
	s.Playback = nil
	s.PlaybackError = a.Message
	return s
}

type PlaybackStopped struct{}

func (PlaybackStopped) apply(s State) State {
	s.Playback = nil
	s.PlaybackError = ""
	return s
}

// Reset returns to an empty screen. Generations advance so that every
// request still in flight is discarded.
type Reset struct{}

func (Reset) apply(s State) State {
	next := NewState()
	next.Generations = s.Generations
	next.Generations.bumpAll()
	next.Favorites = s.Favorites
	return next
}
