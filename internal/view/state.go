package view

import (
	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
)

// Slot names one independently loaded part of the screen. Each slot has its
// own generation counter.
type Slot int

const (
	SlotHome Slot = iota
	SlotSpotlight
	SlotDetails
	SlotPerson
	SlotPlayback
)

func (s Slot) String() string {
	switch s {
	case SlotHome:
		return "home"
	case SlotSpotlight:
		return "spotlight"
	case SlotDetails:
		return "details"
	case SlotPerson:
		return "person"
	case SlotPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

type Generations struct {
	Home      uint64 `json:"home"`
	Spotlight uint64 `json:"spotlight"`
	Details   uint64 `json:"details"`
	Person    uint64 `json:"person"`
	Playback  uint64 `json:"playback"`
}

func (g Generations) get(slot Slot) uint64 {
	switch slot {
	case SlotHome:
		return g.Home
	case SlotSpotlight:
		return g.Spotlight
	case SlotDetails:
		return g.Details
	case SlotPerson:
		return g.Person
	case SlotPlayback:
		return g.Playback
	default:
		return 0
	}
}

func (g *Generations) bump(slot Slot) uint64 {
	switch slot {
	case SlotHome:
		g.Home++
	case SlotSpotlight:
		g.Spotlight++
	case SlotDetails:
		g.Details++
	case SlotPerson:
		g.Person++
	case SlotPlayback:
		g.Playback++
	}
	return g.get(slot)
}

func (g *Generations) bumpAll() {
	for _, slot := range []Slot{SlotHome, SlotSpotlight, SlotDetails, SlotPerson, SlotPlayback} {
		g.bump(slot)
	}
}

// Token identifies the request that produced an async result.
type Token struct {
	Slot       Slot   `json:"slot"`
	Generation uint64 `json:"generation"`
}

// State is everything one client renders.
type State struct {
	Categories     domain.CategoryResultSet `json:"categories"`
	SpotlightGenre string                   `json:"spotlightGenre,omitempty"`
	Selected       *domain.MediaItem        `json:"selected,omitempty"`
	Details        *domain.MediaDetails     `json:"details,omitempty"`
	Favorites      []domain.Favorite        `json:"favorites"`
	Person         domain.PersonCreditsPage `json:"person"`
	ShowFavorites  bool                     `json:"showFavorites"`
	Playback       *embed.Resolution        `json:"playback,omitempty"`
	PlaybackError  string                   `json:"playbackError,omitempty"`
	Generations    Generations              `json:"generations"`
}

func NewState() State {
	return State{
		Categories: domain.CategoryResultSet{},
		Favorites:  []domain.Favorite{},
		Person:     domain.PersonCreditsPage{Items: []domain.MediaItem{}},
	}
}

// Begin starts a new request for slot. Results of earlier requests for the
// same slot are discarded from now on.
func (s State) Begin(slot Slot) (State, Token) {
	next := s
	generation := next.Generations.bump(slot)
	return next, Token{Slot: slot, Generation: generation}
}

// Accepts reports whether a result carrying token is still current.
func (s State) Accepts(token Token) bool {
	return s.Generations.get(token.Slot) == token.Generation
}

// Clone deep-copies the state so it can be handed to subscribers.
func (s State) Clone() State {
	cloned := s
	cloned.Categories = s.Categories.Clone()
	if s.Selected != nil {
		selected := s.Selected.Clone()
		cloned.Selected = &selected
	}
	if s.Details != nil {
		details := *s.Details
		details.MediaItem = s.Details.MediaItem.Clone()
		details.Genres = append([]domain.Genre(nil), s.Details.Genres...)
		details.Seasons = append([]domain.Season(nil), s.Details.Seasons...)
		details.CastIDs = append([]string(nil), s.Details.CastIDs...)
		details.CrewIDs = append([]string(nil), s.Details.CrewIDs...)
		cloned.Details = &details
	}
	cloned.Favorites = favorites.Clone(s.Favorites)
	cloned.Person.Items = domain.CloneItems(s.Person.Items)
	if cloned.Person.Items == nil {
		cloned.Person.Items = []domain.MediaItem{}
	}
	if s.Playback != nil {
		playback := *s.Playback
		cloned.Playback = &playback
	}
	return cloned
}
