package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/catalog"
	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
)

// Catalog is the subset of catalog.Service a session drives.
type Catalog interface {
	LoadHome(ctx context.Context) (domain.HomeResult, error)
	RefreshSpotlight(ctx context.Context) (catalog.Spotlight, error)
	MediaDetails(ctx context.Context, kind domain.MediaKind, id string) (domain.MediaDetails, error)
	PersonCredits(ctx context.Context, personID string, page int) (domain.PersonCreditsPage, error)
}

type Player interface {
	Resolve(ctx context.Context, plan embed.Plan) (embed.Resolution, error)
}

// Controller owns the state of one session. Operations may run concurrently;
// a result that lost the race to a newer request for the same slot is dropped.
type Controller struct {
	id      string
	catalog Catalog
	store   *favorites.Service
	player  Player
	hosts   embed.Hosts
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSub     int
	lastSeen    time.Time
}

func newController(id string, deps Deps, logger *slog.Logger, now func() time.Time) *Controller {
	return &Controller{
		id:          id,
		catalog:     deps.Catalog,
		store:       deps.Favorites,
		player:      deps.Player,
		hosts:       deps.Hosts,
		logger:      logger.With(slog.String("session", id)),
		now:         now,
		state:       NewState(),
		subscribers: make(map[int]func(State)),
		lastSeen:    now(),
	}
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers fn for every state change. The returned func removes it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastSeen = c.now()
	c.mu.Unlock()
}

func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Controller) begin(slot Slot) Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var token Token
	c.state, token = c.state.Begin(slot)
	return token
}

// dispatch reduces action into the session state and publishes the result.
// It returns false when the action was stale.
func (c *Controller) dispatch(action Action) bool {
	c.mu.Lock()
	if Stale(c.state, action) {
		c.mu.Unlock()
		metrics.StaleResultsDiscarded.Inc()
		c.logger.Debug("stale result discarded", slog.String("action", fmt.Sprintf("%T", action)))
		return false
	}
	c.state = Reduce(c.state, action)
	snapshot := c.state.Clone()
	subscribers := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subscribers = append(subscribers, fn)
	}
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	return true
}

func (c *Controller) LoadHome(ctx context.Context) error {
	token := c.begin(SlotHome)
	result, err := c.catalog.LoadHome(ctx)
	if err != nil {
		return err
	}
	c.dispatch(HomeLoaded{Token: token, Result: result})
	return nil
}

func (c *Controller) RefreshSpotlight(ctx context.Context) error {
	token := c.begin(SlotSpotlight)
	spotlight, err := c.catalog.RefreshSpotlight(ctx)
	if err != nil {
		return err
	}
	c.dispatch(SpotlightReplaced{Token: token, Spotlight: spotlight})
	return nil
}

// SelectMedia opens item and loads its details. Any person credits request
// still in flight is abandoned. A failed load closes the detail view again.
func (c *Controller) SelectMedia(ctx context.Context, item domain.MediaItem) error {
	c.begin(SlotPerson)
	token := c.begin(SlotDetails)
	c.dispatch(MediaSelected{Token: token, Item: item})

	details, err := c.catalog.MediaDetails(ctx, item.Kind, item.ID)
	if err != nil {
		c.logger.Warn("media details failed",
			slog.String("kind", string(item.Kind)),
			slog.String("id", item.ID),
			slog.String("error", err.Error()),
		)
		c.dispatch(DetailsFailed{Token: token})
		return err
	}
	c.dispatch(DetailsLoaded{Token: token, Details: details})
	return nil
}

func (c *Controller) CloseDetails() {
	c.begin(SlotDetails)
	c.dispatch(SelectionCleared{})
}

func (c *Controller) SelectPerson(ctx context.Context, personID string) error {
	token := c.begin(SlotPerson)
	c.dispatch(PersonSelected{Token: token, PersonID: personID})

	page, err := c.catalog.PersonCredits(ctx, personID, 1)
	if err != nil {
		c.logger.Warn("person credits failed",
			slog.String("person", personID),
			slog.String("error", err.Error()),
		)
		return err
	}
	c.dispatch(PersonCreditsLoaded{Token: token, Page: page})
	return nil
}

// LoadMorePerson appends the next page of the current person's credits.
// It is a no-op when every page is already loaded.
func (c *Controller) LoadMorePerson(ctx context.Context) error {
	c.mu.Lock()
	current := c.state.Person
	c.mu.Unlock()
	if !current.HasMore() {
		return nil
	}

	token := c.begin(SlotPerson)
	page, err := c.catalog.PersonCredits(ctx, current.PersonID, current.Page+1)
	if err != nil {
		return err
	}
	c.dispatch(PersonMoreLoaded{Token: token, Page: page})
	return nil
}

func (c *Controller) LoadFavorites(ctx context.Context) error {
	list, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load favorites: %w", err)
	}
	c.dispatch(FavoritesLoaded{Favorites: list})
	return nil
}

// ToggleFavorite flips item in the shared favorites list and adopts the
// saved list. On error the session keeps its previous favorites.
func (c *Controller) ToggleFavorite(ctx context.Context, item domain.MediaItem) ([]domain.Favorite, error) {
	list, _, err := c.store.Toggle(ctx, item, c.now())
	if err != nil {
		return nil, err
	}
	c.dispatch(FavoritesLoaded{Favorites: list})
	return favorites.Clone(list), nil
}

func (c *Controller) ShowFavorites(show bool) {
	c.dispatch(ShowFavorites{Show: show})
}

// Play builds the embed plan for a title. With probe set the embed hosts are
// checked first and ErrUnavailable is returned when neither answers.
func (c *Controller) Play(ctx context.Context, kind domain.MediaKind, id string, season, episode int, probe bool) (embed.Resolution, error) {
	plan, err := c.hosts.Plan(kind, id, season, episode)
	if err != nil {
		return embed.Resolution{}, err
	}
	token := c.begin(SlotPlayback)

	resolution := embed.Resolution{Plan: plan, URL: plan.PrimaryURL, Host: "primary"}
	if probe && c.player != nil {
		resolution, err = c.player.Resolve(ctx, plan)
		if err != nil {
			message := "Failed to load video. Please try again."
			if !errors.Is(err, embed.ErrUnavailable) {
				message = err.Error()
			}
			c.dispatch(PlaybackFailed{Token: token, Message: message})
			return resolution, err
		}
	}
	c.dispatch(PlaybackStarted{Token: token, Resolution: resolution})
	return resolution, nil
}

func (c *Controller) StopPlayback() {
	c.begin(SlotPlayback)
	c.dispatch(PlaybackStopped{})
}

func (c *Controller) Reset() {
	c.dispatch(Reset{})
}
