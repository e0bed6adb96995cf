package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

var ErrInvalidCommand = errors.New("invalid session command")

// Command is the wire form of a session action.
type Command struct {
	Type     string            `json:"type"`
	Item     *domain.MediaItem `json:"item,omitempty"`
	PersonID string            `json:"personId,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	ID       string            `json:"id,omitempty"`
	Season   int               `json:"season,omitempty"`
	Episode  int               `json:"episode,omitempty"`
	Probe    bool              `json:"probe,omitempty"`
	Show     bool              `json:"show,omitempty"`
}

const (
	CommandLoadHome         = "loadHome"
	CommandRefreshSpotlight = "refreshSpotlight"
	CommandSelectMedia      = "selectMedia"
	CommandCloseDetails     = "closeDetails"
	CommandSelectPerson     = "selectPerson"
	CommandLoadMorePerson   = "loadMorePerson"
	CommandLoadFavorites    = "loadFavorites"
	CommandToggleFavorite   = "toggleFavorite"
	CommandShowFavorites    = "showFavorites"
	CommandPlay             = "play"
	CommandStopPlayback     = "stopPlayback"
	CommandReset            = "reset"
)

// Execute runs cmd against the session and returns the resulting state.
func (c *Controller) Execute(ctx context.Context, cmd Command) (State, error) {
	c.touch()
	err := c.execute(ctx, cmd)
	return c.State(), err
}

func (c *Controller) execute(ctx context.Context, cmd Command) error {
	switch strings.TrimSpace(cmd.Type) {
	case CommandLoadHome:
		return c.LoadHome(ctx)
	case CommandRefreshSpotlight:
		return c.RefreshSpotlight(ctx)
	case CommandSelectMedia:
		if cmd.Item == nil || strings.TrimSpace(cmd.Item.ID) == "" {
			return fmt.Errorf("%w: selectMedia needs an item", ErrInvalidCommand)
		}
		if cmd.Item.Kind == domain.KindPerson {
			return c.SelectPerson(ctx, cmd.Item.ID)
		}
		return c.SelectMedia(ctx, *cmd.Item)
	case CommandCloseDetails:
		c.CloseDetails()
		return nil
	case CommandSelectPerson:
		if strings.TrimSpace(cmd.PersonID) == "" {
			return fmt.Errorf("%w: selectPerson needs personId", ErrInvalidCommand)
		}
		return c.SelectPerson(ctx, cmd.PersonID)
	case CommandLoadMorePerson:
		return c.LoadMorePerson(ctx)
	case CommandLoadFavorites:
		return c.LoadFavorites(ctx)
	case CommandToggleFavorite:
		if cmd.Item == nil || strings.TrimSpace(cmd.Item.ID) == "" {
			return fmt.Errorf("%w: toggleFavorite needs an item", ErrInvalidCommand)
		}
		_, err := c.ToggleFavorite(ctx, *cmd.Item)
		return err
	case CommandShowFavorites:
		c.ShowFavorites(cmd.Show)
		return nil
	case CommandPlay:
		kind, err := domain.ParseKind(cmd.Kind)
		if err != nil {
			return err
		}
		_, err = c.Play(ctx, kind, cmd.ID, cmd.Season, cmd.Episode, cmd.Probe)
		return err
	case CommandStopPlayback:
		c.StopPlayback()
		return nil
	case CommandReset:
		c.Reset()
		return nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, cmd.Type)
	}
}
