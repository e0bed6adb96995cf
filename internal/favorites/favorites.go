package favorites

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/themalagasywizard/IHUB-4.1/internal/domain"
)

// StorageKey names the single record holding the whole favorites list.
const StorageKey = "favorites"

// Store persists the favorites list as one unit. Save replaces the stored
// list entirely.
type Store interface {
	Load(ctx context.Context) ([]domain.Favorite, error)
	Save(ctx context.Context, list []domain.Favorite) error
}

// Service serializes read-modify-write cycles on a Store so toggles from
// different callers never overwrite each other.
type Service struct {
	mu    sync.Mutex
	store Store
}

func NewService(store Store) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{store: store}
}

func (s *Service) Load(ctx context.Context) ([]domain.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx)
}

// Toggle reloads the stored list, flips item in it and saves the result.
// The returned bool reports whether item was added.
func (s *Service) Toggle(ctx context.Context, item domain.MediaItem, now time.Time) ([]domain.Favorite, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.store.Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load favorites: %w", err)
	}
	next, added := Toggle(list, item, now)
	if err := s.store.Save(ctx, next); err != nil {
		return nil, false, fmt.Errorf("save favorites: %w", err)
	}
	return Clone(next), added, nil
}

// Toggle removes item when a favorite with its id exists, otherwise appends
// it. The input list is not modified.
func Toggle(list []domain.Favorite, item domain.MediaItem, now time.Time) ([]domain.Favorite, bool) {
	out := make([]domain.Favorite, 0, len(list)+1)
	removed := false
	for _, fav := range list {
		if fav.ID == item.ID {
			removed = true
			continue
		}
		out = append(out, fav)
	}
	if removed {
		return out, false
	}
	out = append(out, domain.Favorite{MediaItem: item.Clone(), AddedAt: now.UTC()})
	return out, true
}

func Contains(list []domain.Favorite, id string) bool {
	for _, fav := range list {
		if fav.ID == id {
			return true
		}
	}
	return false
}

func Clone(list []domain.Favorite) []domain.Favorite {
	if list == nil {
		return []domain.Favorite{}
	}
	out := make([]domain.Favorite, len(list))
	for i, fav := range list {
		out[i] = domain.Favorite{MediaItem: fav.MediaItem.Clone(), AddedAt: fav.AddedAt}
	}
	return out
}

// MemoryStore keeps favorites in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	list []domain.Favorite
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) ([]domain.Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Clone(m.list), nil
}

func (m *MemoryStore) Save(ctx context.Context, list []domain.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = Clone(list)
	return nil
}
