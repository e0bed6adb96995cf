package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/themalagasywizard/IHUB-4.1/internal/embed"
	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
	"github.com/themalagasywizard/IHUB-4.1/internal/metrics"
)

var ErrUnknownSession = errors.New("unknown session")

const (
	defaultSessionTTL = 30 * time.Minute
	sweepInterval     = time.Minute
)

// Deps are shared by every session.
type Deps struct {
	Catalog   Catalog
	Favorites *favorites.Service
	Player    Player
	Hosts     embed.Hosts
}

// Publisher receives every state change of every session.
type Publisher interface {
	Publish(sessionID string, state State)
}

type Manager struct {
	deps      Deps
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
	publisher Publisher

	mu       sync.RWMutex
	sessions map[string]*Controller
}

type ManagerOption func(*Manager)

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithPublisher(publisher Publisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(deps Deps, opts ...ManagerOption) *Manager {
	if deps.Favorites == nil {
		deps.Favorites = favorites.NewService(favorites.NewMemoryStore())
	}
	if deps.Hosts.Primary == "" || deps.Hosts.Fallback == "" {
		deps.Hosts = embed.DefaultHosts()
	}
	m := &Manager{
		deps:     deps,
		ttl:      defaultSessionTTL,
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*Controller),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// SetPublisher attaches a publisher to sessions created from now on.
func (m *Manager) SetPublisher(publisher Publisher) {
	m.mu.Lock()
	m.publisher = publisher
	m.mu.Unlock()
}

// Create opens a new session and loads the saved favorites into it.
func (m *Manager) Create(ctx context.Context) (*Controller, error) {
	id := uuid.NewString()
	controller := newController(id, m.deps, m.logger, m.now)

	m.mu.Lock()
	if m.publisher != nil {
		publisher := m.publisher
		controller.Subscribe(func(state State) { publisher.Publish(id, state) })
	}
	m.sessions[id] = controller
	count := len(m.sessions)
	m.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))

	if err := controller.LoadFavorites(ctx); err != nil {
		m.logger.Warn("favorites load failed", slog.String("session", id), slog.String("error", err.Error()))
	}
	m.logger.Debug("session created", slog.String("session", id), slog.Int("total", count))
	return controller, nil
}

func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	controller, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	controller.touch()
	return controller, nil
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	removed := 0
	for id, controller := range m.sessions {
		if controller.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))
	if removed > 0 {
		m.logger.Info("idle sessions expired", slog.Int("removed", removed), slog.Int("total", count))
	}
	return removed
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
