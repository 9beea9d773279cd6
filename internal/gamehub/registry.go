package gamehub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ScoreTable/internal/clock"
	"ScoreTable/internal/docstore"
	"ScoreTable/internal/game"
	"ScoreTable/internal/intel"
	"ScoreTable/internal/rules"
	"ScoreTable/internal/syncbridge"

	"github.com/rs/zerolog"
)

// GameConfig describes a game to host. Empty fields keep the defaults.
type GameConfig struct {
	Rules rules.Name `json:"rules"`
	Home  string     `json:"home"`
	Away  string     `json:"away"`
}

// Registry tracks the games currently hosted by this process.
type Registry struct {
	mu      sync.Mutex
	Active  map[string]*Hub
	backend docstore.Backend

	baseURL      string
	tickInterval time.Duration
	logger       zerolog.Logger
}

type Option func(*Registry)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithBaseURL sets the prefix of the share links handed out for new games.
func WithBaseURL(u string) Option {
	return func(r *Registry) {
		r.baseURL = u
	}
}

// WithTickInterval overrides the one second game clock step.
func WithTickInterval(d time.Duration) Option {
	return func(r *Registry) {
		r.tickInterval = d
	}
}

func NewRegistry(backend docstore.Backend, opts ...Option) *Registry {
	r := &Registry{
		Active:       make(map[string]*Hub),
		backend:      backend,
		tickInterval: time.Second,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create sets up a store, clock, alert watcher and host bridge for a new
// game, publishes it and starts its hub.
func (r *Registry) Create(ctx context.Context, cfg GameConfig) (*Hub, error) {
	store := game.NewStore(game.WithLogger(r.logger))
	if err := configure(store, cfg); err != nil {
		store.Close()
		return nil, err
	}

	bridge := syncbridge.New(store, r.backend,
		syncbridge.WithLogger(r.logger),
		syncbridge.WithBaseURL(r.baseURL),
	)
	code, err := bridge.StartHosting(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}

	sc := clock.NewScheduler(store, clock.WithInterval(r.tickInterval), clock.WithLogger(r.logger))
	watcher := intel.NewWatcher(intel.WithLogger(r.logger))
	hub := newHub(code, store, sc, watcher, bridge, r.logger)
	go hub.Run()

	r.mu.Lock()
	r.Active[code] = hub
	r.mu.Unlock()

	r.logger.Info().Str("code", code).Str("rules", string(store.Snapshot().Rules.Name)).Msg("game hosted")
	return hub, nil
}

func configure(store *game.Store, cfg GameConfig) error {
	if cfg.Rules != "" {
		if err := store.SetRules(cfg.Rules); err != nil {
			return err
		}
	}
	if cfg.Home != "" {
		if err := store.SetTeamName(game.Home, cfg.Home); err != nil {
			return err
		}
	}
	if cfg.Away != "" {
		if err := store.SetTeamName(game.Away, cfg.Away); err != nil {
			return err
		}
	}
	// setup is not something to undo
	return store.NewGame()
}

func (r *Registry) Get(code string) (*Hub, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hub, ok := r.Active[code]
	if !ok {
		return nil, ErrGameNotFound
	}
	return hub, nil
}

// Delete closes the hub and removes its shared document.
func (r *Registry) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	hub, ok := r.Active[code]
	delete(r.Active, code)
	r.mu.Unlock()
	if !ok {
		return ErrGameNotFound
	}

	hub.Close()
	if err := r.backend.Delete(ctx, code); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("delete shared game %s: %w", code, err)
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Active)
}

// Close shuts every hosted game down, leaving the shared documents for the
// stale game cleanup.
func (r *Registry) Close() {
	r.mu.Lock()
	hubs := make([]*Hub, 0, len(r.Active))
	for code, hub := range r.Active {
		hubs = append(hubs, hub)
		delete(r.Active, code)
	}
	r.mu.Unlock()

	for _, hub := range hubs {
		hub.Close()
	}
}
