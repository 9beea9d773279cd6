// Package syncbridge mirrors a game store to a shared remote document, either
// as the host that owns the game or as a viewer following it.
package syncbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ScoreTable/internal/docstore"
	"ScoreTable/internal/game"
	"ScoreTable/internal/permissions"
	"ScoreTable/internal/pins"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrSyncUnavailable = errors.New("sync unavailable")
	ErrInvalidCode     = errors.New("invalid game code")
)

type Status string

const (
	Disconnected Status = "disconnected"
	Connecting   Status = "connecting"
	Connected    Status = "connected"
	Failed       Status = "error"
)

// PushInterval is the minimum spacing of outbound writes.
const PushInterval = 100 * time.Millisecond

// Store is what the bridge needs from a game store.
type Store interface {
	Snapshot() game.State
	Subscribe(fn func(game.State)) func()
	ApplySummary(sum game.Summary) error
	SetSync(mode game.SyncMode, role game.Role) error
}

type Bridge struct {
	store    Store
	backend  docstore.Backend
	clientID string
	baseURL  string
	logger   zerolog.Logger
	onStatus func(Status)

	// mu serializes mode transitions; statusMu guards status and lastErr
	mu         sync.Mutex
	statusMu   sync.Mutex
	status     Status
	lastErr    error
	code       string
	hostID     string
	mode       game.SyncMode
	role       game.Role
	autoJoined bool

	cancelRemote func()
	cancelLocal  func()
	stopPush     context.CancelFunc
	pushDone     chan struct{}

	// set while a remote document is merged into the store
	applying atomic.Bool

	pushMu   sync.Mutex
	pending  *docstore.Document
	lastSent game.Summary
	wake     chan struct{}
}

type Option func(*Bridge)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l.With().Str("component", "syncbridge").Logger()
	}
}

// WithClientID fixes the id written to updatedBy and hostId.
func WithClientID(id string) Option {
	return func(b *Bridge) {
		b.clientID = id
	}
}

// WithBaseURL sets the prefix of share links.
func WithBaseURL(u string) Option {
	return func(b *Bridge) {
		b.baseURL = u
	}
}

// WithStatusHook registers fn for every status transition.
func WithStatusHook(fn func(Status)) Option {
	return func(b *Bridge) {
		b.onStatus = fn
	}
}

// New returns a bridge in local mode. A nil backend is allowed: every sync
// attempt then fails with ErrSyncUnavailable.
func New(store Store, backend docstore.Backend, opts ...Option) *Bridge {
	b := &Bridge{
		store:    store,
		backend:  backend,
		clientID: uuid.NewString(),
		logger:   zerolog.Nop(),
		status:   Disconnected,
		mode:     game.ModeLocal,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Status() Status {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	return b.status
}

// Err returns the failure behind the last error status.
func (b *Bridge) Err() error {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	return b.lastErr
}

// Code returns the current or most recent game code.
func (b *Bridge) Code() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code
}

func (b *Bridge) Mode() game.SyncMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

func (b *Bridge) ClientID() string {
	return b.clientID
}

// StartHosting publishes the store under a game code and keeps pushing its
// changes. A code from an earlier session is reused.
func (b *Bridge) StartHosting(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.backend == nil {
		b.fail(ErrSyncUnavailable)
		return "", ErrSyncUnavailable
	}
	if b.mode == game.ModeHost {
		return b.code, nil
	}
	b.setStatus(Connecting)

	code := b.code
	if code == "" {
		var err error
		code, err = pins.Unique(func(pin string) (bool, error) {
			return b.backend.Exists(ctx, pin)
		})
		if err != nil {
			b.fail(err)
			return "", fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
		}
	}

	doc := docstore.Document{
		ID:        code,
		HostID:    b.clientID,
		UpdatedBy: b.clientID,
		Summary:   b.store.Snapshot().Summary(),
	}
	if err := b.backend.Put(ctx, doc); err != nil {
		b.fail(err)
		return "", fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}

	b.teardown()
	if err := b.store.SetSync(game.ModeHost, game.RoleHost); err != nil {
		return "", err
	}
	b.code, b.hostID = code, b.clientID
	b.mode, b.role = game.ModeHost, game.RoleHost
	b.setLastSent(doc.Summary)

	// viewers with an editing role write to the same document
	cancel, err := b.backend.Subscribe(ctx, code, b.onRemote)
	if err != nil {
		b.logger.Warn().Err(err).Str("code", code).Msg("hosting without remote edits")
	} else {
		b.cancelRemote = cancel
	}
	b.startPushing()
	b.setStatus(Connected)
	b.logger.Info().Str("code", code).Msg("hosting game")
	return code, nil
}

// JoinGame follows the game published under code. When no such game exists
// it returns ErrGameNotFound and the sync mode stays as it was.
func (b *Bridge) JoinGame(ctx context.Context, code string, role game.Role) error {
	code, err := pins.Parse(code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if role == "" {
		role = game.RoleViewer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.backend == nil {
		b.fail(ErrSyncUnavailable)
		return ErrSyncUnavailable
	}

	b.setStatus(Connecting)
	doc, err := b.backend.Get(ctx, code)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		b.fail(ErrGameNotFound)
		return ErrGameNotFound
	case err != nil:
		b.fail(err)
		return fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}

	b.teardown()
	if err := b.store.SetSync(game.ModeViewer, role); err != nil {
		return err
	}
	b.code, b.hostID = code, doc.HostID
	b.mode, b.role = game.ModeViewer, role

	cancel, err := b.backend.Subscribe(ctx, code, b.onRemote)
	if err != nil {
		_ = b.store.SetSync(game.ModeLocal, "")
		b.mode, b.role = game.ModeLocal, ""
		b.fail(err)
		return fmt.Errorf("%w: %v", ErrSyncUnavailable, err)
	}
	b.cancelRemote = cancel

	if permissions.Resolve(game.ModeViewer, role).Any() {
		b.setLastSent(b.store.Snapshot().Summary())
		b.startPushing()
	}
	b.setStatus(Connected)
	b.logger.Info().Str("code", code).Str("role", string(role)).Msg("joined game")
	return nil
}

// StopSync drops every listener and returns to local play. The code is kept
// so hosting can resume under it. Nothing is written after StopSync returns.
func (b *Bridge) StopSync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.teardown()
	if b.mode != game.ModeLocal {
		_ = b.store.SetSync(game.ModeLocal, "")
	}
	b.mode, b.role = game.ModeLocal, ""
	b.setStatus(Disconnected)
}

// teardown releases the remote listener and the pusher. Callers hold b.mu.
func (b *Bridge) teardown() {
	if b.cancelRemote != nil {
		b.cancelRemote()
		b.cancelRemote = nil
	}
	if b.cancelLocal != nil {
		b.cancelLocal()
		b.cancelLocal = nil
	}
	if b.stopPush != nil {
		b.stopPush()
		<-b.pushDone
		b.stopPush = nil
		b.pushDone = nil
	}
	b.pushMu.Lock()
	b.pending = nil
	b.pushMu.Unlock()
}

func (b *Bridge) setStatus(s Status) {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	b.transition(s, nil)
}

func (b *Bridge) fail(err error) {
	b.statusMu.Lock()
	defer b.statusMu.Unlock()
	if errors.Is(err, ErrGameNotFound) {
		b.logger.Info().Msg("game not found")
	} else {
		b.logger.Error().Err(err).Msg("sync backend failure")
	}
	b.transition(Failed, err)
}

// transition is called with statusMu held.
func (b *Bridge) transition(s Status, err error) {
	b.lastErr = err
	if b.status == s {
		return
	}
	b.status = s
	b.logger.Info().Str("status", string(s)).Msg("sync status changed")
	if b.onStatus != nil {
		b.onStatus(s)
	}
}

// onRemote merges a document written by another client.
func (b *Bridge) onRemote(doc docstore.Document) {
	if doc.UpdatedBy == b.clientID {
		return
	}
	b.applying.Store(true)
	defer b.applying.Store(false)

	b.setLastSent(doc.Summary)
	if err := b.store.ApplySummary(doc.Summary); err != nil {
		b.logger.Warn().Err(err).Str("code", doc.ID).Msg("remote update rejected")
	}
}

func (b *Bridge) setLastSent(sum game.Summary) {
	b.pushMu.Lock()
	b.lastSent = sum
	b.pushMu.Unlock()
}
