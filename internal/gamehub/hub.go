// Package gamehub runs games hosted by the API server. Each hub owns one game
// store and fans its state out to websocket keepers and watchers.
package gamehub

import (
	json2 "encoding/json"
	"errors"
	"fmt"
	"sync"

	"ScoreTable/internal/clock"
	"ScoreTable/internal/command"
	"ScoreTable/internal/game"
	"ScoreTable/internal/intel"
	"ScoreTable/internal/permissions"
	"ScoreTable/internal/syncbridge"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type envelope map[string]any

// Alert messages only change what connections are shown, so they bypass the
// store and its guard.
const (
	DismissAlert     command.Kind = "dismissAlert"
	DismissAllAlerts command.Kind = "dismissAllAlerts"
)

type request struct {
	keeper  *Keeper
	cmd     command.Command
	alertID string
	err     error
}

func isAlertKind(k command.Kind) bool {
	return k == DismissAlert || k == DismissAllAlerts
}

// Hub serializes keeper commands against one store and broadcasts every
// resulting state to its connections.
type Hub struct {
	Code string

	store  *game.Store
	clock  *clock.Scheduler
	intel  *intel.Watcher
	bridge *syncbridge.Bridge
	logger zerolog.Logger

	keepers      map[*Keeper]bool
	watchers     map[*Watcher]bool
	joinKeeper   chan *Keeper
	leaveKeeper  chan *Keeper
	joinWatcher  chan *Watcher
	leaveWatcher chan *Watcher
	requests     chan request

	// latest state not yet broadcast
	stateMu sync.Mutex
	latest  *game.State
	changed chan struct{}

	unsubscribe func()
	unfollow    func()

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newHub(code string, store *game.Store, sc *clock.Scheduler, w *intel.Watcher, b *syncbridge.Bridge, logger zerolog.Logger) *Hub {
	h := &Hub{
		Code:         code,
		store:        store,
		clock:        sc,
		intel:        w,
		bridge:       b,
		logger:       logger.With().Str("component", "gamehub").Str("code", code).Logger(),
		keepers:      make(map[*Keeper]bool),
		watchers:     make(map[*Watcher]bool),
		joinKeeper:   make(chan *Keeper),
		leaveKeeper:  make(chan *Keeper),
		joinWatcher:  make(chan *Watcher),
		leaveWatcher: make(chan *Watcher),
		requests:     make(chan request),
		changed:      make(chan struct{}, 1),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	h.intel.Observe(store.Snapshot())
	h.unsubscribe = store.Subscribe(func(st game.State) {
		h.intel.Observe(st)
		h.stateMu.Lock()
		h.latest = &st
		h.stateMu.Unlock()
		select {
		case h.changed <- struct{}{}:
		default:
		}
	})
	h.unfollow = sc.Follow(store)
	return h
}

func (h *Hub) Snapshot() game.State {
	return h.store.Snapshot()
}

func (h *Hub) Alerts() []intel.Alert {
	return h.intel.Active()
}

func (h *Hub) Links() (syncbridge.Links, error) {
	return h.bridge.Links()
}

func (h *Hub) SyncStatus() syncbridge.Status {
	return h.bridge.Status()
}

// JoinKeeper attaches a writing connection acting with role. Roles without
// any write capability are refused.
func (h *Hub) JoinKeeper(conn *websocket.Conn, role game.Role) error {
	guard := permissions.NewRoleGuard(h.store, role)
	if !guard.Capabilities().Any() {
		return ErrKeeperNotAuthorized
	}

	k := newKeeper(h, conn, role, guard)
	select {
	case h.joinKeeper <- k:
	case <-h.done:
		return ErrHubClosed
	}
	go k.WriteEvents()
	go k.ReadEvents()
	return nil
}

// JoinWatcher attaches a read-only connection.
func (h *Hub) JoinWatcher(conn *websocket.Conn) error {
	w := newWatcher(h, conn)
	select {
	case h.joinWatcher <- w:
	case <-h.done:
		return ErrHubClosed
	}
	go w.WriteEvents()
	go w.ReadEvents()
	return nil
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case k := <-h.joinKeeper:
			h.keepers[k] = true
			h.send(k.Receive, h.stateFrame(h.store.Snapshot()), func() { h.dropKeeper(k) })
			h.logger.Info().Str("role", string(k.Role)).Msg("keeper joined")
		case k := <-h.leaveKeeper:
			h.dropKeeper(k)
		case w := <-h.joinWatcher:
			h.watchers[w] = true
			h.send(w.Receive, h.stateFrame(h.store.Snapshot()), func() { h.dropWatcher(w) })
			h.logger.Debug().Int("watchers", len(h.watchers)).Msg("watcher joined")
		case w := <-h.leaveWatcher:
			h.dropWatcher(w)
		case req := <-h.requests:
			h.execute(req)
		case <-h.changed:
			h.stateMu.Lock()
			st := h.latest
			h.latest = nil
			h.stateMu.Unlock()
			if st != nil {
				h.broadcast(h.stateFrame(*st))
			}
		case <-h.quit:
			for k := range h.keepers {
				h.dropKeeper(k)
			}
			for w := range h.watchers {
				h.dropWatcher(w)
			}
			return
		}
	}
}

// Close tears the game down. No store callback and no broadcast happens
// after it returns.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.bridge.StopSync()
		h.unfollow()
		h.clock.Close()
		h.unsubscribe()
		close(h.quit)
		<-h.done
		h.store.Close()
		h.logger.Info().Msg("game hub closed")
	})
}

func (h *Hub) execute(req request) {
	k := req.keeper
	if !h.keepers[k] {
		return
	}
	if req.err != nil {
		h.reply(k, "", req.err)
		return
	}
	if isAlertKind(req.cmd.Type) {
		h.dismiss(k, req)
		return
	}

	err := command.Execute(k.guard, h.store, req.cmd)
	var denied *permissions.DeniedError
	switch {
	case errors.As(err, &denied):
		h.logger.Info().Str("role", string(k.Role)).Str("command", string(req.cmd.Type)).Msg("command denied")
	case err != nil:
		h.logger.Debug().Err(err).Str("command", string(req.cmd.Type)).Msg("command rejected")
	}
	h.reply(k, req.cmd.Type, err)
}

func (h *Hub) dismiss(k *Keeper, req request) {
	var err error
	if req.cmd.Type == DismissAllAlerts {
		h.intel.DismissAll()
	} else if !h.intel.Dismiss(req.alertID) {
		err = fmt.Errorf("%w: %q", ErrAlertNotFound, req.alertID)
	}
	h.reply(k, req.cmd.Type, err)
	if err == nil {
		h.broadcast(h.stateFrame(h.store.Snapshot()))
	}
}

func (h *Hub) reply(k *Keeper, kind command.Kind, err error) {
	msg := envelope{"type": "ack", "command": kind}
	if err != nil {
		msg["type"] = "error"
		msg["error"] = err.Error()
	}
	h.send(k.Receive, h.toByteArr(msg), func() { h.dropKeeper(k) })
}

func (h *Hub) stateFrame(st game.State) []byte {
	return h.toByteArr(envelope{
		"type":   "state",
		"state":  st,
		"alerts": h.intel.Active(),
	})
}

func (h *Hub) broadcast(msg []byte) {
	if msg == nil {
		return
	}
	for k := range h.keepers {
		h.send(k.Receive, msg, func() { h.dropKeeper(k) })
	}
	for w := range h.watchers {
		h.send(w.Receive, msg, func() { h.dropWatcher(w) })
	}
}

// send queues msg without blocking; a full queue means the peer is too slow
// and it gets dropped.
func (h *Hub) send(ch chan []byte, msg []byte, drop func()) {
	select {
	case ch <- msg:
	default:
		h.logger.Warn().Msg("dropping slow connection")
		drop()
	}
}

func (h *Hub) dropKeeper(k *Keeper) {
	if _, ok := h.keepers[k]; ok {
		delete(h.keepers, k)
		close(k.Receive)
	}
}

func (h *Hub) dropWatcher(w *Watcher) {
	if _, ok := h.watchers[w]; ok {
		delete(h.watchers, w)
		close(w.Receive)
	}
}

func (h *Hub) toByteArr(msg envelope) []byte {
	b, err := json2.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("encode frame")
		return nil
	}
	return b
}

// submit hands a keeper request to the run loop unless the hub is gone.
func (h *Hub) submit(req request) bool {
	select {
	case h.requests <- req:
		return true
	case <-h.done:
		return false
	}
}
