// Package docstore keeps the shared document of each synced game, keyed by
// its game code, and notifies subscribers when it changes.
package docstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"ScoreTable/internal/game"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrUnavailable = errors.New("document store unavailable")
)

// Document is the remote copy of a game. It carries team summaries and the
// clock, never rosters or the timeline.
type Document struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	HostID    string    `json:"hostId"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	game.Summary
}

// Backend stores documents. Put creates or replaces a document and keeps its
// original CreatedAt. Subscribe calls fn with the current document, if any,
// and again after every Put; no call happens once the returned cancel
// function has returned.
type Backend interface {
	Put(ctx context.Context, doc Document) error
	Get(ctx context.Context, code string) (Document, error)
	Exists(ctx context.Context, code string) (bool, error)
	Delete(ctx context.Context, code string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	Subscribe(ctx context.Context, code string, fn func(Document)) (cancel func(), err error)
}

type subscriber struct {
	mu     sync.Mutex
	fn     func(Document)
	closed bool
}

func (s *subscriber) deliver(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.fn(doc)
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// fanout tracks subscribers per document code.
type fanout struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func newFanout() *fanout {
	return &fanout{subs: make(map[string]map[*subscriber]struct{})}
}

func (f *fanout) add(code string, fn func(Document)) (*subscriber, func()) {
	sub := &subscriber{fn: fn}
	f.mu.Lock()
	if f.subs[code] == nil {
		f.subs[code] = make(map[*subscriber]struct{})
	}
	f.subs[code][sub] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[code], sub)
			if len(f.subs[code]) == 0 {
				delete(f.subs, code)
			}
			f.mu.Unlock()
			sub.close()
		})
	}
}

func (f *fanout) publish(doc Document) {
	f.mu.Lock()
	targets := make([]*subscriber, 0, len(f.subs[doc.ID]))
	for sub := range f.subs[doc.ID] {
		targets = append(targets, sub)
	}
	f.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(doc)
	}
}

func (f *fanout) codes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.subs))
	for code := range f.subs {
		out = append(out, code)
	}
	return out
}
