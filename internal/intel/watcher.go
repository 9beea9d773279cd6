package intel

import (
	"slices"
	"sync"
	"time"

	"ScoreTable/internal/game"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DedupWindow   = 5 * time.Second
	RetainDismiss = 5 * time.Minute
	MaxAlerts     = 50
	MaxActive     = 5
)

// Source is a store a Watcher can observe.
type Source interface {
	Subscribe(fn func(game.State)) func()
	Snapshot() game.State
}

// Watcher folds observed states into an alert list, newest first.
type Watcher struct {
	mu     sync.Mutex
	prev   game.State
	primed bool
	seen   map[string]struct{}
	alerts []Alert

	onAlert func([]Alert)

	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

type Option func(*Watcher)

func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		w.now = now
	}
}

func WithIDs(newID func() string) Option {
	return func(w *Watcher) {
		w.newID = newID
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l.With().Str("component", "intel").Logger()
	}
}

// WithAlertHook registers fn to receive the alerts added by each observation.
// It is called outside the watcher's lock.
func WithAlertHook(fn func([]Alert)) Option {
	return func(w *Watcher) {
		w.onAlert = fn
	}
}

func NewWatcher(opts ...Option) *Watcher {
	w := &Watcher{
		seen:   make(map[string]struct{}),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch observes src until the returned function is called.
func (w *Watcher) Watch(src Source) func() {
	w.Observe(src.Snapshot())
	return src.Subscribe(func(st game.State) {
		w.Observe(st)
	})
}

// Observe feeds the next state and returns the alerts it added. The first
// state only primes the watcher; events already in its log count as seen.
// Each observation also drops expired dismissed alerts.
func (w *Watcher) Observe(st game.State) []Alert {
	w.mu.Lock()
	if !w.primed {
		w.primed = true
		w.prev = st
		for _, ev := range st.Events {
			w.seen[ev.ID] = struct{}{}
		}
		w.mu.Unlock()
		return nil
	}

	candidates := Evaluate(w.prev, st)
	for _, ev := range st.Events {
		if _, ok := w.seen[ev.ID]; ok {
			continue
		}
		w.seen[ev.ID] = struct{}{}
		if a, ok := FromEvent(ev); ok {
			candidates = append(candidates, a)
		}
	}
	w.prev = st
	w.clearOld()

	var added []Alert
	for _, a := range candidates {
		if a, ok := w.add(a); ok {
			added = append(added, a)
		}
	}
	hook := w.onAlert
	w.mu.Unlock()

	for _, a := range added {
		w.logger.Debug().Str("category", string(a.Category)).Int("priority", a.Priority).Msg(a.Message)
	}
	if hook != nil && len(added) > 0 {
		hook(added)
	}
	return added
}

// add stamps a and pushes it to the front of the list unless a live alert
// with the same text was raised inside the dedup window. Callers hold mu.
func (w *Watcher) add(a Alert) (Alert, bool) {
	now := w.now()
	for _, existing := range w.alerts {
		if !existing.Dismissed && existing.Message == a.Message && now.Sub(existing.Timestamp) < DedupWindow {
			return Alert{}, false
		}
	}
	a.ID = w.newID()
	a.Timestamp = now
	w.alerts = append([]Alert{a}, w.alerts...)
	if len(w.alerts) > MaxAlerts {
		w.alerts = w.alerts[:MaxAlerts]
	}
	return a, true
}

// Dismiss marks one alert dismissed and reports whether it was found.
func (w *Watcher) Dismiss(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.alerts {
		if w.alerts[i].ID == id {
			w.alerts[i].Dismissed = true
			return true
		}
	}
	return false
}

func (w *Watcher) DismissAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.alerts {
		w.alerts[i].Dismissed = true
	}
}

// ClearOld drops dismissed alerts raised more than five minutes ago.
func (w *Watcher) ClearOld() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearOld()
}

func (w *Watcher) clearOld() {
	cutoff := w.now().Add(-RetainDismiss)
	w.alerts = slices.DeleteFunc(w.alerts, func(a Alert) bool {
		return a.Dismissed && !a.Timestamp.After(cutoff)
	})
}

// Alerts returns every retained alert, newest first.
func (w *Watcher) Alerts() []Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.alerts)
}

// Active returns up to five undismissed alerts, highest priority first.
// Ties keep newest first.
func (w *Watcher) Active() []Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Alert, 0, MaxActive)
	for _, a := range w.alerts {
		if !a.Dismissed {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b Alert) int {
		return b.Priority - a.Priority
	})
	if len(out) > MaxActive {
		out = out[:MaxActive]
	}
	return out
}
