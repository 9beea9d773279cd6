// Package clock drives a game's time advance at a fixed interval.
package clock

import (
	"sync"
	"time"

	"ScoreTable/internal/game"

	"github.com/rs/zerolog"
)

// Ticker advances game time by one step and reports whether it should keep
// being called.
type Ticker interface {
	Tick() bool
}

// Source is a store the scheduler can follow.
type Source interface {
	Subscribe(fn func(game.State)) func()
	Snapshot() game.State
}

type State int

const (
	idle State = iota
	playing
	closed
)

// Scheduler calls Tick on its target once per interval while playing. It uses
// a repeating ticker so lateness never compounds.
type Scheduler struct {
	mu       sync.Mutex
	target   Ticker
	interval time.Duration
	state    State
	stop     chan struct{}
	done     chan struct{}
	logger   zerolog.Logger
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(sc *Scheduler) {
		sc.interval = d
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(sc *Scheduler) {
		sc.logger = l.With().Str("component", "clock").Logger()
	}
}

func NewScheduler(target Ticker, opts ...Option) *Scheduler {
	sc := &Scheduler{
		target:   target,
		interval: time.Second,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Play starts ticking. It does nothing if the scheduler is already playing
// or has been closed.
func (sc *Scheduler) Play() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.state != idle {
		return
	}

	sc.stop = make(chan struct{})
	sc.done = make(chan struct{})
	sc.state = playing
	go sc.run(sc.stop, sc.done)
	sc.logger.Debug().Dur("interval", sc.interval).Msg("clock playing")
}

// Pause stops ticking and waits until the loop has exited. No Tick call
// starts after Pause returns.
func (sc *Scheduler) Pause() {
	if done := sc.halt(); done != nil {
		<-done
	}
}

// Close pauses the scheduler for good.
func (sc *Scheduler) Close() {
	sc.Pause()
	sc.mu.Lock()
	sc.state = closed
	sc.mu.Unlock()
}

func (sc *Scheduler) Playing() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state == playing
}

// Follow starts and stops the scheduler with the running flag of src.
// Viewers never drive their own clock; the remote host does. The returned
// function stops following but leaves the scheduler in its current state.
func (sc *Scheduler) Follow(src Source) func() {
	apply := func(st game.State) {
		if st.IsRunning && st.SyncMode != game.ModeViewer {
			sc.Play()
			return
		}
		// called from inside a store notification, so waiting for the loop
		// could deadlock against a Tick in flight
		sc.halt()
	}
	unfollow := src.Subscribe(apply)
	apply(src.Snapshot())
	return unfollow
}

// halt signals the loop to stop without waiting and returns the channel
// closed once it has exited.
func (sc *Scheduler) halt() <-chan struct{} {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.state == playing {
		close(sc.stop)
		sc.state = idle
		sc.logger.Debug().Msg("clock paused")
	}
	return sc.done
}

func (sc *Scheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			if !sc.target.Tick() {
				sc.finish(stop)
				return
			}
		}
	}
}

// finish marks the scheduler idle after the target asked to stop.
func (sc *Scheduler) finish(stop <-chan struct{}) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.state == playing && sc.stop == stop {
		close(sc.stop)
		sc.state = idle
		sc.logger.Debug().Msg("clock expired")
	}
}
