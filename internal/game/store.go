// Package game holds the authoritative state of a basketball game and every
// named operation that mutates it.
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ScoreTable/internal/rules"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownTeam       = errors.New("unknown team")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTimeoutsExhausted = errors.New("no timeouts remaining")
	ErrUnknownStat       = errors.New("unknown player stat")
	ErrInvalidValue      = errors.New("invalid value")
)

// errUnchanged is returned by a mutation that turned out to be a no-op.
var errUnchanged = errors.New("unchanged")

const (
	DefaultRosterSize   = 5
	ScoreAnimationDelay = 300 * time.Millisecond
)

const (
	defaultHomeColor = "#e63946"
	defaultAwayColor = "#457b9d"
)

// Store owns a State and serializes every mutation applied to it.
// Subscribers are notified in mutation order with a read-only snapshot and
// must not call back into Store mutations synchronously.
type Store struct {
	mu      sync.Mutex
	state   State
	history *History
	closed  bool

	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int

	logger zerolog.Logger
	now    func() time.Time
	newID  func() string

	animDelay time.Duration
	animTimer *time.Timer

	historyLimit int
	persisted    *Persisted
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l.With().Str("component", "game").Logger()
	}
}

// WithClock replaces the wall clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDs replaces the generator for event and player ids.
func WithIDs(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithScoreAnimation sets how long the score-changed flag stays up.
// A zero delay leaves the flag set until ClearAnimatingScore is called.
func WithScoreAnimation(d time.Duration) Option {
	return func(s *Store) {
		s.animDelay = d
	}
}

func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		s.historyLimit = n
	}
}

// WithPersisted seeds the store from previously persisted state.
func WithPersisted(p Persisted) Option {
	return func(s *Store) {
		s.persisted = &p
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		subs:         make(map[int]func(State)),
		logger:       zerolog.Nop(),
		now:          time.Now,
		newID:        uuid.NewString,
		animDelay:    ScoreAnimationDelay,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistory(s.historyLimit)
	s.state = s.initialState()

	if s.persisted != nil {
		if err := s.state.load(*s.persisted); err != nil {
			s.logger.Warn().Err(err).Msg("ignoring persisted state")
		}
		s.persisted = nil
	}
	return s
}

func (s *Store) initialState() State {
	r := rules.MustLookup(rules.Default)
	st := State{
		Rules:     r,
		GameTime:  r.PeriodLength,
		ShotClock: r.ShotClock,
		Period:    1,
		Home:      TeamState{Name: "HOME", Color: defaultHomeColor},
		Away:      TeamState{Name: "AWAY", Color: defaultAwayColor},
		Events:    []Event{},
		SyncMode:  ModeLocal,
		Language:  English,
		Theme:     ThemeLight,
	}
	st.Home.Players = s.defaultRoster()
	st.Away.Players = s.defaultRoster()
	return st
}

func (s *Store) defaultRoster() []PlayerStat {
	players := make([]PlayerStat, DefaultRosterSize)
	for i := range players {
		players[i] = PlayerStat{
			ID:        s.newID(),
			Name:      fmt.Sprintf("Player %d", i+1),
			Number:    fmt.Sprint(i + 1),
			IsOnCourt: true,
		}
	}
	return players
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn for every state change and returns a function that
// removes it. No callback fires after the returned function has returned.
func (s *Store) Subscribe(fn func(State)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			delete(s.subs, id)
			s.notifyMu.Unlock()
		})
	}
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Close stops pending timers and drops all subscribers.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	if s.animTimer != nil {
		s.animTimer.Stop()
		s.animTimer = nil
	}
	s.mu.Unlock()

	s.notifyMu.Lock()
	clear(s.subs)
	s.notifyMu.Unlock()
}

// mutate applies fn to a copy of the state. On error nothing changes and no
// snapshot is recorded. When record is set the pre-state goes to history.
func (s *Store) mutate(op string, record bool, fn func(*State) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		s.logger.Debug().Str("op", op).Err(err).Msg("operation rejected")
		return err
	}
	if record {
		s.history.Record(s.state)
	}
	s.state = next

	// hand the lock over so subscribers observe states in mutation order
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	level := zerolog.DebugLevel
	if op == "tick" {
		level = zerolog.TraceLevel
	}
	s.logger.WithLevel(level).Str("op", op).Int("period", next.Period).Int("game_time", next.GameTime).Msg("state changed")

	for _, fn := range s.subs {
		fn(next)
	}
	return nil
}

func (s *Store) appendEvent(st *State, typ EventType, team Team, playerID string, value *int, desc string) {
	st.Events = append(st.Events, Event{
		ID:          s.newID(),
		Timestamp:   s.now().UnixMilli(),
		GameTime:    st.GameTime,
		Period:      st.Period,
		Type:        typ,
		Team:        team,
		PlayerID:    playerID,
		Value:       value,
		Description: desc,
	})
}

func (s *Store) animate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.animDelay <= 0 {
		return
	}
	if s.animTimer != nil {
		s.animTimer.Stop()
	}
	s.animTimer = time.AfterFunc(s.animDelay, s.ClearAnimatingScore)
}

func teamOf(st *State, t Team) (*TeamState, error) {
	ts := st.team(t)
	if ts == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, t)
	}
	return ts, nil
}

func playerOf(ts *TeamState, id string) (*PlayerStat, error) {
	_, i, ok := ts.Player(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, id)
	}
	return &ts.Players[i], nil
}

func intPtr(i int) *int {
	return &i
}
