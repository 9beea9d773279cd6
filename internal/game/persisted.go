package game

import (
	"fmt"

	"ScoreTable/internal/rules"
)

// PersistedVersion is bumped whenever the Persisted layout changes.
const PersistedVersion = 1

// Persisted is the part of State that survives a restart. UI flags, sync
// settings and history are deliberately absent.
type Persisted struct {
	Version   int           `json:"version"`
	Rules     rules.RuleSet `json:"rules"`
	Language  Language      `json:"language"`
	Theme     Theme         `json:"theme"`
	Home      TeamState     `json:"home"`
	Away      TeamState     `json:"away"`
	GameTime  int           `json:"gameTime"`
	ShotClock int           `json:"shotClock"`
	Period    int           `json:"period"`
	Events    []Event       `json:"events"`
}

// Persisted returns the persistable projection of the current state.
func (s *Store) Persisted() Persisted {
	return s.Snapshot().Persisted()
}

// Persisted returns the persistable projection of st.
func (st State) Persisted() Persisted {
	return Persisted{
		Version:   PersistedVersion,
		Rules:     st.Rules,
		Language:  st.Language,
		Theme:     st.Theme,
		Home:      st.Home,
		Away:      st.Away,
		GameTime:  st.GameTime,
		ShotClock: st.ShotClock,
		Period:    st.Period,
		Events:    st.Events,
	}
}

func (st *State) load(p Persisted) error {
	if p.Version != PersistedVersion {
		return fmt.Errorf("persisted version %d, want %d", p.Version, PersistedVersion)
	}
	if err := p.Rules.Validate(); err != nil {
		return err
	}
	if p.Period < 1 || p.GameTime < 0 || p.ShotClock < 0 {
		return fmt.Errorf("%w: clock %d/%d period %d", ErrInvalidValue, p.GameTime, p.ShotClock, p.Period)
	}

	st.Rules = p.Rules.Clone()
	if p.Language == English || p.Language == Chinese {
		st.Language = p.Language
	}
	if p.Theme == ThemeDark || p.Theme == ThemeLight {
		st.Theme = p.Theme
	}
	st.Home = p.Home.clone()
	st.Away = p.Away.clone()
	st.GameTime = p.GameTime
	st.ShotClock = min(p.ShotClock, p.Rules.ShotClock)
	st.Period = p.Period
	st.Events = make([]Event, len(p.Events))
	for i, e := range p.Events {
		st.Events[i] = e.clone()
	}
	st.IsRunning = false
	return nil
}
