package game

import (
	"fmt"

	"ScoreTable/internal/rules"
)

// SetRules switches to a preset and hard-resets the game and shot clocks to
// the preset's values.
func (s *Store) SetRules(name rules.Name) error {
	r, err := rules.Lookup(name)
	if err != nil {
		return err
	}
	return s.mutate("set_rules", true, func(st *State) error {
		st.Rules = r
		st.GameTime = r.PeriodLengthFor(st.Period)
		st.ShotClock = r.ShotClock
		return nil
	})
}

// SetCustomRules merges overrides into the active rule set. The clocks keep
// running from their current values; only the shot clock is clamped to the
// new maximum.
func (s *Store) SetCustomRules(o rules.Overrides) error {
	return s.mutate("set_custom_rules", true, func(st *State) error {
		r, err := st.Rules.Apply(o)
		if err != nil {
			return err
		}
		st.Rules = r
		st.ShotClock = min(st.ShotClock, r.ShotClock)
		return nil
	})
}

func (s *Store) SetTeamName(team Team, name string) error {
	return s.mutate("set_team_name", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		if name == "" {
			return fmt.Errorf("%w: empty team name", ErrInvalidValue)
		}
		ts.Name = name
		return nil
	})
}

func (s *Store) SetTeamColor(team Team, color string) error {
	return s.mutate("set_team_color", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		ts.Color = color
		return nil
	})
}

// NewGame clears scores, fouls, timeouts, the timeline and history. Team
// names, colors and the rule set are kept; rosters are regenerated.
func (s *Store) NewGame() error {
	return s.mutate("new_game", false, func(st *State) error {
		s.history.Clear()

		st.IsRunning = false
		st.Period = 1
		st.GameTime = st.Rules.PeriodLength
		st.ShotClock = st.Rules.ShotClock
		st.Possession = ""
		st.Events = []Event{}
		for _, ts := range []*TeamState{&st.Home, &st.Away} {
			ts.Score = 0
			ts.Fouls = 0
			ts.Timeouts = 0
			ts.Players = s.defaultRoster()
		}
		st.UI.AnimatingScore = ""
		return nil
	})
}

// Undo restores the state before the most recent recorded operation.
func (s *Store) Undo() error {
	return s.mutate("undo", false, func(st *State) error {
		snap, ok := s.history.Undo(*st)
		if !ok {
			return errUnchanged
		}
		st.restoreFrom(snap)
		return nil
	})
}

func (s *Store) Redo() error {
	return s.mutate("redo", false, func(st *State) error {
		snap, ok := s.history.Redo()
		if !ok {
			return errUnchanged
		}
		st.restoreFrom(snap)
		return nil
	})
}

// SetSync records how this instance takes part in a shared game. Local mode
// always clears the role.
func (s *Store) SetSync(mode SyncMode, role Role) error {
	return s.mutate("set_sync", false, func(st *State) error {
		switch mode {
		case ModeLocal:
			role = ""
		case ModeHost, ModeViewer:
		default:
			return fmt.Errorf("%w: sync mode %q", ErrInvalidValue, mode)
		}
		if st.SyncMode == mode && st.RefereeRole == role {
			return errUnchanged
		}
		st.SyncMode = mode
		st.RefereeRole = role
		return nil
	})
}

func (s *Store) SetLanguage(lang Language) error {
	return s.mutate("set_language", false, func(st *State) error {
		if lang != English && lang != Chinese {
			return fmt.Errorf("%w: language %q", ErrInvalidValue, lang)
		}
		st.Language = lang
		return nil
	})
}

func (s *Store) SetTheme(theme Theme) error {
	return s.mutate("set_theme", false, func(st *State) error {
		if theme != ThemeDark && theme != ThemeLight {
			return fmt.Errorf("%w: theme %q", ErrInvalidValue, theme)
		}
		st.Theme = theme
		return nil
	})
}

func (s *Store) ToggleFullscreen() error {
	return s.mutate("toggle_fullscreen", false, func(st *State) error {
		st.UI.IsFullscreen = !st.UI.IsFullscreen
		return nil
	})
}

func (s *Store) SetFullscreen(on bool) error {
	return s.setUI("set_fullscreen", func(ui *UIFlags) { ui.IsFullscreen = on })
}

func (s *Store) SetShowPlayerStats(on bool) error {
	return s.setUI("set_show_player_stats", func(ui *UIFlags) { ui.ShowPlayerStats = on })
}

func (s *Store) SetSelectedTeam(team Team) error {
	if team != "" && !team.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	return s.setUI("set_selected_team", func(ui *UIFlags) { ui.SelectedTeam = team })
}

// ClearAnimatingScore drops the score-changed flag.
func (s *Store) ClearAnimatingScore() {
	_ = s.setUI("clear_animating_score", func(ui *UIFlags) { ui.AnimatingScore = "" })
}

func (s *Store) setUI(op string, fn func(*UIFlags)) error {
	return s.mutate(op, false, func(st *State) error {
		before := st.UI
		fn(&st.UI)
		if st.UI == before {
			return errUnchanged
		}
		return nil
	})
}
