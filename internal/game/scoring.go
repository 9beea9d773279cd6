package game

import (
	"fmt"
)

// AddScore adds points to a team. A named player is credited with the same
// points and named in the timeline entry.
func (s *Store) AddScore(team Team, points int, playerID string) error {
	if points == 0 {
		return nil
	}
	err := s.mutate("add_score", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("%s %+d", ts.Name, points)
		if playerID != "" {
			p, err := playerOf(ts, playerID)
			if err != nil {
				return err
			}
			p.Points = max(0, p.Points+points)
			desc = fmt.Sprintf("%s %+d", p.Label(), points)
		}
		ts.Score = max(0, ts.Score+points)
		st.UI.AnimatingScore = team
		s.appendEvent(st, EventScore, team, playerID, intPtr(points), desc)
		return nil
	})
	if err == nil {
		s.animate()
	}
	return err
}

// SubtractScore lowers a team's score, never below zero.
func (s *Store) SubtractScore(team Team, points int) error {
	return s.mutate("subtract_score", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		if points < 0 {
			return fmt.Errorf("%w: points %d", ErrInvalidValue, points)
		}
		score := max(0, ts.Score-points)
		if score == ts.Score {
			return errUnchanged
		}
		ts.Score = score
		return nil
	})
}

// AddFoul charges a team foul and, when playerID is set, a personal foul.
func (s *Store) AddFoul(team Team, playerID string) error {
	return s.mutate("add_foul", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		ts.Fouls++
		desc := ts.Name + " foul"
		if playerID != "" {
			p, err := playerOf(ts, playerID)
			if err != nil {
				return err
			}
			p.Fouls++
			desc = fmt.Sprintf("%s foul (%d), team fouls %d", p.Label(), p.Fouls, ts.Fouls)
		}
		s.appendEvent(st, EventFoul, team, playerID, nil, desc)
		return nil
	})
}

// CallTimeout charges a timeout and pauses the clock. It fails with
// ErrTimeoutsExhausted once the team has used its allowance.
func (s *Store) CallTimeout(team Team) error {
	return s.mutate("call_timeout", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		if ts.Timeouts >= st.Rules.MaxTimeoutsPerHalf {
			return fmt.Errorf("%w: %s used %d", ErrTimeoutsExhausted, team, ts.Timeouts)
		}
		ts.Timeouts++
		st.IsRunning = false
		s.appendEvent(st, EventTimeout, team, "", nil, ts.Name+" timeout")
		return nil
	})
}

func (s *Store) SetPossession(team Team) error {
	return s.mutate("set_possession", true, func(st *State) error {
		if team != "" && !team.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
		}
		if st.Possession == team {
			return errUnchanged
		}
		st.Possession = team
		return nil
	})
}

// TogglePossession flips possession, starting with Home when unset.
func (s *Store) TogglePossession() error {
	return s.mutate("toggle_possession", true, func(st *State) error {
		if st.Possession == Home {
			st.Possession = Away
		} else {
			st.Possession = Home
		}
		return nil
	})
}
