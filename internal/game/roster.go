package game

import (
	"fmt"
)

// PlayerUpdate carries the fields to change on a player. Nil fields are kept;
// counters are clamped at zero.
type PlayerUpdate struct {
	Name          *string `json:"name,omitempty"`
	Number        *string `json:"number,omitempty"`
	Points        *int    `json:"points,omitempty"`
	Fouls         *int    `json:"fouls,omitempty"`
	Assists       *int    `json:"assists,omitempty"`
	Rebounds      *int    `json:"rebounds,omitempty"`
	Steals        *int    `json:"steals,omitempty"`
	Blocks        *int    `json:"blocks,omitempty"`
	Turnovers     *int    `json:"turnovers,omitempty"`
	MinutesPlayed *int    `json:"minutesPlayed,omitempty"`
	IsOnCourt     *bool   `json:"isOnCourt,omitempty"`
}

func (u PlayerUpdate) apply(p *PlayerStat) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Number != nil {
		p.Number = *u.Number
	}
	setCounter(&p.Points, u.Points)
	setCounter(&p.Fouls, u.Fouls)
	setCounter(&p.Assists, u.Assists)
	setCounter(&p.Rebounds, u.Rebounds)
	setCounter(&p.Steals, u.Steals)
	setCounter(&p.Blocks, u.Blocks)
	setCounter(&p.Turnovers, u.Turnovers)
	setCounter(&p.MinutesPlayed, u.MinutesPlayed)
	if u.IsOnCourt != nil {
		p.IsOnCourt = *u.IsOnCourt
	}
}

func setCounter(dst *int, src *int) {
	if src != nil {
		*dst = max(0, *src)
	}
}

// AddPlayer appends a player to the end of a roster. New players start on
// the bench.
func (s *Store) AddPlayer(team Team, name, number string) (PlayerStat, error) {
	var added PlayerStat
	err := s.mutate("add_player", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		if name == "" {
			name = fmt.Sprintf("Player %d", len(ts.Players)+1)
		}
		added = PlayerStat{ID: s.newID(), Name: name, Number: number}
		ts.Players = append(ts.Players, added)
		return nil
	})
	return added, err
}

func (s *Store) RemovePlayer(team Team, playerID string) error {
	return s.mutate("remove_player", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		_, i, ok := ts.Player(playerID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrPlayerNotFound, playerID)
		}
		ts.Players = append(ts.Players[:i], ts.Players[i+1:]...)
		return nil
	})
}

func (s *Store) UpdatePlayerStats(team Team, playerID string, u PlayerUpdate) error {
	return s.mutate("update_player", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		p, err := playerOf(ts, playerID)
		if err != nil {
			return err
		}
		u.apply(p)
		return nil
	})
}

func (s *Store) TogglePlayerOnCourt(team Team, playerID string) error {
	return s.mutate("toggle_on_court", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		p, err := playerOf(ts, playerID)
		if err != nil {
			return err
		}
		p.IsOnCourt = !p.IsOnCourt
		return nil
	})
}

// RecordPlayerStat adjusts one of a player's counting stats. Only positive
// deltas produce a timeline entry; corrections adjust the counter silently.
func (s *Store) RecordPlayerStat(team Team, playerID string, kind StatKind, delta int) error {
	return s.mutate("record_stat", true, func(st *State) error {
		ts, err := teamOf(st, team)
		if err != nil {
			return err
		}
		p, err := playerOf(ts, playerID)
		if err != nil {
			return err
		}
		counter := kind.counter(p)
		if counter == nil {
			return fmt.Errorf("%w: %q", ErrUnknownStat, kind)
		}
		next := max(0, *counter+delta)
		if next == *counter {
			return errUnchanged
		}
		*counter = next
		if delta > 0 {
			s.appendEvent(st, kind.eventType(), team, playerID, intPtr(delta), p.Label()+" "+statAbbrev[kind])
		}
		return nil
	})
}
