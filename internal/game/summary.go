package game

import (
	"ScoreTable/internal/rules"
)

// TeamSummary is the slice of a team shared with remote peers. Rosters stay
// local.
type TeamSummary struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Fouls    int    `json:"fouls"`
	Timeouts int    `json:"timeouts"`
	Color    string `json:"color"`
}

// Summary is the slice of State replicated between host and viewers.
type Summary struct {
	Home       TeamSummary `json:"home"`
	Away       TeamSummary `json:"away"`
	GameTime   int         `json:"gameTime"`
	ShotClock  int         `json:"shotClock"`
	Period     int         `json:"period"`
	Possession Team        `json:"possession,omitempty"`
	IsRunning  bool        `json:"isRunning"`
	Rules      rules.Name  `json:"rules"`

	// CustomRules is set only for the custom rule set, which no preset describes.
	CustomRules *rules.RuleSet `json:"customRules,omitempty"`
}

// Equal compares summaries by value.
func (s Summary) Equal(o Summary) bool {
	a, b := s.CustomRules, o.CustomRules
	s.CustomRules, o.CustomRules = nil, nil
	if s != o {
		return false
	}
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func summarizeTeam(t TeamState) TeamSummary {
	return TeamSummary{
		Name:     t.Name,
		Score:    t.Score,
		Fouls:    t.Fouls,
		Timeouts: t.Timeouts,
		Color:    t.Color,
	}
}

func (t *TeamState) merge(sum TeamSummary) {
	t.Name = sum.Name
	t.Score = sum.Score
	t.Fouls = sum.Fouls
	t.Timeouts = sum.Timeouts
	t.Color = sum.Color
}

// Summary projects the replicated fields of s.
func (s State) Summary() Summary {
	sum := Summary{
		Home:       summarizeTeam(s.Home),
		Away:       summarizeTeam(s.Away),
		GameTime:   s.GameTime,
		ShotClock:  s.ShotClock,
		Period:     s.Period,
		Possession: s.Possession,
		IsRunning:  s.IsRunning,
		Rules:      s.Rules.Name,
	}
	if s.Rules.Name == rules.Custom {
		custom := s.Rules.Clone()
		sum.CustomRules = &custom
	}
	return sum
}

// ApplySummary merges a remote summary into the store without touching
// history, rosters or the timeline. A rule name that differs from the active
// one switches to that preset; unknown names are ignored. Custom rules are
// taken whole from the summary when they are valid. The shot clock never
// exceeds the resulting rule set.
func (s *Store) ApplySummary(sum Summary) error {
	return s.mutate("apply_remote", false, func(st *State) error {
		switch {
		case sum.Rules == rules.Custom && sum.CustomRules != nil:
			r := sum.CustomRules.Clone()
			r.Name = rules.Custom
			if err := r.Validate(); err != nil {
				s.logger.Warn().Err(err).Msg("remote custom rules invalid, keeping local")
			} else {
				st.Rules = r
			}
		case sum.Rules != st.Rules.Name:
			if r, err := rules.Lookup(sum.Rules); err == nil {
				st.Rules = r
			} else {
				s.logger.Warn().Str("rules", string(sum.Rules)).Msg("remote rule set unknown, keeping local")
			}
		}
		st.Home.merge(sum.Home)
		st.Away.merge(sum.Away)
		st.GameTime = max(0, sum.GameTime)
		st.ShotClock = min(max(0, sum.ShotClock), st.Rules.ShotClock)
		st.Period = max(1, sum.Period)
		if sum.Possession == "" || sum.Possession.Valid() {
			st.Possession = sum.Possession
		}
		st.IsRunning = sum.IsRunning
		return nil
	})
}
