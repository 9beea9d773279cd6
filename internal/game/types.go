package game

import (
	"ScoreTable/internal/rules"
)

// Team is one of the two sides of a game. The zero value means "no team".
type Team string

const (
	Home Team = "home"
	Away Team = "away"
)

func (t Team) Valid() bool {
	return t == Home || t == Away
}

// Other returns the opposing side.
func (t Team) Other() Team {
	switch t {
	case Home:
		return Away
	case Away:
		return Home
	default:
		return ""
	}
}

// SyncMode describes how this instance participates in a shared game.
type SyncMode string

const (
	ModeLocal  SyncMode = "local"
	ModeHost   SyncMode = "host"
	ModeViewer SyncMode = "viewer"
)

// Role is the referee role a synced client plays.
type Role string

const (
	RoleHost             Role = "host"
	RoleMainReferee      Role = "main_referee"
	RoleAssistantReferee Role = "assistant_referee"
	RoleTechnical        Role = "technical"
	RoleViewer           Role = "viewer"
)

// Roles lists every role in descending order of authority.
var Roles = []Role{RoleHost, RoleMainReferee, RoleAssistantReferee, RoleTechnical, RoleViewer}

// ParseRole validates s as a Role.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type PlayerStat struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Number        string `json:"number"`
	Points        int    `json:"points"`
	Fouls         int    `json:"fouls"`
	Assists       int    `json:"assists"`
	Rebounds      int    `json:"rebounds"`
	Steals        int    `json:"steals"`
	Blocks        int    `json:"blocks"`
	Turnovers     int    `json:"turnovers"`
	MinutesPlayed int    `json:"minutesPlayed"`
	IsOnCourt     bool   `json:"isOnCourt"`
}

// Label is the "#<number> <name>" form used in timeline descriptions.
func (p PlayerStat) Label() string {
	return "#" + p.Number + " " + p.Name
}

type TeamState struct {
	Name     string       `json:"name"`
	Color    string       `json:"color"`
	Score    int          `json:"score"`
	Fouls    int          `json:"fouls"`
	Timeouts int          `json:"timeouts"` // used, not remaining
	Players  []PlayerStat `json:"players"`
}

// Player finds a player by id and returns its index in the roster.
func (t TeamState) Player(id string) (PlayerStat, int, bool) {
	for i, p := range t.Players {
		if p.ID == id {
			return p, i, true
		}
	}
	return PlayerStat{}, -1, false
}

func (t TeamState) clone() TeamState {
	if t.Players != nil {
		players := make([]PlayerStat, len(t.Players))
		copy(players, t.Players)
		t.Players = players
	}
	return t
}

type EventType string

const (
	EventScore        EventType = "score"
	EventFoul         EventType = "foul"
	EventTimeout      EventType = "timeout"
	EventPeriodStart  EventType = "period_start"
	EventPeriodEnd    EventType = "period_end"
	EventSubstitution EventType = "substitution"
	EventAssist       EventType = "assist"
	EventRebound      EventType = "rebound"
	EventSteal        EventType = "steal"
	EventBlock        EventType = "block"
	EventTurnover     EventType = "turnover"
)

// Event is an immutable timeline entry.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   int64     `json:"timestamp"` // unix milliseconds
	GameTime    int       `json:"gameTime"`
	Period      int       `json:"period"`
	Type        EventType `json:"type"`
	Team        Team      `json:"team,omitempty"`
	PlayerID    string    `json:"playerId,omitempty"`
	Value       *int      `json:"value,omitempty"`
	Description string    `json:"description"`
}

func (e Event) clone() Event {
	if e.Value != nil {
		v := *e.Value
		e.Value = &v
	}
	return e
}

// StatKind names a player statistic recorded through RecordPlayerStat.
type StatKind string

const (
	StatAssist   StatKind = "assist"
	StatRebound  StatKind = "rebound"
	StatSteal    StatKind = "steal"
	StatBlock    StatKind = "block"
	StatTurnover StatKind = "turnover"
)

var statAbbrev = map[StatKind]string{
	StatAssist:   "AST",
	StatRebound:  "REB",
	StatSteal:    "STL",
	StatBlock:    "BLK",
	StatTurnover: "TO",
}

// counter returns the field of p that kind tracks.
func (k StatKind) counter(p *PlayerStat) *int {
	switch k {
	case StatAssist:
		return &p.Assists
	case StatRebound:
		return &p.Rebounds
	case StatSteal:
		return &p.Steals
	case StatBlock:
		return &p.Blocks
	case StatTurnover:
		return &p.Turnovers
	default:
		return nil
	}
}

func (k StatKind) eventType() EventType {
	return EventType(k)
}

type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// UIFlags are presentation toggles. They are never recorded in history or persisted.
type UIFlags struct {
	IsFullscreen    bool `json:"isFullscreen"`
	ShowPlayerStats bool `json:"showPlayerStats"`
	SelectedTeam    Team `json:"selectedTeam,omitempty"`
	AnimatingScore  Team `json:"animatingScore,omitempty"`
}

// State is the aggregate root of a game.
type State struct {
	Rules      rules.RuleSet `json:"rules"`
	IsRunning  bool          `json:"isRunning"`
	GameTime   int           `json:"gameTime"`
	ShotClock  int           `json:"shotClock"`
	Period     int           `json:"period"`
	Possession Team          `json:"possession,omitempty"`
	Home       TeamState     `json:"home"`
	Away       TeamState     `json:"away"`
	Events     []Event       `json:"events"`

	SyncMode    SyncMode `json:"syncMode"`
	RefereeRole Role     `json:"refereeRole,omitempty"`
	Language    Language `json:"language"`
	Theme       Theme    `json:"theme"`
	UI          UIFlags  `json:"ui"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.Rules = s.Rules.Clone()
	s.Home = s.Home.clone()
	s.Away = s.Away.clone()
	if s.Events != nil {
		events := make([]Event, len(s.Events))
		for i, e := range s.Events {
			events[i] = e.clone()
		}
		s.Events = events
	}
	return s
}

// Team returns the state of side t.
func (s State) Team(t Team) TeamState {
	if t == Away {
		return s.Away
	}
	return s.Home
}

func (s *State) team(t Team) *TeamState {
	switch t {
	case Home:
		return &s.Home
	case Away:
		return &s.Away
	default:
		return nil
	}
}

// IsOvertime reports whether the current period lies beyond regulation.
func (s State) IsOvertime() bool {
	return s.Rules.IsOvertime(s.Period)
}

// restoreFrom copies the game fields of snap into s and keeps the session
// fields (sync mode, role, preferences, UI flags) of s.
func (s *State) restoreFrom(snap State) {
	session := struct {
		mode     SyncMode
		role     Role
		language Language
		theme    Theme
		ui       UIFlags
	}{s.SyncMode, s.RefereeRole, s.Language, s.Theme, s.UI}

	*s = snap
	s.SyncMode = session.mode
	s.RefereeRole = session.role
	s.Language = session.language
	s.Theme = session.theme
	s.UI = session.ui
}
