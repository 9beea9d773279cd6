// Package command turns keyboard input and keeper messages into game
// operations and runs them through a permission guard.
package command

import (
	"errors"
	"fmt"

	"ScoreTable/internal/game"
	"ScoreTable/internal/rules"

	"github.com/go-playground/validator/v10"
)

var (
	ErrParseFailed      = errors.New("could not parse command")
	ErrValidationFailed = errors.New("command validation failed")
)

type Kind string

const (
	AddScore            Kind = "addScore"
	SubtractScore       Kind = "subtractScore"
	StartTimer          Kind = "startTimer"
	PauseTimer          Kind = "pauseTimer"
	ToggleTimer         Kind = "toggleTimer"
	EndGame             Kind = "endGame"
	ResetShotClock      Kind = "resetShotClock"
	ResetGameTime       Kind = "resetGameTime"
	NextPeriod          Kind = "nextPeriod"
	AddFoul             Kind = "addFoul"
	CallTimeout         Kind = "callTimeout"
	SetPossession       Kind = "setPossession"
	TogglePossession    Kind = "togglePossession"
	AddPlayer           Kind = "addPlayer"
	RemovePlayer        Kind = "removePlayer"
	TogglePlayerOnCourt Kind = "togglePlayerOnCourt"
	RecordPlayerStat    Kind = "recordPlayerStat"
	SetRules            Kind = "setRules"
	SetTeamName         Kind = "setTeamName"
	SetTeamColor        Kind = "setTeamColor"
	NewGame             Kind = "newGame"
	Undo                Kind = "undo"
	Redo                Kind = "redo"
	ToggleFullscreen    Kind = "toggleFullscreen"
)

// Command is one requested operation with its arguments.
type Command struct {
	Type     Kind          `json:"type" validate:"required"`
	Team     game.Team     `json:"team,omitempty" validate:"omitempty,oneof=home away"`
	Points   int           `json:"points,omitempty"`
	PlayerID string        `json:"playerId,omitempty"`
	Full     bool          `json:"full,omitempty"`
	Stat     game.StatKind `json:"stat,omitempty" validate:"omitempty,oneof=assist rebound steal block turnover"`
	Delta    int           `json:"delta,omitempty"`
	Rules    rules.Name    `json:"rules,omitempty"`
	Name     string        `json:"name,omitempty" validate:"omitempty,max=64"`
	Number   string        `json:"number,omitempty" validate:"omitempty,max=8"`
	Color    string        `json:"color,omitempty" validate:"omitempty,max=32"`
}

var validate = validator.New()

// requirement lists the arguments each kind needs beyond its type.
type requirement struct {
	team, player, points, stat, rules, name, color bool
}

var requirements = map[Kind]requirement{
	AddScore:            {team: true, points: true},
	SubtractScore:       {team: true, points: true},
	StartTimer:          {},
	PauseTimer:          {},
	ToggleTimer:         {},
	EndGame:             {},
	ResetShotClock:      {},
	ResetGameTime:       {},
	NextPeriod:          {},
	AddFoul:             {team: true},
	CallTimeout:         {team: true},
	SetPossession:       {},
	TogglePossession:    {},
	AddPlayer:           {team: true},
	RemovePlayer:        {team: true, player: true},
	TogglePlayerOnCourt: {team: true, player: true},
	RecordPlayerStat:    {team: true, player: true, stat: true},
	SetRules:            {rules: true},
	SetTeamName:         {team: true, name: true},
	SetTeamColor:        {team: true, color: true},
	NewGame:             {},
	Undo:                {},
	Redo:                {},
	ToggleFullscreen:    {},
}

// Validate checks the arguments of c against its kind.
func (c Command) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	req, ok := requirements[c.Type]
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrValidationFailed, c.Type)
	}
	switch {
	case req.team && c.Team == "":
		return fmt.Errorf("%w: %s needs a team", ErrValidationFailed, c.Type)
	case req.player && c.PlayerID == "":
		return fmt.Errorf("%w: %s needs a player", ErrValidationFailed, c.Type)
	case req.points && c.Points <= 0:
		return fmt.Errorf("%w: %s needs positive points", ErrValidationFailed, c.Type)
	case req.stat && (c.Stat == "" || c.Delta == 0):
		return fmt.Errorf("%w: %s needs a stat and delta", ErrValidationFailed, c.Type)
	case req.rules && c.Rules == "":
		return fmt.Errorf("%w: %s needs a rule preset", ErrValidationFailed, c.Type)
	case req.name && c.Name == "":
		return fmt.Errorf("%w: %s needs a name", ErrValidationFailed, c.Type)
	case req.color && c.Color == "":
		return fmt.Errorf("%w: %s needs a color", ErrValidationFailed, c.Type)
	}
	return nil
}

// Target is the guarded set of game operations a command can reach.
type Target interface {
	AddScore(team game.Team, points int, playerID string) error
	SubtractScore(team game.Team, points int) error
	StartTimer() error
	PauseTimer() error
	ToggleTimer() error
	EndGame() error
	ResetShotClock(full bool) error
	ResetGameTime() error
	NextPeriod() error
	AddFoul(team game.Team, playerID string) error
	CallTimeout(team game.Team) error
	SetPossession(team game.Team) error
	TogglePossession() error
	AddPlayer(team game.Team, name, number string) (game.PlayerStat, error)
	RemovePlayer(team game.Team, playerID string) error
	TogglePlayerOnCourt(team game.Team, playerID string) error
	RecordPlayerStat(team game.Team, playerID string, kind game.StatKind, delta int) error
	SetRules(name rules.Name) error
	SetTeamName(team game.Team, name string) error
	SetTeamColor(team game.Team, color string) error
	NewGame() error
	Undo() error
	Redo() error
}

// Presenter handles the presentation-only commands, which need no permission.
type Presenter interface {
	ToggleFullscreen() error
}

// Execute validates c and runs it. Presentation commands go to p, which may
// be nil when there is nothing to present.
func Execute(t Target, p Presenter, c Command) error {
	if err := c.Validate(); err != nil {
		return err
	}

	switch c.Type {
	case AddScore:
		return t.AddScore(c.Team, c.Points, c.PlayerID)
	case SubtractScore:
		return t.SubtractScore(c.Team, c.Points)
	case StartTimer:
		return t.StartTimer()
	case PauseTimer:
		return t.PauseTimer()
	case ToggleTimer:
		return t.ToggleTimer()
	case EndGame:
		return t.EndGame()
	case ResetShotClock:
		return t.ResetShotClock(c.Full)
	case ResetGameTime:
		return t.ResetGameTime()
	case NextPeriod:
		return t.NextPeriod()
	case AddFoul:
		return t.AddFoul(c.Team, c.PlayerID)
	case CallTimeout:
		return t.CallTimeout(c.Team)
	case SetPossession:
		return t.SetPossession(c.Team)
	case TogglePossession:
		return t.TogglePossession()
	case AddPlayer:
		_, err := t.AddPlayer(c.Team, c.Name, c.Number)
		return err
	case RemovePlayer:
		return t.RemovePlayer(c.Team, c.PlayerID)
	case TogglePlayerOnCourt:
		return t.TogglePlayerOnCourt(c.Team, c.PlayerID)
	case RecordPlayerStat:
		return t.RecordPlayerStat(c.Team, c.PlayerID, c.Stat, c.Delta)
	case SetRules:
		return t.SetRules(c.Rules)
	case SetTeamName:
		return t.SetTeamName(c.Team, c.Name)
	case SetTeamColor:
		return t.SetTeamColor(c.Team, c.Color)
	case NewGame:
		return t.NewGame()
	case Undo:
		return t.Undo()
	case Redo:
		return t.Redo()
	case ToggleFullscreen:
		if p == nil {
			return nil
		}
		return p.ToggleFullscreen()
	}
	return fmt.Errorf("%w: unknown type %q", ErrValidationFailed, c.Type)
}
