package permissions

import (
	"ScoreTable/internal/game"
	"ScoreTable/internal/rules"
)

// Store is the set of game operations a Guard protects.
type Store interface {
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
	UpdatePlayerStats(team game.Team, playerID string, u game.PlayerUpdate) error
	TogglePlayerOnCourt(team game.Team, playerID string) error
	RecordPlayerStat(team game.Team, playerID string, kind game.StatKind, delta int) error
	SetRules(name rules.Name) error
	SetCustomRules(o rules.Overrides) error
	SetTeamName(team game.Team, name string) error
	SetTeamColor(team game.Team, color string) error
	NewGame() error
	Undo() error
	Redo() error
	Snapshot() game.State
}

// Guard checks capabilities before forwarding an operation to the store.
// The store itself never enforces permissions.
type Guard struct {
	store   Store
	resolve func() (Capabilities, game.Role)
}

// NewGuard resolves capabilities from the store's own sync mode and role on
// every call.
func NewGuard(store Store) *Guard {
	return &Guard{
		store: store,
		resolve: func() (Capabilities, game.Role) {
			st := store.Snapshot()
			return Resolve(st.SyncMode, st.RefereeRole), st.RefereeRole
		},
	}
}

// NewRoleGuard applies a fixed role, as used for remote keepers sharing one
// hosted store.
func NewRoleGuard(store Store, role game.Role) *Guard {
	caps := ForRole(role)
	return &Guard{
		store:   store,
		resolve: func() (Capabilities, game.Role) { return caps, role },
	}
}

func (g *Guard) Capabilities() Capabilities {
	caps, _ := g.resolve()
	return caps
}

func (g *Guard) check(op string, needed ...Capability) error {
	caps, role := g.resolve()
	for _, c := range needed {
		if !caps.Has(c) {
			return &DeniedError{Op: op, Capability: c, Role: role}
		}
	}
	return nil
}

func (g *Guard) AddScore(team game.Team, points int, playerID string) error {
	if err := g.check("addScore", Score); err != nil {
		return err
	}
	return g.store.AddScore(team, points, playerID)
}

func (g *Guard) SubtractScore(team game.Team, points int) error {
	if err := g.check("subtractScore", Score); err != nil {
		return err
	}
	return g.store.SubtractScore(team, points)
}

func (g *Guard) StartTimer() error {
	if err := g.check("startTimer", Timer); err != nil {
		return err
	}
	return g.store.StartTimer()
}

func (g *Guard) PauseTimer() error {
	if err := g.check("pauseTimer", Timer); err != nil {
		return err
	}
	return g.store.PauseTimer()
}

func (g *Guard) ToggleTimer() error {
	if err := g.check("toggleTimer", Timer); err != nil {
		return err
	}
	return g.store.ToggleTimer()
}

func (g *Guard) EndGame() error {
	if err := g.check("endGame", Timer); err != nil {
		return err
	}
	return g.store.EndGame()
}

func (g *Guard) ResetShotClock(full bool) error {
	if err := g.check("resetShotClock", Timer); err != nil {
		return err
	}
	return g.store.ResetShotClock(full)
}

func (g *Guard) ResetGameTime() error {
	if err := g.check("resetGameTime", Timer); err != nil {
		return err
	}
	return g.store.ResetGameTime()
}

func (g *Guard) NextPeriod() error {
	if err := g.check("nextPeriod", Period); err != nil {
		return err
	}
	return g.store.NextPeriod()
}

func (g *Guard) AddFoul(team game.Team, playerID string) error {
	if err := g.check("addFoul", Foul); err != nil {
		return err
	}
	return g.store.AddFoul(team, playerID)
}

func (g *Guard) CallTimeout(team game.Team) error {
	if err := g.check("callTimeout", Timeout); err != nil {
		return err
	}
	return g.store.CallTimeout(team)
}

func (g *Guard) SetPossession(team game.Team) error {
	if err := g.check("setPossession", Possession); err != nil {
		return err
	}
	return g.store.SetPossession(team)
}

func (g *Guard) TogglePossession() error {
	if err := g.check("togglePossession", Possession); err != nil {
		return err
	}
	return g.store.TogglePossession()
}

func (g *Guard) AddPlayer(team game.Team, name, number string) (game.PlayerStat, error) {
	if err := g.check("addPlayer", EditPlayers); err != nil {
		return game.PlayerStat{}, err
	}
	return g.store.AddPlayer(team, name, number)
}

func (g *Guard) RemovePlayer(team game.Team, playerID string) error {
	if err := g.check("removePlayer", EditPlayers); err != nil {
		return err
	}
	return g.store.RemovePlayer(team, playerID)
}

// UpdatePlayerStats needs Score for counter changes and EditPlayers for
// identity or court changes.
func (g *Guard) UpdatePlayerStats(team game.Team, playerID string, u game.PlayerUpdate) error {
	var needed []Capability
	if u.Points != nil || u.Fouls != nil || u.Assists != nil || u.Rebounds != nil ||
		u.Steals != nil || u.Blocks != nil || u.Turnovers != nil {
		needed = append(needed, Score)
	}
	if u.Name != nil || u.Number != nil || u.IsOnCourt != nil || u.MinutesPlayed != nil {
		needed = append(needed, EditPlayers)
	}
	if err := g.check("updatePlayerStats", needed...); err != nil {
		return err
	}
	return g.store.UpdatePlayerStats(team, playerID, u)
}

func (g *Guard) TogglePlayerOnCourt(team game.Team, playerID string) error {
	if err := g.check("togglePlayerOnCourt", EditPlayers); err != nil {
		return err
	}
	return g.store.TogglePlayerOnCourt(team, playerID)
}

func (g *Guard) RecordPlayerStat(team game.Team, playerID string, kind game.StatKind, delta int) error {
	if err := g.check("recordPlayerStat", Score); err != nil {
		return err
	}
	return g.store.RecordPlayerStat(team, playerID, kind, delta)
}

func (g *Guard) SetRules(name rules.Name) error {
	if err := g.check("setRules", EditSettings); err != nil {
		return err
	}
	return g.store.SetRules(name)
}

func (g *Guard) SetCustomRules(o rules.Overrides) error {
	if err := g.check("setCustomRules", EditSettings); err != nil {
		return err
	}
	return g.store.SetCustomRules(o)
}

func (g *Guard) SetTeamName(team game.Team, name string) error {
	if err := g.check("setTeamName", EditSettings); err != nil {
		return err
	}
	return g.store.SetTeamName(team, name)
}

func (g *Guard) SetTeamColor(team game.Team, color string) error {
	if err := g.check("setTeamColor", EditSettings); err != nil {
		return err
	}
	return g.store.SetTeamColor(team, color)
}

func (g *Guard) NewGame() error {
	if err := g.check("newGame", EditSettings); err != nil {
		return err
	}
	return g.store.NewGame()
}

// Undo requires both Score and Foul; so does Redo.
func (g *Guard) Undo() error {
	if err := g.check("undo", Score, Foul); err != nil {
		return err
	}
	return g.store.Undo()
}

func (g *Guard) Redo() error {
	if err := g.check("redo", Score, Foul); err != nil {
		return err
	}
	return g.store.Redo()
}
