// Package permissions maps a sync mode and referee role to the operations a
// client may perform, and guards a store with that policy.
package permissions

import (
	"errors"
	"fmt"

	"ScoreTable/internal/game"
)

var ErrNotPermitted = errors.New("operation not permitted")

// Capability names one independently granted permission.
type Capability string

const (
	Score        Capability = "score"
	Foul         Capability = "foul"
	Timeout      Capability = "timeout"
	Timer        Capability = "timer"
	Period       Capability = "period"
	Possession   Capability = "possession"
	EditPlayers  Capability = "editPlayers"
	EditSettings Capability = "editSettings"
)

type Capabilities struct {
	CanScore        bool `json:"canScore"`
	CanFoul         bool `json:"canFoul"`
	CanTimeout      bool `json:"canTimeout"`
	CanTimer        bool `json:"canTimer"`
	CanPeriod       bool `json:"canPeriod"`
	CanPossession   bool `json:"canPossession"`
	CanEditPlayers  bool `json:"canEditPlayers"`
	CanEditSettings bool `json:"canEditSettings"`
}

var all = Capabilities{true, true, true, true, true, true, true, true}

var byRole = map[game.Role]Capabilities{
	game.RoleHost: all,
	game.RoleMainReferee: {
		CanScore:      true,
		CanFoul:       true,
		CanTimeout:    true,
		CanTimer:      true,
		CanPeriod:     true,
		CanPossession: true,
	},
	game.RoleAssistantReferee: {
		CanFoul:       true,
		CanTimeout:    true,
		CanPossession: true,
	},
	game.RoleTechnical: {
		CanTimer:  true,
		CanPeriod: true,
	},
	game.RoleViewer: {},
}

// Resolve returns the capabilities of a client. Local play and hosting grant
// everything regardless of any stale role; a viewer without a role gets
// nothing.
func Resolve(mode game.SyncMode, role game.Role) Capabilities {
	if mode != game.ModeViewer {
		return all
	}
	return byRole[role]
}

// ForRole resolves a role as if the client had joined with it. The host role
// keeps full capabilities.
func ForRole(role game.Role) Capabilities {
	return byRole[role]
}

func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case Score:
		return c.CanScore
	case Foul:
		return c.CanFoul
	case Timeout:
		return c.CanTimeout
	case Timer:
		return c.CanTimer
	case Period:
		return c.CanPeriod
	case Possession:
		return c.CanPossession
	case EditPlayers:
		return c.CanEditPlayers
	case EditSettings:
		return c.CanEditSettings
	default:
		return false
	}
}

// Any reports whether at least one capability is granted.
func (c Capabilities) Any() bool {
	return c != Capabilities{}
}

// DeniedError reports the capability an operation lacked.
type DeniedError struct {
	Op         string
	Capability Capability
	Role       game.Role
}

func (e *DeniedError) Error() string {
	role := string(e.Role)
	if role == "" {
		role = "no role"
	}
	return fmt.Sprintf("%s: %s requires %s (%s)", ErrNotPermitted, e.Op, e.Capability, role)
}

func (e *DeniedError) Unwrap() error {
	return ErrNotPermitted
}
