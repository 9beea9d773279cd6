package command

import (
	"strings"

	"ScoreTable/internal/game"
)

// Key is a single key stroke with its modifiers. Code is the lower-cased
// key name, with "space" and "escape" spelled out.
type Key struct {
	Code  string
	Shift bool
	Ctrl  bool
}

// ParseKey reads strokes such as "2", "shift+r", "ctrl+z" or "space".
// "cmd" and "meta" count as ctrl.
func ParseKey(s string) (Key, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var k Key
	for i, p := range parts {
		if i == len(parts)-1 {
			k.Code = p
			break
		}
		switch p {
		case "shift":
			k.Shift = true
		case "ctrl", "cmd", "meta":
			k.Ctrl = true
		default:
			return Key{}, false
		}
	}
	switch k.Code {
	case "", " ":
		k.Code = "space"
	case "esc":
		k.Code = "escape"
	}
	return k, true
}

// FromKey maps a key stroke to the scorekeeper command bound to it.
func FromKey(k Key) (Command, bool) {
	if k.Ctrl {
		switch {
		case k.Code == "z" && k.Shift, k.Code == "y":
			return Command{Type: Redo}, true
		case k.Code == "z":
			return Command{Type: Undo}, true
		}
		return Command{}, false
	}

	switch k.Code {
	case "1":
		if k.Shift {
			return Command{Type: SubtractScore, Team: game.Home, Points: 1}, true
		}
		return Command{Type: AddScore, Team: game.Home, Points: 1}, true
	case "2":
		return Command{Type: AddScore, Team: game.Home, Points: 2}, true
	case "3":
		return Command{Type: AddScore, Team: game.Home, Points: 3}, true
	case "7":
		if k.Shift {
			return Command{Type: SubtractScore, Team: game.Away, Points: 1}, true
		}
		return Command{Type: AddScore, Team: game.Away, Points: 1}, true
	case "8":
		return Command{Type: AddScore, Team: game.Away, Points: 2}, true
	case "9":
		return Command{Type: AddScore, Team: game.Away, Points: 3}, true
	case "space":
		return Command{Type: ToggleTimer}, true
	case "r":
		return Command{Type: ResetShotClock, Full: !k.Shift}, true
	case "f":
		return Command{Type: AddFoul, Team: sideOf(k)}, true
	case "t":
		return Command{Type: CallTimeout, Team: sideOf(k)}, true
	case "q":
		return Command{Type: SetPossession, Team: game.Home}, true
	case "w":
		return Command{Type: SetPossession, Team: game.Away}, true
	case "p":
		return Command{Type: TogglePossession}, true
	case "n":
		return Command{Type: NextPeriod}, true
	case "escape":
		return Command{Type: ToggleFullscreen}, true
	}
	return Command{}, false
}

// sideOf picks Away for shifted strokes.
func sideOf(k Key) game.Team {
	if k.Shift {
		return game.Away
	}
	return game.Home
}
