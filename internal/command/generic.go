package command

import (
	"errors"
	"fmt"

	"ScoreTable/internal/game"
	"ScoreTable/internal/rules"
)

var (
	ErrNoValueForKey    = errors.New("no value found for key")
	ErrValueNotAsserted = errors.New("value could not be asserted to specified type")
)

// Generic is a decoded JSON object as received from a keeper connection.
type Generic map[string]any

// Parse reads a Command out of g. Unknown keys are ignored.
func (g Generic) Parse() (Command, error) {
	typ, err := stringFromMap(g, "type")
	if err != nil {
		return Command{}, fmt.Errorf("%w: type: %v", ErrParseFailed, err)
	}
	c := Command{Type: Kind(typ)}

	var str string
	fields := []struct {
		key string
		set func()
	}{
		{"team", func() { c.Team = game.Team(str) }},
		{"playerId", func() { c.PlayerID = str }},
		{"stat", func() { c.Stat = game.StatKind(str) }},
		{"rules", func() { c.Rules = rules.Name(str) }},
		{"name", func() { c.Name = str }},
		{"number", func() { c.Number = str }},
		{"color", func() { c.Color = str }},
	}
	for _, f := range fields {
		str, err = stringFromMap(g, f.key)
		if err = optional(err); err != nil {
			return Command{}, fmt.Errorf("%w: %s: %v", ErrParseFailed, f.key, err)
		}
		f.set()
	}

	if c.Points, err = intFromMap(g, "points"); optional(err) != nil {
		return Command{}, fmt.Errorf("%w: points: %v", ErrParseFailed, err)
	}
	if c.Delta, err = intFromMap(g, "delta"); optional(err) != nil {
		return Command{}, fmt.Errorf("%w: delta: %v", ErrParseFailed, err)
	}
	if c.Full, err = boolFromMap(g, "full"); optional(err) != nil {
		return Command{}, fmt.Errorf("%w: full: %v", ErrParseFailed, err)
	}
	return c, nil
}

func optional(err error) error {
	if errors.Is(err, ErrNoValueForKey) {
		return nil
	}
	return err
}

func stringFromMap(src map[string]any, key string) (string, error) {
	data, ok := src[key]
	if !ok || data == nil {
		return "", ErrNoValueForKey
	}
	value, ok := data.(string)
	if !ok {
		return "", ErrValueNotAsserted
	}
	return value, nil
}

// intFromMap accepts whole JSON numbers only.
func intFromMap(src map[string]any, key string) (int, error) {
	data, ok := src[key]
	if !ok || data == nil {
		return 0, ErrNoValueForKey
	}
	value, ok := data.(float64)
	if !ok || value != float64(int(value)) {
		return 0, ErrValueNotAsserted
	}
	return int(value), nil
}

func boolFromMap(src map[string]any, key string) (bool, error) {
	data, ok := src[key]
	if !ok || data == nil {
		return false, ErrNoValueForKey
	}
	value, ok := data.(bool)
	if !ok {
		return false, ErrValueNotAsserted
	}
	return value, nil
}
