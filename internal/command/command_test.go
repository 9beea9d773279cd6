package command

import (
	json2 "encoding/json"
	"testing"

	"ScoreTable/internal/game"
	"ScoreTable/internal/permissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Target = (*permissions.Guard)(nil)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
		ok   bool
	}{
		{"2", Key{Code: "2"}, true},
		{"Shift+R", Key{Code: "r", Shift: true}, true},
		{"ctrl+shift+z", Key{Code: "z", Shift: true, Ctrl: true}, true},
		{"cmd+y", Key{Code: "y", Ctrl: true}, true},
		{" ", Key{Code: "space"}, true},
		{"esc", Key{Code: "escape"}, true},
		{"alt+x", Key{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseKey(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want Command
	}{
		{"1", Command{Type: AddScore, Team: game.Home, Points: 1}},
		{"shift+1", Command{Type: SubtractScore, Team: game.Home, Points: 1}},
		{"3", Command{Type: AddScore, Team: game.Home, Points: 3}},
		{"8", Command{Type: AddScore, Team: game.Away, Points: 2}},
		{"shift+7", Command{Type: SubtractScore, Team: game.Away, Points: 1}},
		{"space", Command{Type: ToggleTimer}},
		{"r", Command{Type: ResetShotClock, Full: true}},
		{"shift+r", Command{Type: ResetShotClock}},
		{"f", Command{Type: AddFoul, Team: game.Home}},
		{"shift+f", Command{Type: AddFoul, Team: game.Away}},
		{"shift+t", Command{Type: CallTimeout, Team: game.Away}},
		{"q", Command{Type: SetPossession, Team: game.Home}},
		{"w", Command{Type: SetPossession, Team: game.Away}},
		{"p", Command{Type: TogglePossession}},
		{"n", Command{Type: NextPeriod}},
		{"ctrl+z", Command{Type: Undo}},
		{"ctrl+shift+z", Command{Type: Redo}},
		{"ctrl+y", Command{Type: Redo}},
		{"escape", Command{Type: ToggleFullscreen}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			k, ok := ParseKey(tt.key)
			require.True(t, ok)
			got, ok := FromKey(k)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}

	_, ok := FromKey(Key{Code: "x"})
	assert.False(t, ok)
	_, ok = FromKey(Key{Code: "2", Ctrl: true})
	assert.False(t, ok)
}

func TestGenericParse(t *testing.T) {
	var g Generic
	require.NoError(t, json2.Unmarshal([]byte(`{"type":"recordPlayerStat","team":"away","playerId":"p1","stat":"steal","delta":1,"extra":true}`), &g))

	c, err := g.Parse()
	require.NoError(t, err)
	assert.Equal(t, Command{Type: RecordPlayerStat, Team: game.Away, PlayerID: "p1", Stat: game.StatSteal, Delta: 1}, c)
	assert.NoError(t, c.Validate())
}

func TestGenericParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   Generic
	}{
		{"missing type", Generic{"team": "home"}},
		{"type not string", Generic{"type": 4}},
		{"points not integer", Generic{"type": "addScore", "team": "home", "points": 1.5}},
		{"full not bool", Generic{"type": "resetShotClock", "full": "yes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Parse()
			assert.ErrorIs(t, err, ErrParseFailed)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		c    Command
		ok   bool
	}{
		{"score", Command{Type: AddScore, Team: game.Home, Points: 2}, true},
		{"score without team", Command{Type: AddScore, Points: 2}, false},
		{"score without points", Command{Type: AddScore, Team: game.Home}, false},
		{"bad team", Command{Type: AddFoul, Team: "court"}, false},
		{"clear possession", Command{Type: SetPossession}, true},
		{"stat without delta", Command{Type: RecordPlayerStat, Team: game.Home, PlayerID: "p", Stat: game.StatBlock}, false},
		{"bad stat", Command{Type: RecordPlayerStat, Team: game.Home, PlayerID: "p", Stat: "dunk", Delta: 1}, false},
		{"rules", Command{Type: SetRules, Rules: "nba"}, true},
		{"unknown", Command{Type: "fly"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidationFailed)
			}
		})
	}
}

func TestExecuteThroughGuard(t *testing.T) {
	store := game.NewStore(game.WithScoreAnimation(0))
	defer store.Close()
	require.NoError(t, store.SetSync(game.ModeViewer, game.RoleTechnical))
	guard := permissions.NewGuard(store)

	press := func(key string) error {
		k, ok := ParseKey(key)
		require.True(t, ok)
		c, ok := FromKey(k)
		require.True(t, ok)
		return Execute(guard, store, c)
	}

	require.NoError(t, press("space"))
	assert.True(t, store.Snapshot().IsRunning)
	require.NoError(t, press("n"))
	assert.Equal(t, 2, store.Snapshot().Period)

	assert.ErrorIs(t, press("2"), permissions.ErrNotPermitted)
	assert.ErrorIs(t, press("ctrl+z"), permissions.ErrNotPermitted)
	assert.Zero(t, store.Snapshot().Home.Score)

	require.NoError(t, press("escape"))
	assert.True(t, store.Snapshot().UI.IsFullscreen)
}
