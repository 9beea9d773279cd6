package game

import (
	"fmt"
	"testing"
	"time"

	"ScoreTable/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	n := 0
	base := []Option{
		WithScoreAnimation(0),
		WithClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	}
	s := NewStore(append(base, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func shortPeriod(t *testing.T, s *Store, seconds int) {
	t.Helper()
	length := rules.Clock(seconds)
	require.NoError(t, s.SetCustomRules(rules.Overrides{PeriodLength: &length}))
	require.NoError(t, s.ResetGameTime())
}

func TestNewStoreDefaults(t *testing.T) {
	s := newTestStore(t)
	st := s.Snapshot()

	assert.Equal(t, rules.FIBA, st.Rules.Name)
	assert.Equal(t, 600, st.GameTime)
	assert.Equal(t, 24, st.ShotClock)
	assert.Equal(t, 1, st.Period)
	assert.Equal(t, ModeLocal, st.SyncMode)
	assert.Len(t, st.Home.Players, DefaultRosterSize)
	assert.Len(t, st.Away.Players, DefaultRosterSize)
	assert.True(t, st.Home.Players[0].IsOnCourt)
	assert.Equal(t, "1", st.Home.Players[0].Number)
	assert.Empty(t, st.Events)
	assert.False(t, s.CanUndo())
}

func TestTickClockMonotonicity(t *testing.T) {
	s := newTestStore(t)
	shortPeriod(t, s, 30)
	require.NoError(t, s.StartTimer())

	prev := s.Snapshot()
	for i := 0; i < 40; i++ {
		running := s.Tick()
		cur := s.Snapshot()

		assert.LessOrEqual(t, cur.GameTime, prev.GameTime)
		assert.LessOrEqual(t, cur.ShotClock, prev.ShotClock)
		assert.GreaterOrEqual(t, cur.GameTime, 0)
		assert.GreaterOrEqual(t, cur.ShotClock, 0)
		assert.Equal(t, cur.GameTime > 0, cur.IsRunning, "tick %d", i)
		assert.Equal(t, cur.IsRunning, running)
		prev = cur
	}
	assert.Equal(t, 0, prev.GameTime)
	assert.Equal(t, 0, prev.ShotClock)
}

func TestTickWhilePausedIsNoop(t *testing.T) {
	s := newTestStore(t)
	before := s.Snapshot()

	assert.False(t, s.Tick())
	assert.Equal(t, before, s.Snapshot())
}

func TestShotClockDoesNotAutoReset(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.StartTimer())
	for i := 0; i < 30; i++ {
		s.Tick()
	}
	st := s.Snapshot()
	assert.Equal(t, 0, st.ShotClock)
	assert.Equal(t, 570, st.GameTime)
	assert.True(t, st.IsRunning)
}

func TestPauseKeepsShotClock(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.StartTimer())
	s.Tick()
	s.Tick()
	require.NoError(t, s.PauseTimer())

	st := s.Snapshot()
	assert.False(t, st.IsRunning)
	assert.Equal(t, 22, st.ShotClock)
}

func TestResetShotClock(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.StartTimer())
	for i := 0; i < 15; i++ {
		s.Tick()
	}

	require.NoError(t, s.ResetShotClock(false))
	assert.Equal(t, 14, s.Snapshot().ShotClock)
	require.NoError(t, s.ResetShotClock(true))
	assert.Equal(t, 24, s.Snapshot().ShotClock)
}

func TestNextPeriodResetsFouls(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, s.AddFoul(Home, ""))
	}
	require.NoError(t, s.AddFoul(Away, ""))
	require.NoError(t, s.StartTimer())

	require.NoError(t, s.NextPeriod())

	st := s.Snapshot()
	assert.Equal(t, 2, st.Period)
	assert.Zero(t, st.Home.Fouls)
	assert.Zero(t, st.Away.Fouls)
	assert.False(t, st.IsRunning)
	assert.Equal(t, 600, st.GameTime)
	assert.Equal(t, 24, st.ShotClock)

	last := st.Events[len(st.Events)-1]
	assert.Equal(t, EventPeriodStart, last.Type)
	assert.Equal(t, "Period 2", last.Description)
}

func TestNextPeriodRollsIntoOvertime(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, s.NextPeriod())
	}

	st := s.Snapshot()
	assert.Equal(t, 5, st.Period)
	assert.True(t, st.IsOvertime())
	assert.Equal(t, st.Rules.OvertimeLength, st.GameTime)
	assert.Equal(t, "Overtime 1", st.Events[len(st.Events)-1].Description)
}

func TestCallTimeoutCap(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CallTimeout(Home))
	require.NoError(t, s.CallTimeout(Home))

	before := s.Snapshot()
	err := s.CallTimeout(Home)

	assert.ErrorIs(t, err, ErrTimeoutsExhausted)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 2, before.Home.Timeouts)

	require.NoError(t, s.Undo())
	assert.Equal(t, 1, s.Snapshot().Home.Timeouts, "rejected call must not add a history entry")
}

func TestCallTimeoutPauses(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.StartTimer())
	require.NoError(t, s.CallTimeout(Away))

	st := s.Snapshot()
	assert.False(t, st.IsRunning)
	assert.Equal(t, "AWAY timeout", st.Events[0].Description)
}

func TestSubtractScoreNeverNegative(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		subtract int
		want     int
	}{
		{"within score", 10, 3, 7},
		{"to zero", 3, 3, 0},
		{"past zero", 2, 5, 0},
		{"from zero", 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if tt.start > 0 {
				require.NoError(t, s.AddScore(Home, tt.start, ""))
			}
			require.NoError(t, s.SubtractScore(Home, tt.subtract))
			assert.Equal(t, tt.want, s.Snapshot().Home.Score)
		})
	}
}

func TestAddScoreDescriptions(t *testing.T) {
	s := newTestStore(t)
	player := s.Snapshot().Home.Players[2]

	require.NoError(t, s.AddScore(Home, 2, ""))
	require.NoError(t, s.AddScore(Home, 3, player.ID))

	st := s.Snapshot()
	assert.Equal(t, 5, st.Home.Score)
	assert.Equal(t, 3, st.Home.Players[2].Points)
	require.Len(t, st.Events, 2)
	assert.Equal(t, "HOME +2", st.Events[0].Description)
	assert.Equal(t, "#3 Player 3 +3", st.Events[1].Description)
	assert.Equal(t, player.ID, st.Events[1].PlayerID)
	assert.Equal(t, 3, *st.Events[1].Value)
	assert.Equal(t, int64(1_700_000_000_000), st.Events[1].Timestamp)
	assert.Equal(t, Home, st.UI.AnimatingScore)

	// team score, player points and the event come back in one step
	require.NoError(t, s.Undo())
	st = s.Snapshot()
	assert.Equal(t, 2, st.Home.Score)
	assert.Zero(t, st.Home.Players[2].Points)
	assert.Len(t, st.Events, 1)
}

func TestAddScoreRejections(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.AddScore("visitors", 2, ""), ErrUnknownTeam)
	assert.ErrorIs(t, s.AddScore(Away, 2, "nobody"), ErrPlayerNotFound)
	assert.False(t, s.CanUndo())
	assert.Empty(t, s.Snapshot().Events)
}

func TestScoreAnimationClears(t *testing.T) {
	s := newTestStore(t, WithScoreAnimation(10*time.Millisecond))
	require.NoError(t, s.AddScore(Away, 1, ""))
	assert.Equal(t, Away, s.Snapshot().UI.AnimatingScore)

	assert.Eventually(t, func() bool {
		return s.Snapshot().UI.AnimatingScore == ""
	}, time.Second, 5*time.Millisecond)
}

func TestAddFoulWithPlayer(t *testing.T) {
	s := newTestStore(t)
	p := s.Snapshot().Away.Players[0]

	require.NoError(t, s.AddFoul(Away, ""))
	require.NoError(t, s.AddFoul(Away, p.ID))

	st := s.Snapshot()
	assert.Equal(t, 2, st.Away.Fouls)
	assert.Equal(t, 1, st.Away.Players[0].Fouls)
	assert.Equal(t, "AWAY foul", st.Events[0].Description)
	assert.Equal(t, "#1 Player 1 foul (1), team fouls 2", st.Events[1].Description)
}

func TestPossession(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.TogglePossession())
	assert.Equal(t, Home, s.Snapshot().Possession)
	require.NoError(t, s.TogglePossession())
	assert.Equal(t, Away, s.Snapshot().Possession)
	require.NoError(t, s.TogglePossession())
	assert.Equal(t, Home, s.Snapshot().Possession)

	require.NoError(t, s.SetPossession(""))
	assert.Equal(t, Team(""), s.Snapshot().Possession)
	assert.ErrorIs(t, s.SetPossession("court"), ErrUnknownTeam)
}

func TestSetRulesResetsClock(t *testing.T) {
	s := newTestStore(t)
	shortPeriod(t, s, 40)
	require.NoError(t, s.StartTimer())
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	require.Equal(t, 37, s.Snapshot().GameTime)

	require.NoError(t, s.SetRules(rules.NBA))

	st := s.Snapshot()
	assert.Equal(t, 12*60, st.GameTime)
	assert.Equal(t, 24, st.ShotClock)
	assert.Equal(t, rules.NBA, st.Rules.Name)

	assert.ErrorIs(t, s.SetRules("streetball"), rules.ErrUnknownPreset)
}

func TestSetCustomRules(t *testing.T) {
	s := newTestStore(t)
	shot := 12
	reset := 12
	require.NoError(t, s.SetCustomRules(rules.Overrides{ShotClock: &shot, ShotClockReset: &reset}))

	st := s.Snapshot()
	assert.Equal(t, rules.Custom, st.Rules.Name)
	assert.Equal(t, 12, st.ShotClock)
	assert.Equal(t, 600, st.GameTime)

	bonus := 1
	assert.ErrorIs(t, s.SetCustomRules(rules.Overrides{BonusFouls: &bonus}), rules.ErrInvalidRules)
}

func TestRosterOperations(t *testing.T) {
	s := newTestStore(t)

	added, err := s.AddPlayer(Home, "Rivera", "23")
	require.NoError(t, err)
	assert.False(t, added.IsOnCourt)

	st := s.Snapshot()
	require.Len(t, st.Home.Players, 6)
	assert.Equal(t, added, st.Home.Players[5])

	require.NoError(t, s.TogglePlayerOnCourt(Home, added.ID))
	name := "Rivera Jr."
	fouls := -3
	require.NoError(t, s.UpdatePlayerStats(Home, added.ID, PlayerUpdate{Name: &name, Fouls: &fouls}))

	p, _, ok := s.Snapshot().Home.Player(added.ID)
	require.True(t, ok)
	assert.True(t, p.IsOnCourt)
	assert.Equal(t, "Rivera Jr.", p.Name)
	assert.Zero(t, p.Fouls)

	first := st.Home.Players[0].ID
	require.NoError(t, s.RemovePlayer(Home, first))
	st = s.Snapshot()
	assert.Len(t, st.Home.Players, 5)
	assert.Equal(t, "2", st.Home.Players[0].Number)
	assert.Empty(t, st.Events, "roster edits never reach the timeline")

	assert.ErrorIs(t, s.RemovePlayer(Home, first), ErrPlayerNotFound)
}

func TestRecordPlayerStat(t *testing.T) {
	s := newTestStore(t)
	p := s.Snapshot().Home.Players[0]

	require.NoError(t, s.RecordPlayerStat(Home, p.ID, StatAssist, 1))
	require.NoError(t, s.RecordPlayerStat(Home, p.ID, StatAssist, 1))
	require.NoError(t, s.RecordPlayerStat(Home, p.ID, StatAssist, -1))
	require.NoError(t, s.RecordPlayerStat(Home, p.ID, StatTurnover, -1))

	st := s.Snapshot()
	assert.Equal(t, 1, st.Home.Players[0].Assists)
	assert.Zero(t, st.Home.Players[0].Turnovers)
	require.Len(t, st.Events, 2)
	assert.Equal(t, EventAssist, st.Events[0].Type)
	assert.Equal(t, "#1 Player 1 AST", st.Events[0].Description)

	assert.ErrorIs(t, s.RecordPlayerStat(Home, p.ID, "dunks", 1), ErrUnknownStat)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := s.Snapshot().Away.Players[1]

	ops := []func() error{
		func() error { return s.AddScore(Home, 2, "") },
		func() error { return s.AddFoul(Away, p.ID) },
		func() error { return s.StartTimer() },
		func() error { return s.PauseTimer() },
		func() error { return s.CallTimeout(Home) },
		func() error { return s.AddScore(Away, 3, p.ID) },
		func() error { return s.TogglePossession() },
		func() error { return s.RecordPlayerStat(Away, p.ID, StatRebound, 1) },
		func() error { return s.NextPeriod() },
		func() error { return s.SetTeamName(Home, "Lions") },
	}
	for _, op := range ops {
		require.NoError(t, op())
	}
	want := s.Snapshot()

	for range ops {
		require.NoError(t, s.Undo())
	}
	initial := s.Snapshot()
	assert.Zero(t, initial.Home.Score)
	assert.Empty(t, initial.Events)
	assert.False(t, s.CanUndo())

	for range ops {
		require.NoError(t, s.Redo())
	}
	assert.Equal(t, want, s.Snapshot())
	assert.False(t, s.CanRedo())
}

func TestHistoryTruncationOnBranch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddScore(Home, 1, ""))
	require.NoError(t, s.AddScore(Home, 2, ""))
	require.NoError(t, s.Undo())
	assert.True(t, s.CanRedo())

	require.NoError(t, s.AddScore(Away, 3, ""))
	assert.False(t, s.CanRedo())

	before := s.Snapshot()
	require.NoError(t, s.Redo())
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, before.Home.Score)
	assert.Equal(t, 3, before.Away.Score)
}

func TestUndoKeepsSessionFields(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddScore(Home, 2, ""))
	require.NoError(t, s.SetLanguage(Chinese))
	require.NoError(t, s.SetSync(ModeViewer, RoleMainReferee))

	require.NoError(t, s.Undo())

	st := s.Snapshot()
	assert.Zero(t, st.Home.Score)
	assert.Equal(t, Chinese, st.Language)
	assert.Equal(t, ModeViewer, st.SyncMode)
	assert.Equal(t, RoleMainReferee, st.RefereeRole)
}

func TestUISettersSkipHistory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetTheme(ThemeDark))
	require.NoError(t, s.ToggleFullscreen())
	require.NoError(t, s.SetShowPlayerStats(true))
	require.NoError(t, s.SetSelectedTeam(Away))

	assert.False(t, s.CanUndo())
	st := s.Snapshot()
	assert.Equal(t, ThemeDark, st.Theme)
	assert.True(t, st.UI.IsFullscreen)
	assert.True(t, st.UI.ShowPlayerStats)
	assert.Equal(t, Away, st.UI.SelectedTeam)

	assert.ErrorIs(t, s.SetLanguage("fr"), ErrInvalidValue)
}

func TestNewGame(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetRules(rules.NBA))
	require.NoError(t, s.SetTeamName(Away, "Hawks"))
	require.NoError(t, s.AddScore(Away, 3, ""))
	require.NoError(t, s.AddFoul(Home, ""))
	require.NoError(t, s.CallTimeout(Home))
	require.NoError(t, s.NextPeriod())

	require.NoError(t, s.NewGame())

	st := s.Snapshot()
	assert.Equal(t, rules.NBA, st.Rules.Name)
	assert.Equal(t, "Hawks", st.Away.Name)
	assert.Zero(t, st.Away.Score)
	assert.Zero(t, st.Home.Fouls)
	assert.Zero(t, st.Home.Timeouts)
	assert.Equal(t, 1, st.Period)
	assert.Equal(t, 720, st.GameTime)
	assert.Empty(t, st.Events)
	assert.Len(t, st.Home.Players, DefaultRosterSize)
	assert.False(t, s.CanUndo())
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)

	var scores []int
	cancel := s.Subscribe(func(st State) {
		scores = append(scores, st.Home.Score)
	})

	require.NoError(t, s.AddScore(Home, 2, ""))
	require.NoError(t, s.AddScore(Home, 1, ""))
	require.NoError(t, s.SubtractScore(Home, 0))
	cancel()
	require.NoError(t, s.AddScore(Home, 3, ""))

	assert.Equal(t, []int{2, 3}, scores)
}

func TestApplySummaryKeepsLocalDetail(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddScore(Home, 2, ""))
	roster := s.Snapshot().Home.Players

	err := s.ApplySummary(Summary{
		Home:       TeamSummary{Name: "Lions", Score: 40, Fouls: 3, Timeouts: 1, Color: "#000000"},
		Away:       TeamSummary{Name: "Tigers", Score: 38, Color: "#ffffff"},
		GameTime:   95,
		ShotClock:  11,
		Period:     3,
		Possession: Away,
		IsRunning:  true,
		Rules:      rules.NBA,
	})
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, 40, st.Home.Score)
	assert.Equal(t, "Tigers", st.Away.Name)
	assert.Equal(t, 95, st.GameTime)
	assert.Equal(t, 3, st.Period)
	assert.Equal(t, rules.NBA, st.Rules.Name)
	assert.True(t, st.IsRunning)
	assert.Equal(t, roster, st.Home.Players)
	assert.Len(t, st.Events, 1)
	assert.Equal(t, 40, st.Summary().Home.Score)

	// remote merges are not undoable steps
	require.NoError(t, s.Undo())
	assert.Zero(t, s.Snapshot().Home.Score)
}

func TestApplySummaryCarriesCustomRules(t *testing.T) {
	host := newTestStore(t)
	thirty := 30
	require.NoError(t, host.SetCustomRules(rules.Overrides{ShotClock: &thirty, ShotClockReset: &thirty}))
	require.NoError(t, host.ResetShotClock(true))

	sum := host.Snapshot().Summary()
	require.NotNil(t, sum.CustomRules)
	assert.True(t, sum.Equal(host.Snapshot().Summary()))

	viewer := newTestStore(t)
	require.NoError(t, viewer.ApplySummary(sum))
	st := viewer.Snapshot()
	assert.Equal(t, rules.Custom, st.Rules.Name)
	assert.True(t, st.Rules.Equal(host.Snapshot().Rules))
	assert.Equal(t, 30, st.ShotClock)

	// without the rule set the stock custom preset applies and the shot
	// clock is held to it
	sum.CustomRules = nil
	other := newTestStore(t)
	require.NoError(t, other.ApplySummary(sum))
	st = other.Snapshot()
	assert.Equal(t, 24, st.Rules.ShotClock)
	assert.LessOrEqual(t, st.ShotClock, st.Rules.ShotClock)
}

func TestApplySummaryRejectsInvalidCustomRules(t *testing.T) {
	s := newTestStore(t)
	bad := rules.MustLookup(rules.Custom)
	bad.ShotClockReset = bad.ShotClock + 10

	require.NoError(t, s.ApplySummary(Summary{Rules: rules.Custom, CustomRules: &bad, ShotClock: 20, Period: 1}))
	st := s.Snapshot()
	assert.Equal(t, rules.FIBA, st.Rules.Name)
	assert.Equal(t, 20, st.ShotClock)
}

func TestPersistedRestore(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetRules(rules.NCAA))
	require.NoError(t, s.AddScore(Away, 3, ""))
	require.NoError(t, s.StartTimer())
	s.Tick()
	require.NoError(t, s.SetShowPlayerStats(true))

	p := s.Persisted()
	assert.Equal(t, PersistedVersion, p.Version)

	restored := newTestStore(t, WithPersisted(p))
	st := restored.Snapshot()
	assert.Equal(t, rules.NCAA, st.Rules.Name)
	assert.Equal(t, 3, st.Away.Score)
	assert.Equal(t, 20*60-1, st.GameTime)
	assert.False(t, st.IsRunning)
	assert.False(t, st.UI.ShowPlayerStats)
	assert.Len(t, st.Events, 1)
	assert.False(t, restored.CanUndo())

	p.Version = 0
	fresh := newTestStore(t, WithPersisted(p))
	assert.Equal(t, rules.FIBA, fresh.Snapshot().Rules.Name)
}
