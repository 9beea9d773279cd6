package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ScoreTable/internal/game"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "scoretable.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmpty(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoState)
}

func TestSaveLoadRestoresGame(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := game.NewStore(game.WithScoreAnimation(0))
	defer g.Close()
	require.NoError(t, g.AddScore(game.Home, 3, ""))
	require.NoError(t, g.AddFoul(game.Away, ""))
	require.NoError(t, g.NextPeriod())
	require.NoError(t, g.StartTimer())

	require.NoError(t, s.Save(ctx, g.Persisted()))
	p, err := s.Load(ctx)
	require.NoError(t, err)

	restored := game.NewStore(game.WithPersisted(p))
	defer restored.Close()
	st := restored.Snapshot()
	assert.Equal(t, 3, st.Home.Score)
	assert.Equal(t, 2, st.Period)
	assert.False(t, st.IsRunning)
	assert.Len(t, st.Events, len(g.Snapshot().Events))
	assert.False(t, restored.CanUndo())
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := game.NewStore(game.WithScoreAnimation(0))
	defer g.Close()
	require.NoError(t, s.Save(ctx, g.Persisted()))
	require.NoError(t, g.SetTeamName(game.Home, "Lakers"))
	require.NoError(t, s.Save(ctx, g.Persisted()))

	p, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lakers", p.Home.Name)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoState)
}

func TestAutosaveFlushesOnCancel(t *testing.T) {
	s := openTestStore(t)
	g := game.NewStore(game.WithScoreAnimation(0))
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Autosave(ctx, g, time.Hour)

	require.NoError(t, g.AddScore(game.Home, 2, ""))
	require.NoError(t, g.AddScore(game.Home, 3, ""))
	cancel()
	<-done

	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, p.Home.Score)
}
