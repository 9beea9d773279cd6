package syncbridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ScoreTable/internal/docstore"
	"ScoreTable/internal/game"
	"ScoreTable/internal/pins"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*game.Store)(nil)

// countingBackend records writes made through it.
type countingBackend struct {
	*docstore.Memory
	puts atomic.Int64
	fail atomic.Bool
}

func (c *countingBackend) Put(ctx context.Context, doc docstore.Document) error {
	if c.fail.Load() {
		return errors.New("backend down")
	}
	c.puts.Add(1)
	return c.Memory.Put(ctx, doc)
}

func newStore(t *testing.T) *game.Store {
	t.Helper()
	s := game.NewStore(game.WithScoreAnimation(0))
	t.Cleanup(s.Close)
	return s
}

func newBridge(t *testing.T, store Store, backend docstore.Backend, opts ...Option) *Bridge {
	t.Helper()
	b := New(store, backend, opts...)
	t.Cleanup(b.StopSync)
	return b
}

func TestStartHosting(t *testing.T) {
	ctx := context.Background()
	backend := docstore.NewMemory()
	store := newStore(t)
	require.NoError(t, store.AddScore(game.Home, 3, ""))
	b := newBridge(t, store, backend, WithClientID("host-1"))

	code, err := b.StartHosting(ctx)
	require.NoError(t, err)
	assert.True(t, pins.Valid(code))
	assert.Equal(t, Connected, b.Status())
	assert.Equal(t, game.ModeHost, b.Mode())
	assert.Equal(t, game.ModeHost, store.Snapshot().SyncMode)

	doc, err := backend.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "host-1", doc.HostID)
	assert.Equal(t, 3, doc.Home.Score)
	assert.Equal(t, 600, doc.GameTime)

	again, err := b.StartHosting(ctx)
	require.NoError(t, err)
	assert.Equal(t, code, again)
}

func TestHostPushesChanges(t *testing.T) {
	ctx := context.Background()
	backend := docstore.NewMemory()
	store := newStore(t)
	b := newBridge(t, store, backend)
	code, err := b.StartHosting(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AddFoul(game.Away, ""))
	require.NoError(t, store.SetPossession(game.Away))

	assert.Eventually(t, func() bool {
		doc, err := backend.Get(ctx, code)
		return err == nil && doc.Away.Fouls == 1 && doc.Possession == game.Away
	}, time.Second, 5*time.Millisecond)
}

func TestPushIsThrottled(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: docstore.NewMemory()}
	store := newStore(t)
	b := newBridge(t, store, backend)
	code, err := b.StartHosting(ctx)
	require.NoError(t, err)
	initial := backend.puts.Load()

	for i := 0; i < 30; i++ {
		require.NoError(t, store.AddScore(game.Home, 1, ""))
	}

	assert.Eventually(t, func() bool {
		doc, err := backend.Get(ctx, code)
		return err == nil && doc.Home.Score == 30
	}, 2*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, backend.puts.Load()-initial, int64(5))
}

func TestUIChangesAreNotPushed(t *testing.T) {
	backend := &countingBackend{Memory: docstore.NewMemory()}
	store := newStore(t)
	b := newBridge(t, store, backend)
	_, err := b.StartHosting(context.Background())
	require.NoError(t, err)
	initial := backend.puts.Load()

	require.NoError(t, store.SetTheme(game.ThemeDark))
	require.NoError(t, store.ToggleFullscreen())
	time.Sleep(3 * PushInterval)

	assert.Equal(t, initial, backend.puts.Load())
}

func TestJoinGameNotFound(t *testing.T) {
	store := newStore(t)
	b := newBridge(t, store, docstore.NewMemory())

	err := b.JoinGame(context.Background(), "ZZZZZZ", game.RoleViewer)

	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.Equal(t, game.ModeLocal, b.Mode())
	assert.Equal(t, game.ModeLocal, store.Snapshot().SyncMode)
	assert.Equal(t, Failed, b.Status())
	assert.ErrorIs(t, b.Err(), ErrGameNotFound)
}

func TestJoinGameInvalidCode(t *testing.T) {
	b := newBridge(t, newStore(t), docstore.NewMemory())
	assert.ErrorIs(t, b.JoinGame(context.Background(), "ab", game.RoleViewer), ErrInvalidCode)
}

func TestNoBackend(t *testing.T) {
	var statuses []Status
	b := newBridge(t, newStore(t), nil, WithStatusHook(func(s Status) { statuses = append(statuses, s) }))

	_, err := b.StartHosting(context.Background())
	assert.ErrorIs(t, err, ErrSyncUnavailable)
	assert.Equal(t, Failed, b.Status())
	assert.Equal(t, game.ModeLocal, b.Mode())
	assert.Equal(t, []Status{Failed}, statuses)
}

func TestBackendFailureSurfacesAsStatus(t *testing.T) {
	backend := &countingBackend{Memory: docstore.NewMemory()}
	backend.fail.Store(true)
	store := newStore(t)
	b := newBridge(t, store, backend)

	_, err := b.StartHosting(context.Background())
	assert.ErrorIs(t, err, ErrSyncUnavailable)
	assert.Equal(t, Failed, b.Status())
	assert.Equal(t, game.ModeLocal, store.Snapshot().SyncMode)

	require.NoError(t, store.AddScore(game.Home, 2, ""))
	assert.Equal(t, 2, store.Snapshot().Home.Score)
}

func TestHostAndViewer(t *testing.T) {
	ctx := context.Background()
	backend := docstore.NewMemory()

	host := newStore(t)
	hostBridge := newBridge(t, host, backend, WithClientID("host"))
	code, err := hostBridge.StartHosting(ctx)
	require.NoError(t, err)

	viewer := newStore(t)
	viewerRoster := viewer.Snapshot().Home.Players
	viewerBridge := newBridge(t, viewer, backend, WithClientID("ref"))
	require.NoError(t, viewerBridge.JoinGame(ctx, code, game.RoleMainReferee))

	st := viewer.Snapshot()
	assert.Equal(t, game.ModeViewer, st.SyncMode)
	assert.Equal(t, game.RoleMainReferee, st.RefereeRole)

	require.NoError(t, host.SetTeamName(game.Home, "Lions"))
	require.NoError(t, host.AddScore(game.Home, 2, ""))
	assert.Eventually(t, func() bool {
		st := viewer.Snapshot()
		return st.Home.Score == 2 && st.Home.Name == "Lions"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, viewerRoster, viewer.Snapshot().Home.Players)
	assert.Empty(t, viewer.Snapshot().Events)

	require.NoError(t, viewer.AddFoul(game.Away, ""))
	assert.Eventually(t, func() bool {
		return host.Snapshot().Away.Fouls == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, host.Snapshot().Home.Score)
}

func TestPureViewerNeverPushes(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: docstore.NewMemory()}

	host := newStore(t)
	code, err := newBridge(t, host, backend).StartHosting(ctx)
	require.NoError(t, err)

	viewer := newStore(t)
	require.NoError(t, newBridge(t, viewer, backend).JoinGame(ctx, code, game.RoleViewer))
	before := backend.puts.Load()

	require.NoError(t, viewer.AddScore(game.Away, 3, ""))
	time.Sleep(3 * PushInterval)

	assert.Equal(t, before, backend.puts.Load())
	assert.Zero(t, host.Snapshot().Away.Score)
}

func TestStopSyncKeepsCode(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: docstore.NewMemory()}
	store := newStore(t)
	b := newBridge(t, store, backend)

	code, err := b.StartHosting(ctx)
	require.NoError(t, err)
	b.StopSync()

	assert.Equal(t, Disconnected, b.Status())
	assert.Equal(t, game.ModeLocal, store.Snapshot().SyncMode)
	assert.Equal(t, code, b.Code())

	writes := backend.puts.Load()
	require.NoError(t, store.AddScore(game.Home, 2, ""))
	time.Sleep(3 * PushInterval)
	assert.Equal(t, writes, backend.puts.Load())

	resumed, err := b.StartHosting(ctx)
	require.NoError(t, err)
	assert.Equal(t, code, resumed)
}

func TestAutoJoinOnce(t *testing.T) {
	ctx := context.Background()
	backend := docstore.NewMemory()
	code, err := newBridge(t, newStore(t), backend).StartHosting(ctx)
	require.NoError(t, err)

	viewer := newStore(t)
	b := newBridge(t, viewer, backend)

	joined, err := b.AutoJoin(ctx, "https://scores.example/?game="+code+"&mode=edit")
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, game.RoleMainReferee, viewer.Snapshot().RefereeRole)

	b.StopSync()
	joined, err = b.AutoJoin(ctx, "https://scores.example/?game="+code)
	require.NoError(t, err)
	assert.False(t, joined)
	assert.Equal(t, game.ModeLocal, viewer.Snapshot().SyncMode)
}

func TestShareLinks(t *testing.T) {
	links, err := ShareLinks("https://scores.example/board", "ABC234")
	require.NoError(t, err)
	assert.Equal(t, "https://scores.example/board?game=ABC234", links.View)
	assert.Equal(t, "https://scores.example/board?game=ABC234&mode=edit", links.Edit)

	req, ok := ParseJoinURL(links.Edit)
	require.True(t, ok)
	assert.Equal(t, JoinRequest{Code: "ABC234", Role: game.RoleMainReferee}, req)

	req, ok = ParseJoinURL(links.View)
	require.True(t, ok)
	assert.Equal(t, game.RoleViewer, req.Role)

	_, ok = ParseJoinURL("https://scores.example/board")
	assert.False(t, ok)
}

func TestNoWritesAfterStop(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: docstore.NewMemory()}
	store := newStore(t)
	b := newBridge(t, store, backend)
	_, err := b.StartHosting(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_ = store.AddScore(game.Home, 1, "")
		}
	}()
	b.StopSync()
	wg.Wait()

	writes := backend.puts.Load()
	time.Sleep(3 * PushInterval)
	assert.Equal(t, writes, backend.puts.Load())
}
