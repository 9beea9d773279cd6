// Package persist keeps the local game in a small SQLite key/value table so a
// restarted scorekeeper picks up where it left off.
package persist

import (
	"context"
	"database/sql"
	json2 "encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ScoreTable/internal/game"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Key is the row the game lives under.
const Key = "basketball-scoreboard-storage"

// SaveInterval bounds how often Autosave writes.
const SaveInterval = time.Second

var ErrNoState = errors.New("no persisted state")

type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// Open creates the database file and its schema if needed.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	logger = logger.With().Str("component", "persist").Logger()
	logger.Debug().Str("path", path).Msg("state db opened")
	return &Store{db: db, logger: logger}, nil
}

// Load returns the saved game, or ErrNoState when nothing has been saved.
func (s *Store) Load(ctx context.Context) (game.Persisted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, Key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Persisted{}, ErrNoState
		}
		return game.Persisted{}, err
	}

	var p game.Persisted
	if err := json2.Unmarshal([]byte(raw), &p); err != nil {
		return game.Persisted{}, fmt.Errorf("decode persisted state: %w", err)
	}
	return p, nil
}

func (s *Store) Save(ctx context.Context, p game.Persisted) error {
	body, err := json2.Marshal(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		Key, string(body), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, Key)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Source is a game store that can be autosaved.
type Source interface {
	Subscribe(fn func(game.State)) func()
}

// Autosave writes the latest observed state at most once per interval until
// ctx is done, then flushes whatever is still pending. The returned channel
// is closed once the final write has finished.
func (s *Store) Autosave(ctx context.Context, src Source, interval time.Duration) <-chan struct{} {
	var (
		mu      sync.Mutex
		pending *game.Persisted
	)
	wake := make(chan struct{}, 1)
	unsubscribe := src.Subscribe(func(st game.State) {
		p := st.Persisted()
		mu.Lock()
		pending = &p
		mu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	})

	flush := func() {
		mu.Lock()
		p := pending
		pending = nil
		mu.Unlock()
		if p == nil {
			return
		}
		if err := s.Save(context.Background(), *p); err != nil {
			s.logger.Error().Err(err).Msg("autosave failed")
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer flush()
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				flush()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}()
	return done
}
