package docstore

import (
	"context"
	"database/sql"
	json2 "encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	notifyChannel = "shared_games"

	minReconnect = 5 * time.Second
	maxReconnect = 30 * time.Second
	pingInterval = 90 * time.Second
	queryTimeout = 3 * time.Second
)

// Postgres stores documents as jsonb rows and fans out changes with
// LISTEN/NOTIFY, so every API instance sees writes made by the others.
type Postgres struct {
	db     *sql.DB
	dsn    string
	logger zerolog.Logger
	subs   *fanout

	once     sync.Once
	listener *pq.Listener
	stop     chan struct{}
	done     chan struct{}
}

func NewPostgres(db *sql.DB, dsn string, logger zerolog.Logger) *Postgres {
	return &Postgres{
		db:     db,
		dsn:    dsn,
		logger: logger.With().Str("component", "docstore").Logger(),
		subs:   newFanout(),
	}
}

// Migrate creates the documents table.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS shared_games (
			code       text        PRIMARY KEY,
			doc        jsonb       NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shared_games_updated_at ON shared_games(updated_at)`,
	} {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Put(ctx context.Context, doc Document) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	doc.UpdatedAt = now
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	// keep the original creation time on replace
	stmt := `
		INSERT INTO shared_games (code, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE
			SET doc = jsonb_set(EXCLUDED.doc, '{createdAt}', shared_games.doc->'createdAt'),
				updated_at = EXCLUDED.updated_at
		RETURNING doc`

	body, err := json2.Marshal(doc)
	if err != nil {
		return err
	}

	var stored []byte
	err = tx.QueryRowContext(ctx, stmt, doc.ID, string(body), doc.CreatedAt, doc.UpdatedAt).Scan(&stored)
	if err != nil {
		return unavailable(err)
	}

	if _, err = tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(stored)); err != nil {
		return unavailable(err)
	}

	if err = tx.Commit(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, code string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM shared_games WHERE code = $1`, code).Scan(&body)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return Document{}, ErrNotFound
		default:
			return Document{}, unavailable(err)
		}
	}

	var doc Document
	if err := json2.Unmarshal(body, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document %s: %w", code, err)
	}
	return doc, nil
}

func (p *Postgres) Exists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM shared_games WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, unavailable(err)
	}
	return exists, nil
}

func (p *Postgres) Delete(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := p.db.ExecContext(ctx, `DELETE FROM shared_games WHERE code = $1`, code)
	if err != nil {
		return unavailable(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := p.db.ExecContext(ctx, `DELETE FROM shared_games WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, unavailable(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

// Subscribe starts the shared listener on first use.
func (p *Postgres) Subscribe(ctx context.Context, code string, fn func(Document)) (func(), error) {
	if err := p.listen(); err != nil {
		return nil, unavailable(err)
	}

	sub, cancel := p.subs.add(code, fn)
	doc, err := p.Get(ctx, code)
	switch {
	case err == nil:
		sub.deliver(doc)
	case errors.Is(err, ErrNotFound):
	default:
		cancel()
		return nil, err
	}
	return cancel, nil
}

// Close stops the listener. Subscriptions receive nothing afterwards.
func (p *Postgres) Close() error {
	if p.listener == nil {
		return nil
	}
	close(p.stop)
	<-p.done
	return p.listener.Close()
}

func (p *Postgres) listen() error {
	var err error
	p.once.Do(func() {
		report := func(ev pq.ListenerEventType, err error) {
			if err != nil {
				p.logger.Error().Err(err).Int("event", int(ev)).Msg("listener connection problem")
			}
		}
		l := pq.NewListener(p.dsn, minReconnect, maxReconnect, report)
		if err = l.Listen(notifyChannel); err != nil {
			l.Close()
			return
		}
		p.listener = l
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.run()
		p.logger.Info().Str("channel", notifyChannel).Msg("document listener connected")
	})
	if err == nil && p.listener == nil {
		err = errors.New("document listener failed to start")
	}
	return err
}

func (p *Postgres) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case n := <-p.listener.Notify:
			if n == nil {
				// reconnected; notifications may have been missed
				p.catchUp()
				continue
			}
			var doc Document
			if err := json2.Unmarshal([]byte(n.Extra), &doc); err != nil {
				p.logger.Warn().Err(err).Msg("failed to parse document notification")
				continue
			}
			p.subs.publish(doc)
		case <-time.After(pingInterval):
			go p.listener.Ping()
		}
	}
}

func (p *Postgres) catchUp() {
	for _, code := range p.subs.codes() {
		doc, err := p.Get(context.Background(), code)
		if err != nil {
			p.logger.Warn().Err(err).Str("code", code).Msg("catch-up read failed")
			continue
		}
		p.subs.publish(doc)
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
