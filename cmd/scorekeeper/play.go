package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ScoreTable/internal/clock"
	"ScoreTable/internal/docstore"
	"ScoreTable/internal/game"
	"ScoreTable/internal/intel"
	"ScoreTable/internal/persist"
	"ScoreTable/internal/rules"
	"ScoreTable/internal/syncbridge"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func (c *cli) playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Keep score locally, resuming the saved game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return c.withSavedGame(ctx, func(store *game.Store) error {
				return c.serve(ctx, cmd, &console{out: cmd.OutOrStdout()}, store)
			})
		},
	}
}

func (c *cli) hostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Keep score and share the game under a code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, closeBackend, err := c.openBackend(ctx)
			if err != nil {
				return err
			}
			defer closeBackend()

			return c.withSavedGame(ctx, func(store *game.Store) error {
				out := &console{out: cmd.OutOrStdout()}
				bridge := c.newBridge(store, backend, out)
				defer bridge.StopSync()

				if _, err := bridge.StartHosting(ctx); err != nil {
					return err
				}
				links, err := bridge.Links()
				if err != nil {
					return err
				}
				out.println("code:", bridge.Code())
				out.println("view:", links.View)
				out.println("edit:", links.Edit)
				return c.serve(ctx, cmd, out, store)
			})
		},
	}
}

func (c *cli) joinCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "join <code|link>",
		Short: "Follow a shared game, editing within the given role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := game.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, closeBackend, err := c.openBackend(ctx)
			if err != nil {
				return err
			}
			defer closeBackend()

			store := game.NewStore(game.WithLogger(c.logger))
			defer store.Close()

			out := &console{out: cmd.OutOrStdout()}
			bridge := c.newBridge(store, backend, out)
			defer bridge.StopSync()

			joined, err := bridge.AutoJoin(ctx, args[0])
			if !joined && err == nil {
				err = bridge.JoinGame(ctx, args[0], r)
			}
			if err != nil {
				return err
			}
			return c.serve(ctx, cmd, out, store)
		},
	}
	cmd.Flags().StringVar(&role, "role", string(game.RoleViewer),
		"Role when joining by code (host, main_referee, assistant_referee, technical, viewer)")
	return cmd
}

// withSavedGame loads the saved game, runs fn against it and keeps saving it
// until fn returns.
func (c *cli) withSavedGame(ctx context.Context, fn func(*game.Store) error) error {
	db, err := persist.Open(c.statePath, c.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []game.Option{game.WithLogger(c.logger)}
	saved, err := db.Load(ctx)
	switch {
	case err == nil:
		opts = append(opts, game.WithPersisted(saved))
	case errors.Is(err, persist.ErrNoState):
	default:
		// unreadable saves start a fresh game
		c.logger.Warn().Err(err).Msg("ignoring saved game")
	}

	store := game.NewStore(opts...)
	defer store.Close()

	if c.rules != "" {
		if err := store.SetRules(rules.Name(strings.ToLower(c.rules))); err != nil {
			return err
		}
	}

	saveCtx, cancel := context.WithCancel(context.Background())
	flushed := db.Autosave(saveCtx, store, persist.SaveInterval)
	defer func() {
		cancel()
		<-flushed
	}()

	return fn(store)
}

// serve drives the clock and alerts for store while the user keeps score.
func (c *cli) serve(ctx context.Context, cmd *cobra.Command, out *console, store *game.Store) error {
	s := newSession(store, out, c.logger)

	sc := clock.NewScheduler(store, clock.WithLogger(c.logger))
	unfollow := sc.Follow(store)
	s.alerts = intel.NewWatcher(intel.WithLogger(c.logger), intel.WithAlertHook(s.alertHook))
	unwatch := s.alerts.Watch(store)
	defer func() {
		unwatch()
		unfollow()
		sc.Close()
	}()

	return s.run(ctx, cmd.InOrStdin())
}

func (c *cli) newBridge(store *game.Store, backend docstore.Backend, out *console) *syncbridge.Bridge {
	return syncbridge.New(store, backend,
		syncbridge.WithLogger(c.logger),
		syncbridge.WithBaseURL(c.baseURL),
		syncbridge.WithStatusHook(func(st syncbridge.Status) {
			out.println("sync:", st)
		}),
	)
}

func (c *cli) openBackend(ctx context.Context) (docstore.Backend, func(), error) {
	if c.dsn == "" {
		return nil, nil, fmt.Errorf("%w: set --db or SCORETABLE_DB_DSN", syncbridge.ErrSyncUnavailable)
	}

	db, err := sql.Open("postgres", c.dsn)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%w: %v", syncbridge.ErrSyncUnavailable, err)
	}

	backend := docstore.NewPostgres(db, c.dsn, c.logger)
	if err := backend.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return backend, func() {
		if err := backend.Close(); err != nil {
			c.logger.Error().Err(err).Msg("close shared game listener")
		}
		db.Close()
	}, nil
}
