// Command scorekeeper runs a basketball scoreboard in the terminal.
//
// Usage:
//
//	scorekeeper play --rules nba
//	scorekeeper host --db postgres://scoretable@localhost/scoretable
//	scorekeeper join K7PX2M --role technical
//	scorekeeper rules
package main

import (
	"os"
	"path/filepath"

	"ScoreTable/internal/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type cli struct {
	statePath string
	dsn       string
	rules     string
	logLevel  string
	baseURL   string

	logger zerolog.Logger
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:          "scorekeeper",
		Short:        "Basketball scoreboard for the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.New(&logger.Config{
				Level:   c.logLevel,
				Service: "scorekeeper",
				Output:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			c.logger = l
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.statePath, "state", env("SCORETABLE_STATE", defaultStatePath()), "SQLite file holding the saved game")
	flags.StringVar(&c.dsn, "db", env("SCORETABLE_DB_DSN", ""), "PostgreSQL DSN of the shared game store")
	flags.StringVar(&c.rules, "rules", "", "Rule preset for the game (fiba, nba, ncaa, 3x3, custom)")
	flags.StringVar(&c.logLevel, "log-level", env("SCORETABLE_LOG_LEVEL", "warn"), "Logging level (trace|debug|info|warn|error)")
	flags.StringVar(&c.baseURL, "base-url", env("SCORETABLE_BASE_URL", "http://localhost:5173/"), "Prefix of share links")

	root.AddCommand(c.playCmd())
	root.AddCommand(c.hostCmd())
	root.AddCommand(c.joinCmd())
	root.AddCommand(rulesCmd())
	return root
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "scoretable.db"
	}
	return filepath.Join(dir, "scoretable", "state.db")
}
