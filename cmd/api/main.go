package main

import (
	"context"
	"database/sql"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"ScoreTable/internal/docstore"
	"ScoreTable/internal/gamehub"
	"ScoreTable/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const version = "2.0.0"

type config struct {
	port     int
	env      string
	logLevel string
	baseURL  string
	db       struct {
		dsn          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  string
	}
	limiter struct {
		rps     float64
		burst   int
		enabled bool
	}
	cors struct {
		trustedOrigins []string
	}
	cleanup struct {
		interval time.Duration
		maxAge   time.Duration
	}
}

type application struct {
	logger  zerolog.Logger
	config  config
	backend docstore.Backend
	games   *gamehub.Registry
	wg      sync.WaitGroup
}

func main() {
	// a missing .env is fine; the environment and flags still apply
	_ = godotenv.Load()

	var cfg config

	// Server Config
	flag.IntVar(&cfg.port, "port", envInt("SCORETABLE_PORT", 8008), "http server port")
	flag.StringVar(&cfg.env, "env", envString("SCORETABLE_ENV", "development"),
		"Environment (development|staging|production)")
	flag.StringVar(&cfg.logLevel, "log-level", envString("SCORETABLE_LOG_LEVEL", ""),
		"Log level (trace|debug|info|warn|error)")
	flag.StringVar(&cfg.baseURL, "base-url", envString("SCORETABLE_BASE_URL", "http://localhost:5173/"),
		"Scoreboard URL used in share links")

	// Database Config
	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("SCORETABLE_DB_DSN"),
		"PostgreSQL DSN for shared games (in-memory when empty)")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConns, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.StringVar(&cfg.db.maxIdleTime, "db-max-idle-time", "15m",
		"PostgreSQL max connection idle time")

	// Limiter Config
	flag.Float64Var(&cfg.limiter.rps, "limiter-rps", 2, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")

	// CORS Config
	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		origins := strings.Fields(val)
		if slices.Contains(origins, "*") {
			return errors.New("cannot set CORS trusted origin to \"*\"")
		}
		cfg.cors.trustedOrigins = origins
		return nil
	})

	// Cleanup Config
	flag.DurationVar(&cfg.cleanup.interval, "cleanup-interval", time.Hour, "Stale shared game sweep interval")
	flag.DurationVar(&cfg.cleanup.maxAge, "cleanup-max-age", 24*time.Hour,
		"Shared games not updated for this long are deleted")

	// Version
	displayVersion := flag.Bool("version", false, "Show API version and immediately exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version: %s\n", version)
		os.Exit(0)
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.logLevel,
		Env:     cfg.env,
		Service: "scoretable-api",
		Version: version,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	backend, closeBackend, err := openBackend(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open shared game store")
	}
	defer closeBackend()

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))

	app := &application{
		logger:  log,
		config:  cfg,
		backend: backend,
		games: gamehub.NewRegistry(backend,
			gamehub.WithLogger(log),
			gamehub.WithBaseURL(cfg.baseURL),
		),
	}
	expvar.Publish("games_hosted", expvar.Func(func() any {
		return app.games.Len()
	}))

	if err := app.serve(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// openBackend picks the shared game store: PostgreSQL when a DSN is set,
// otherwise a process-local one.
func openBackend(cfg config, log zerolog.Logger) (docstore.Backend, func(), error) {
	if cfg.db.dsn == "" {
		log.Warn().Msg("no database configured, shared games live in memory")
		return docstore.NewMemory(), func() {}, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("database connection pool established")
	expvar.Publish("database", expvar.Func(func() any {
		return db.Stats()
	}))

	pg := docstore.NewPostgres(db, cfg.db.dsn, log)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return pg, func() {
		pg.Close()
		db.Close()
	}, nil
}

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConns)
	db.SetMaxIdleConns(cfg.db.maxIdleConns)
	duration, err := time.ParseDuration(cfg.db.maxIdleTime)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(duration)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}
