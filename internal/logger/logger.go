// Package logger builds the zerolog logger shared by the commands.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Config struct {
	Level      string `validate:"oneof=trace debug info warn error"`
	Format     string `validate:"oneof=json console"`
	Env        string `validate:"oneof=development staging production"`
	TimeFormat string `validate:"oneof=rfc3339 rfc3339nano unix unix_ms"`
	Service    string
	Version    string
	WithCaller bool

	// Output defaults to stdout for json and stderr for console.
	Output io.Writer `validate:"-"`
}

var timeFormats = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"unix":        zerolog.TimeFormatUnix,
	"unix_ms":     zerolog.TimeFormatUnixMs,
}

// New validates cfg, fills in its defaults and returns a logger at the
// configured level.
func New(cfg *Config) (zerolog.Logger, error) {
	cfg.setDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return zerolog.Nop(), fmt.Errorf("logger config validation error: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.TimestampFieldName = "ts"
	zerolog.TimeFieldFormat = timeFormats[cfg.TimeFormat]

	out := cfg.Output
	if cfg.Format == "console" {
		if out == nil {
			out = os.Stderr
		}
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	} else if out == nil {
		out = os.Stdout
	}

	ctx := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", cfg.Service).
		Str("env", cfg.Env)
	if cfg.Version != "" {
		ctx = ctx.Str("version", cfg.Version)
	}
	if cfg.WithCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), nil
}

func (c *Config) setDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Level == "" {
		if c.Env == "development" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}
	if c.Format == "" {
		if c.Env == "development" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339"
	}
	if c.Service == "" {
		c.Service = "scoretable"
	}
}
