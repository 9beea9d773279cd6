package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func (app *application) serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	shutdownError := make(chan error)
	stopCleanup := make(chan struct{})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info().Str("signal", s.String()).Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		close(stopCleanup)
		app.games.Close()
		if err != nil {
			shutdownError <- err
			return
		}

		app.logger.Info().Msg("completing background tasks")
		app.wg.Wait()
		shutdownError <- nil
	}()

	app.backgroundTask(func() {
		app.cleanupStaleGames(stopCleanup)
	})

	app.logger.Info().Str("addr", srv.Addr).Str("env", app.config.env).Msg("starting server")

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info().Str("addr", srv.Addr).Msg("stopped server")
	return nil
}

// cleanupStaleGames removes shared games nobody has touched for the
// configured age, once per interval until stop is closed.
func (app *application) cleanupStaleGames(stop <-chan struct{}) {
	ticker := time.NewTicker(app.config.cleanup.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			app.sweepStaleGames()
		}
	}
}

func (app *application) sweepStaleGames() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-app.config.cleanup.maxAge)
	n, err := app.backend.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		app.logger.Error().Err(err).Msg("stale game cleanup failed")
		return
	}
	if n > 0 {
		app.logger.Info().Int("deleted", n).Msg("removed stale shared games")
	}
}
