package main

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) routes() http.Handler {
	router := chi.NewRouter()

	// Router
	router.NotFound(app.notFoundResponse)
	router.MethodNotAllowed(app.methodNotAllowedResponse)

	// Middleware
	router.Use(app.metrics)
	router.Use(app.recoverPanic)
	router.Use(app.enableCORS)
	router.Use(app.rateLimit)

	// Healthcheck
	router.Get("/v1/healthcheck", app.HealthCheck)
	router.Method(http.MethodGet, "/v1/metrics", expvar.Handler())

	router.Get("/v1/rules", app.ListRules)

	// Game Endpoints
	router.Route("/v1/games", func(router chi.Router) {
		router.Post("/", app.CreateGame)
		router.Get("/{code}", app.GetGame)
		router.Delete("/{code}", app.DeleteGame)
		router.Get("/{code}/keep", app.KeepGame)
		router.Get("/{code}/watch", app.WatchGame)
	})

	return router
}
