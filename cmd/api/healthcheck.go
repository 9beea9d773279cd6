package main

import (
	"net/http"
	"strings"
)

func (app *application) HealthCheck(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{
		"status": "available",
		"system_info": map[string]any{
			"environment":  app.config.env,
			"version":      version,
			"games_hosted": app.games.Len(),
		},
		"cors_info": map[string]string{
			"trusted_origins": strings.Join(app.config.cors.trustedOrigins, " | "),
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
