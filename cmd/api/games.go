package main

import (
	"errors"
	"fmt"
	"net/http"

	"ScoreTable/internal/docstore"
	"ScoreTable/internal/game"
	"ScoreTable/internal/gamehub"
	"ScoreTable/internal/rules"
	"ScoreTable/internal/syncbridge"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

var validate = validator.New()

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// keepers are gated by role, not origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (app *application) CreateGame(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Rules rules.Name `json:"rules" validate:"omitempty,oneof=fiba nba ncaa 3x3 custom"`
		Home  string     `json:"home" validate:"max=64"`
		Away  string     `json:"away" validate:"max=64"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validate.Struct(input); err != nil {
		app.failedValidationResponse(w, r, validationErrors(err))
		return
	}

	hub, err := app.games.Create(r.Context(), gamehub.GameConfig{
		Rules: input.Rules,
		Home:  input.Home,
		Away:  input.Away,
	})
	if err != nil {
		switch {
		case errors.Is(err, syncbridge.ErrSyncUnavailable):
			app.serviceUnavailableResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	links, err := hub.Links()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/games/%s", hub.Code))
	err = app.writeJSON(w, http.StatusCreated, envelope{
		"code":  hub.Code,
		"links": links,
		"game":  hub.Snapshot(),
	}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetGame returns the shared document, which also covers games hosted by
// other instances or by scorekeepers outside this server.
func (app *application) GetGame(w http.ResponseWriter, r *http.Request) {
	code, err := app.readCode(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	doc, err := app.backend.Get(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, docstore.ErrNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	env := envelope{"game": doc}
	if hub, err := app.games.Get(code); err == nil {
		env["alerts"] = hub.Alerts()
	}
	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) DeleteGame(w http.ResponseWriter, r *http.Request) {
	code, err := app.readCode(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.games.Delete(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, gamehub.ErrGameNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"message": fmt.Sprintf("game (%s) successfully deleted", code)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) KeepGame(w http.ResponseWriter, r *http.Request) {
	hub, ok := app.hostedGame(w, r)
	if !ok {
		return
	}

	role, ok := game.ParseRole(app.readString(r.URL.Query(), "role", string(game.RoleMainReferee)))
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("unknown role %q", r.URL.Query().Get("role")))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logError(r, err)
		return
	}

	if err := hub.JoinKeeper(conn, role); err != nil {
		app.rejectConn(conn, err)
	}
}

func (app *application) WatchGame(w http.ResponseWriter, r *http.Request) {
	hub, ok := app.hostedGame(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logError(r, err)
		return
	}

	if err := hub.JoinWatcher(conn); err != nil {
		app.rejectConn(conn, err)
	}
}

func (app *application) ListRules(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{"rules": rules.Catalog()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) hostedGame(w http.ResponseWriter, r *http.Request) (*gamehub.Hub, bool) {
	code, err := app.readCode(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}
	hub, err := app.games.Get(code)
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}
	return hub, true
}

// rejectConn closes an upgraded connection the hub refused.
func (app *application) rejectConn(conn *websocket.Conn, err error) {
	status := websocket.CloseInternalServerErr
	if errors.Is(err, gamehub.ErrKeeperNotAuthorized) {
		status = websocket.ClosePolicyViolation
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(status, err.Error()))
	_ = conn.Close()
}
