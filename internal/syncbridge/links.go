package syncbridge

import (
	"context"
	"fmt"
	"net/url"

	"ScoreTable/internal/game"
)

// Links are the two ways of sharing a hosted game.
type Links struct {
	View string `json:"view"`
	Edit string `json:"edit"`
}

// ShareLinks builds the view-only and editing links for code.
func ShareLinks(baseURL, code string) (Links, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return Links{}, fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("game", code)
	u.RawQuery = q.Encode()
	view := u.String()

	q.Set("mode", "edit")
	u.RawQuery = q.Encode()
	return Links{View: view, Edit: u.String()}, nil
}

// Links returns the share links of the current code.
func (b *Bridge) Links() (Links, error) {
	code := b.Code()
	if code == "" {
		return Links{}, ErrInvalidCode
	}
	return ShareLinks(b.baseURL, code)
}

// JoinRequest is a join encoded in a share link.
type JoinRequest struct {
	Code string
	Role game.Role
}

// ParseJoinURL extracts a join request from a link. Edit links join as main
// referee, anything else as viewer.
func ParseJoinURL(raw string) (JoinRequest, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return JoinRequest{}, false
	}
	q := u.Query()
	code := q.Get("game")
	if code == "" {
		return JoinRequest{}, false
	}
	role := game.RoleViewer
	if q.Get("mode") == "edit" {
		role = game.RoleMainReferee
	}
	return JoinRequest{Code: code, Role: role}, true
}

// AutoJoin honors a join link once per bridge. Later calls, and links without
// a game code, report false without doing anything.
func (b *Bridge) AutoJoin(ctx context.Context, raw string) (bool, error) {
	b.mu.Lock()
	if b.autoJoined {
		b.mu.Unlock()
		return false, nil
	}
	req, ok := ParseJoinURL(raw)
	if ok {
		b.autoJoined = true
	}
	b.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, b.JoinGame(ctx, req.Code, req.Role)
}
