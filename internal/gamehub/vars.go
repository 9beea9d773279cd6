package gamehub

import (
	"errors"
	"time"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 1 * time.Minute

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Frames buffered per connection before it counts as slow.
	sendBuffer = 32
)

var (
	ErrAlertNotFound       = errors.New("alert not found")
	ErrGameNotFound        = errors.New("game not found")
	ErrHubClosed           = errors.New("game hub closed")
	ErrKeeperNotAuthorized = errors.New("keeper not authorized")
)
