package gamehub

import (
	json2 "encoding/json"
	"fmt"
	"time"

	"ScoreTable/internal/command"
	"ScoreTable/internal/game"
	"ScoreTable/internal/permissions"

	"github.com/gorilla/websocket"
)

// Keeper is a connection allowed to change the game within its role.
type Keeper struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Role    game.Role
	Receive chan []byte

	guard *permissions.Guard
}

func newKeeper(hub *Hub, conn *websocket.Conn, role game.Role, guard *permissions.Guard) *Keeper {
	return &Keeper{
		Hub:     hub,
		Conn:    conn,
		Role:    role,
		Receive: make(chan []byte, sendBuffer),
		guard:   guard,
	}
}

func (k *Keeper) WriteEvents() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = k.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-k.Receive:
			_ = k.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = k.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := k.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = k.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := k.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (k *Keeper) ReadEvents() {
	defer k.leave()

	k.Conn.SetReadLimit(maxMessageSize)
	_ = k.Conn.SetReadDeadline(time.Now().Add(pongWait))
	k.Conn.SetPongHandler(func(string) error {
		_ = k.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, bytes, err := k.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				k.Hub.logger.Debug().Err(err).Msg("keeper connection lost")
			}
			return
		}

		req := request{keeper: k}
		var generic command.Generic
		if err := json2.Unmarshal(bytes, &generic); err != nil {
			req.err = fmt.Errorf("%w: %v", command.ErrParseFailed, err)
		} else if kind, _ := generic["type"].(string); isAlertKind(command.Kind(kind)) {
			req.cmd = command.Command{Type: command.Kind(kind)}
			req.alertID, _ = generic["id"].(string)
		} else {
			req.cmd, req.err = generic.Parse()
		}

		if !k.Hub.submit(req) {
			return
		}
	}
}

func (k *Keeper) leave() {
	select {
	case k.Hub.leaveKeeper <- k:
	case <-k.Hub.done:
	}
}
