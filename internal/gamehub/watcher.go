package gamehub

import (
	"time"

	"github.com/gorilla/websocket"
)

// Watcher is a read-only connection, such as a scoreboard overlay.
type Watcher struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Receive chan []byte
}

func newWatcher(hub *Hub, conn *websocket.Conn) *Watcher {
	return &Watcher{
		Hub:     hub,
		Conn:    conn,
		Receive: make(chan []byte, sendBuffer),
	}
}

func (w *Watcher) WriteEvents() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = w.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-w.Receive:
			_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = w.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := w.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadEvents discards anything the watcher sends and notices when it goes
// away.
func (w *Watcher) ReadEvents() {
	defer func() {
		select {
		case w.Hub.leaveWatcher <- w:
		case <-w.Hub.done:
		}
	}()

	w.Conn.SetReadLimit(maxMessageSize)
	_ = w.Conn.SetReadDeadline(time.Now().Add(pongWait))
	w.Conn.SetPongHandler(func(string) error {
		_ = w.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := w.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
