package feed

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream is read-only public data; origin checks stay with the
	// HTTP layer's CORS handling.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades requests to a websocket and streams the bus's events as
// JSON until the client disconnects.
func Handler(bus *Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}

		ch := bus.Subscribe()
		slog.Info("feed subscriber connected", "remote", r.RemoteAddr)

		defer func() {
			bus.Unsubscribe(ch)
			conn.Close()
			slog.Info("feed subscriber disconnected", "remote", r.RemoteAddr)
		}()

		// Discard inbound frames; the read loop only detects disconnects.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
