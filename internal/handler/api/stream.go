package api

import (
	"net/http"
	"time"

	xlogger "github.com/amitpatole/tickerpulse-ai-sub003/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the API is CORS-open; the socket follows the same policy
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Stream upgrades to a WebSocket and pushes every orchestrator state
// transition to the client, starting with the current state. Slow clients
// miss intermediate transitions rather than stall the orchestrator.
func (h *RunsEchoHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	updates, unwatch := h.orch.Watch()
	done := make(chan struct{})

	// read loop: only to detect client close
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer unwatch()
		defer conn.Close()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		// initial state so the client renders immediately
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(toRunStateResponse(h.orch.State())); err != nil {
			return
		}

		for {
			select {
			case <-done:
				return
			case view, ok := <-updates:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(toRunStateResponse(view)); err != nil {
					if h.logger != nil {
						h.logger.Debug("ws write failed", xlogger.Error(err))
					}
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	return nil
}
