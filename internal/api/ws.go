package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"fleetops-sim/internal/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEvent is the envelope sent over the combined websocket stream.
type wsEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleWebsocket streams asset snapshots and alarms over one websocket
// connection, each wrapped in a typed envelope.
func (s *Server) handleWebsocket(c *gin.Context) {
	log := logging.FromContext(c.Request.Context())

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	assetID, assetCh := s.assetBus.Subscribe()
	defer s.assetBus.Unsubscribe(assetID)
	alertID, alertCh := s.alertBus.Subscribe()
	defer s.alertBus.Unsubscribe(alertID)

	// Read pump: discard inbound frames, surface close and keep pongs alive.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	write := func(ev wsEvent) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug("websocket write failed", "err", err)
			return false
		}
		return true
	}

	for {
		select {
		case row, ok := <-assetCh:
			if !ok || !write(wsEvent{Type: "asset", Data: row}) {
				return
			}
		case a, ok := <-alertCh:
			if !ok || !write(wsEvent{Type: "alert", Data: a}) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
