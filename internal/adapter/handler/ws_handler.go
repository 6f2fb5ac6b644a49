package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/STRBRYKEIYK/workbox/internal/core/broadcast"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxInbound = 4096
)

// WSHandler attaches WebSocket clients to the broadcast hub. The socket is
// write-mostly: inbound frames only keep the connection alive; anything a
// client wants to change goes through the HTTP API.
type WSHandler struct {
	registry *broadcast.Registry
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(registry *broadcast.Registry, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The HTTP surface already allows any origin (original behavior).
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log.With(zap.String("component", "ws")),
	}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	conn := h.registry.Register()
	log := h.log.With(zap.String("conn_id", conn.ID().String()))
	log.Info("client_connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(ws, conn, log)
	h.readPump(ws, conn, log)
}

func (h *WSHandler) writePump(ws *websocket.Conn, conn *broadcast.Conn, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case payload := <-conn.Outbox():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Info("client_write_failed", zap.Error(err))
				h.registry.Unregister(conn)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.registry.Unregister(conn)
				return
			}
		case <-conn.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

func (h *WSHandler) readPump(ws *websocket.Conn, conn *broadcast.Conn, log *zap.Logger) {
	defer func() {
		h.registry.Unregister(conn)
		ws.Close()
		log.Info("client_disconnected")
	}()

	ws.SetReadLimit(maxInbound)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Inbound payloads are ignored; the read loop exists to detect
		// closure and answer pings.
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
