package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tasktracker/internal/ws"
)

// WSHandler owns the physical websocket connection lifecycle: it accepts the
// handshake, registers the connection as an observer, and deregisters it on
// disconnect. Broadcasting itself lives in the manager.
type WSHandler struct {
	manager  *ws.Manager
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewWSHandler(manager *ws.Manager, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Subscribe upgrades the request and keeps the connection in the live set
// until the client goes away.
func (h *WSHandler) Subscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.manager.Register(conn)
	defer func() {
		h.manager.Deregister(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
