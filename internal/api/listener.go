package api

import (
	"context"
	"net/http"

	"github.com/coder/websocket"

	"github.com/blockparty-gg/npcrelay/internal/observe"
)

// wsConn adapts a WebSocket connection to the registry's Conn interface.
type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "shutting down")
}

// handleListen serves GET /listen. It upgrades the connection to a
// WebSocket, registers it as an audio listener, and holds it open until the
// peer disconnects. Listeners never send meaningful data; the read loop
// exists only to detect disconnection.
func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx).With("handler", "listen")

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := &wsConn{c: c}
	listener, err := s.registry.Register(ctx, conn)
	if err != nil {
		log.Warn("listener registration failed", "error", err)
		c.Close(websocket.StatusInternalError, "registration failed")
		return
	}
	s.metrics.ActiveListeners.Add(ctx, 1)

	defer func() {
		s.registry.Unregister(listener)
		s.metrics.ActiveListeners.Add(context.WithoutCancel(ctx), -1)
		c.CloseNow()
	}()

	// Drain incoming frames until the peer goes away. Broadcast writes
	// happen concurrently from the registry.
	for {
		if _, _, err := c.Read(ctx); err != nil {
			log.Debug("listener disconnected", "listener_id", listener.ID, "error", err)
			return
		}
	}
}
