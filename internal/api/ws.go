package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/osamahm/biosphere/internal/leaderboard"
)

// hub tracks websocket subscribers of the live leaderboard. Each client gets a
// buffered send channel drained by its own writer goroutine, so a slow reader
// never blocks a broadcast; when the buffer fills, the client is dropped.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	return send
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	for conn, send := range h.clients {
		select {
		case send <- msg:
		default:
			delete(h.clients, conn)
			close(send)
			conn.Close()
		}
	}
	h.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (a *API) serveLeaderboardWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "ws: upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	send := a.hub.register(conn)
	defer a.hub.unregister(conn)

	go func() {
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Snapshot the current board so new subscribers render immediately. The
	// snapshot goes through the send channel so only the writer goroutine
	// touches the connection.
	if l, err := a.ls.GetLeaderboard(c.Request.Context(), leaderboard.GetLeaderboardRequest{}); err == nil {
		if b, err := json.Marshal(Notification{
			Event: "leaderboard.snapshot",
			Data:  toLeaderboardPayload(*l),
		}); err == nil {
			select {
			case send <- b:
			default:
			}
		}
	}

	// Clients only listen; reading until error detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
