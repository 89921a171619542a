package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"candy-rush/game"
	"candy-rush/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 256
)

var errSendBufferFull = errors.New("send buffer full")

type WebSocketHandler struct {
	gameManager *game.Manager
	upgrader    websocket.Upgrader
	logger      *log.Logger
}

// NewWebSocketHandler accepts upgrades from allowedOrigin; "*" or empty allows
// any origin.
func NewWebSocketHandler(gameManager *game.Manager, allowedOrigin string, logger *log.Logger) *WebSocketHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &WebSocketHandler{
		gameManager: gameManager,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigin),
		},
		logger: logger,
	}
}

func originChecker(allowed string) func(*http.Request) bool {
	if allowed == "" || allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return origin == allowed || u.Host == allowed
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := newWSConn(ws, codec)
	clientID := uuid.NewString()
	h.gameManager.Connect(clientID, conn)

	go h.writePump(conn)
	h.readPump(clientID, conn)
}

// wsConn queues encoded frames for the write pump. A peer that cannot keep up
// is closed rather than allowed to stall the room.
type wsConn struct {
	ws    *websocket.Conn
	codec protocol.Codec
	send  chan []byte

	mu     sync.Mutex
	closed bool
}

func newWSConn(ws *websocket.Conn, codec protocol.Codec) *wsConn {
	return &wsConn{
		ws:    ws,
		codec: codec,
		send:  make(chan []byte, sendBuffer),
	}
}

func (c *wsConn) Send(msgType string, data any) error {
	frame, err := protocol.Encode(c.codec, msgType, data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.closed = true
		close(c.send)
		return errSendBufferFull
	}
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

func (c *wsConn) frameType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

func (h *WebSocketHandler) readPump(clientID string, conn *wsConn) {
	defer func() {
		h.gameManager.Disconnect(clientID)
		conn.Close()
		conn.ws.Close()
	}()

	conn.ws.SetReadLimit(maxMessageSize)
	conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Printf("WebSocket error for %s: %v", clientID, err)
			}
			return
		}

		msg, err := protocol.Decode(conn.codec, frame)
		if err != nil {
			h.logger.Printf("Discarding message from %s: %v", clientID, err)
			continue
		}
		h.gameManager.HandleMessage(clientID, msg)
	}
}

func (h *WebSocketHandler) writePump(conn *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One event per frame; clients decode each frame as a single envelope.
			if err := conn.ws.WriteMessage(conn.frameType(), frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
