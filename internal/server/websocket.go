package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient serializes writes; views are pushed from publish and poll goroutines.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// wsHub groups connections by browser session.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
	logger *zap.Logger
}

func newWSHub(logger *zap.Logger) *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
		logger: logger,
	}
}

func (h *wsHub) Add(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[sessionID] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, sessionID)
	}
}

// Has reports whether any connection is open for the group.
func (h *wsHub) Has(group string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group]) > 0
}

func (h *wsHub) Send(client *wsClient, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = client.write(data)
}

func (h *wsHub) Broadcast(sessionID string, payload any) {
	h.mu.Lock()
	group := h.groups[sessionID]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()
	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("ws marshal failed", zap.Error(err))
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(sessionID, client)
		}
	}
}

func (s *Server) handleRoomWebsocket(c *gin.Context) {
	sessionID, coord := s.coordinator(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	s.logger.Debug("ws connected",
		zap.String("session", shortID(sessionID)),
		zap.String("remote", c.Request.RemoteAddr),
	)
	s.ws.Add(sessionID, client)
	s.ws.Send(client, coord.View())
	go s.readWS(sessionID, client)
}

func (s *Server) readWS(sessionID string, client *wsClient) {
	defer s.ws.Remove(sessionID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			s.logger.Debug("ws disconnected",
				zap.String("session", shortID(sessionID)),
				zap.Error(err),
			)
			return
		}
	}
}
