package dashboard

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"VentaCommSaas/internal/notification"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketServer fans feed events out to every connected socket. Inbound
// messages are rebroadcast so dashboards can chat through the same channel.
type WebSocketServer struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	stopCh    chan struct{}
}

var globalWSServer *WebSocketServer

func NewWebSocketServer() *WebSocketServer {
	s := &WebSocketServer{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 16),
		stopCh:    make(chan struct{}),
	}
	globalWSServer = s
	return s
}

func GetWebSocketServer() *WebSocketServer {
	return globalWSServer
}

func (s *WebSocketServer) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			break
		}
		s.Broadcast(message)
	}
}

// Broadcast queues a payload without blocking the caller; a full queue drops
// the payload rather than stalling an upload request.
func (s *WebSocketServer) Broadcast(message []byte) {
	select {
	case s.broadcast <- message:
	default:
	}
}

// BroadcastEvent serializes a feed event onto the socket fanout.
func (s *WebSocketServer) BroadcastEvent(ev notification.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.Broadcast(payload)
}

func (s *WebSocketServer) HandleMessages() {
	for {
		select {
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *WebSocketServer) Stop() {
	close(s.stopCh)
	s.mu.Lock()
	for client := range s.clients {
		client.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()
}

func GetWSClientCount() int {
	if globalWSServer == nil {
		return 0
	}
	globalWSServer.mu.Lock()
	defer globalWSServer.mu.Unlock()
	return len(globalWSServer.clients)
}
