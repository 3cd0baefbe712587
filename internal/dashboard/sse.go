package dashboard

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"VentaCommSaas/internal/logger"
	"VentaCommSaas/internal/notification"
)

// SSEClient is one connected dashboard tab, keyed by user. Publishers never
// touch the ResponseWriter: they enqueue onto the client's queue and the
// handler goroutine that owns the connection drains it. A new connection for
// the same user replaces the old one.
type SSEClient struct {
	userID string
	queue  chan []byte
	done   chan struct{}
}

type SSEServer struct {
	mu      sync.RWMutex
	clients map[string]*SSEClient
}

var globalSSEServer *SSEServer

func NewSSEServer() *SSEServer {
	s := &SSEServer{
		clients: make(map[string]*SSEClient),
	}
	globalSSEServer = s
	return s
}

func GetSSEServer() *SSEServer {
	return globalSSEServer
}

func streamLog(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(msg)
		return
	}
	log.Print(msg)
}

// HandleSSE upgrades the request into a long-lived event stream.
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id parameter required", http.StatusBadRequest)
		return
	}

	client := &SSEClient{
		userID: userID,
		queue:  make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	s.register(client)
	defer s.unregister(client)

	streamLog("[SSE] Connected user %s from %s", userID, r.RemoteAddr)

	hello, _ := json.Marshal(map[string]interface{}{
		"type":    "connected",
		"message": "Event stream established",
		"time":    time.Now().Format(time.RFC3339),
	})
	fmt.Fprintf(w, "data: %s\n\n", hello)
	flusher.Flush()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case payload := <-client.queue:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-ping.C:
			beat, _ := json.Marshal(map[string]interface{}{
				"type": "ping",
				"time": time.Now().Format(time.RFC3339),
			})
			if _, err := fmt.Fprintf(w, "data: %s\n\n", beat); err != nil {
				return
			}
			flusher.Flush()
		case <-client.done:
			// A close can race a publish. Write what was queued first,
			// the force-logout path depends on its payload landing.
			drainQueue(w, flusher, client)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func drainQueue(w http.ResponseWriter, flusher http.Flusher, client *SSEClient) {
	for {
		select {
		case payload := <-client.queue:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
		default:
			flusher.Flush()
			return
		}
	}
}

func (s *SSEServer) register(client *SSEClient) {
	s.mu.Lock()
	if existing, ok := s.clients[client.userID]; ok {
		close(existing.done)
	}
	s.clients[client.userID] = client
	s.mu.Unlock()
}

func (s *SSEServer) unregister(client *SSEClient) {
	s.mu.Lock()
	if s.clients[client.userID] == client {
		delete(s.clients, client.userID)
	}
	s.mu.Unlock()
	streamLog("[SSE] Disconnected user %s", client.userID)
}

// enqueue hands a payload to the client's handler goroutine. A client whose
// queue is full has stopped draining, so it gets cut loose instead of
// blocking the publisher.
func (s *SSEServer) enqueue(client *SSEClient, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	select {
	case client.queue <- data:
		return true
	default:
		streamLog("[SSE] Dropping stalled connection for user %s", client.userID)
		s.mu.Lock()
		if s.clients[client.userID] == client {
			delete(s.clients, client.userID)
			close(client.done)
		}
		s.mu.Unlock()
		return false
	}
}

func (s *SSEServer) Stop() {
	s.mu.Lock()
	for _, client := range s.clients {
		close(client.done)
	}
	s.clients = make(map[string]*SSEClient)
	s.mu.Unlock()
}

// BroadcastEvent pushes a feed event to every connected dashboard.
func BroadcastEvent(ev notification.Event) {
	if globalSSEServer == nil {
		return
	}
	payload := map[string]interface{}{
		"type":    ev.Kind,
		"message": ev.Message,
		"time":    ev.At.Format(time.RFC3339),
	}

	globalSSEServer.mu.RLock()
	clients := make([]*SSEClient, 0, len(globalSSEServer.clients))
	for _, c := range globalSSEServer.clients {
		clients = append(clients, c)
	}
	globalSSEServer.mu.RUnlock()

	for _, client := range clients {
		globalSSEServer.enqueue(client, payload)
	}
}

// SendToUser targets one user, e.g. the uploader of a finished import.
func SendToUser(userID string, message []byte) {
	if globalSSEServer == nil {
		return
	}

	var payload interface{}
	if err := json.Unmarshal(message, &payload); err != nil {
		payload = map[string]interface{}{
			"type":    "message",
			"content": string(message),
			"time":    time.Now().Format(time.RFC3339),
		}
	}

	globalSSEServer.mu.RLock()
	client, ok := globalSSEServer.clients[userID]
	globalSSEServer.mu.RUnlock()
	if !ok {
		return
	}

	globalSSEServer.enqueue(client, payload)
}

// SendForceLogout tells a user their session was replaced by a newer login
// and closes the stream.
func SendForceLogout(userID, reason, newIP string) {
	if globalSSEServer == nil {
		return
	}

	globalSSEServer.mu.RLock()
	client, ok := globalSSEServer.clients[userID]
	globalSSEServer.mu.RUnlock()
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"type":   "force_logout",
		"reason": reason,
		"new_ip": newIP,
		"time":   time.Now().Format(time.RFC3339),
	}
	if globalSSEServer.enqueue(client, payload) {
		streamLog("Force logout sent via SSE to user %s (reason=%s)", userID, reason)
	}

	globalSSEServer.mu.Lock()
	if globalSSEServer.clients[userID] == client {
		delete(globalSSEServer.clients, userID)
		close(client.done)
	}
	globalSSEServer.mu.Unlock()
}

// GetClients returns the connected user IDs for the status endpoint.
func GetClients() []string {
	if globalSSEServer == nil {
		return nil
	}

	globalSSEServer.mu.RLock()
	defer globalSSEServer.mu.RUnlock()

	ids := make([]string, 0, len(globalSSEServer.clients))
	for uid := range globalSSEServer.clients {
		ids = append(ids, uid)
	}
	return ids
}

func GetClientCount() int {
	if globalSSEServer == nil {
		return 0
	}

	globalSSEServer.mu.RLock()
	defer globalSSEServer.mu.RUnlock()

	return len(globalSSEServer.clients)
}
