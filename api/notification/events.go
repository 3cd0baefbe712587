package notification

import (
	"encoding/json"
	"log"
	"net/http"

	"VentaCommSaas/api/utils"
	"VentaCommSaas/internal/dashboard"
	notif "VentaCommSaas/internal/notification"
)

const notificationPort = "9111"

// StartNotificationService serves the in-process event feed over SSE,
// WebSocket and a plain JSON endpoint. Events are published by the other
// services (uploads, rate refreshes); this service only fans them out.
func StartNotificationService(feed *notif.Feed) {
	mux := http.NewServeMux()

	mux.HandleFunc("/notification/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Notification Service is active"))
	})

	sse := dashboard.GetSSEServer()
	if sse == nil {
		sse = dashboard.NewSSEServer()
	}
	mux.HandleFunc("/notification/events/stream", sse.HandleSSE)

	ws := dashboard.GetWebSocketServer()
	if ws == nil {
		ws = dashboard.NewWebSocketServer()
		go ws.HandleMessages()
	}
	mux.HandleFunc("/notification/events/ws", ws.HandleConnections)

	mux.HandleFunc("/notification/events/recent", RecentEvents(feed))
	mux.HandleFunc("/notification/events/clients", ConnectedClients)

	log.Printf("Notification Service started on :%s", notificationPort)
	if err := http.ListenAndServe(":"+notificationPort, mux); err != nil {
		log.Fatalf("Notification Service failed: %v", err)
	}
}

// RecentEvents returns the buffered tail of the feed, newest last. Clients
// that missed the live stream use this to catch up.
func RecentEvents(feed *notif.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := utils.ExtractPagination(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		events := feed.Recent()
		params.SetPaginationStats(len(events))

		start := params.Offset
		if start > len(events) {
			start = len(events)
		}
		end := start + params.Limit
		if end > len(events) {
			end = len(events)
		}
		page := events[start:end]

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"count":      len(page),
			"events":     page,
			"pagination": params,
		})
	}
}

// ConnectedClients reports who is on the live stream right now.
func ConnectedClients(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":     true,
		"sse_count":   dashboard.GetClientCount(),
		"sse_clients": dashboard.GetClients(),
		"ws_count":    dashboard.GetWSClientCount(),
	})
}
