package notification

import (
	"VentaCommSaas/internal/dashboard"
	notif "VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/serviceiface"
)

type NotificationService struct {
	config map[string]interface{}
	feed   *notif.Feed
}

func NewNotificationService(cfg map[string]interface{}, feed *notif.Feed) serviceiface.Service {
	return &NotificationService{config: cfg, feed: feed}
}

func (s *NotificationService) Name() string {
	return "notification"
}

func (s *NotificationService) Start() error {
	go StartNotificationService(s.feed)
	return nil
}

// Stop closes the live streams; buffered feed events survive for the next
// /notification/events/recent caller.
func (s *NotificationService) Stop() error {
	if sse := dashboard.GetSSEServer(); sse != nil {
		sse.Stop()
	}
	if ws := dashboard.GetWebSocketServer(); ws != nil {
		ws.Stop()
	}
	return nil
}
