package sales

import (
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"
	"VentaCommSaas/internal/serviceiface"
)

type SalesService struct {
	config map[string]interface{}
	cache  *ratecache.Cache
	feed   *notification.Feed
}

func NewSalesService(cfg map[string]interface{}, cache *ratecache.Cache, feed *notification.Feed) serviceiface.Service {
	return &SalesService{config: cfg, cache: cache, feed: feed}
}

func (s *SalesService) Name() string {
	return "sales"
}

func (s *SalesService) Start() error {
	go StartSalesService(s.cache, s.feed)
	return nil
}

func (s *SalesService) Stop() error {
	// Implement stop logic if needed
	return nil
}
