package commission

import (
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"
	"VentaCommSaas/internal/serviceiface"
)

type CommissionService struct {
	config map[string]interface{}
	cache  *ratecache.Cache
	feed   *notification.Feed
}

func NewCommissionService(cfg map[string]interface{}, cache *ratecache.Cache, feed *notification.Feed) serviceiface.Service {
	return &CommissionService{config: cfg, cache: cache, feed: feed}
}

func (s *CommissionService) Name() string {
	return "commission"
}

func (s *CommissionService) Start() error {
	go StartCommissionService(s.cache, s.feed)
	return nil
}

func (s *CommissionService) Stop() error {
	// Implement stop logic if needed
	return nil
}
