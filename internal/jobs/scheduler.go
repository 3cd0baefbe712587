package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"VentaCommSaas/internal/logger"
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"
	"VentaCommSaas/internal/serviceiface"
	"VentaCommSaas/pkg/ratesources"
)

// CronService owns the scheduled background work, currently the BCV rate
// refresh. Config overrides come from services.yaml.
type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
	cache  *ratecache.Cache
	feed   *notification.Feed
	cron   *cron.Cron
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool, cache *ratecache.Cache, feed *notification.Feed) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
		cache:  cache,
		feed:   feed,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

// RateConfigFromService builds the rate job config, applying services.yaml
// overrides on top of the defaults.
func RateConfigFromService(cfg map[string]interface{}) *RateConfig {
	rateCfg := NewDefaultRateConfig()
	if cfg == nil {
		return rateCfg
	}
	if schedule, ok := cfg["rate_schedule"].(string); ok && schedule != "" {
		rateCfg.Schedule = schedule
	}
	if tz, ok := cfg["timezone"].(string); ok && tz != "" {
		rateCfg.TimeZone = tz
	}
	if retries, ok := cfg["max_retries"].(int); ok && retries > 0 {
		rateCfg.MaxRetries = retries
	}
	if timeoutMS, ok := cfg["http_timeout_ms"].(int); ok && timeoutMS > 0 {
		rateCfg.HTTPTimeout = time.Duration(timeoutMS) * time.Millisecond
	}
	if urls, ok := cfg["rate_urls"].([]interface{}); ok && len(urls) > 0 {
		sources := make([]ratesources.Source, 0, len(urls))
		for i, u := range urls {
			if s, ok := u.(string); ok && s != "" {
				sources = append(sources, ratesources.Source{Name: sourceName(i), URL: s})
			}
		}
		if len(sources) > 0 {
			rateCfg.Sources = sources
		}
	}
	return rateCfg
}

func sourceName(i int) string {
	if i == 0 {
		return "bcv"
	}
	return fmt.Sprintf("mirror-%d", i)
}

func (s *CronService) Start() error {
	log.Println("[INFO] Starting cron service...")

	rateCfg := RateConfigFromService(s.config)

	c, err := RunBCVRateDownloader(rateCfg, s.db, s.cache, s.feed)
	if err != nil {
		return err
	}
	s.cron = c

	logger.GlobalLogger.LogAudit("Cron service started with BCV rate downloader")
	log.Println("Cron service started, BCV rate refresh scheduled")
	return nil
}

func (s *CronService) Stop() error {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Println("Cron service stopped.")
	return nil
}
