package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"VentaCommSaas/internal/config"
	"VentaCommSaas/internal/dashboard"
	"VentaCommSaas/internal/logger"
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"
	"VentaCommSaas/pkg/ratesources"
)

// RateConfig drives the BCV exchange-rate refresh job.
type RateConfig struct {
	Sources     []ratesources.Source
	Schedule    string
	TimeZone    string
	MaxRetries  int
	RetryDelay  time.Duration
	HTTPTimeout time.Duration
}

// CircuitBreakerState represents the state of circuit breaker
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreaker trips after repeated failures so a dead mirror or DB outage
// is not hammered every tick.
type CircuitBreaker struct {
	maxFailures  int32
	resetTimeout time.Duration
	failures     int32
	lastFailTime time.Time
	state        CircuitBreakerState
	mutex        sync.RWMutex
}

func NewCircuitBreaker(maxFailures int32, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Execute runs fn unless the breaker is open. A success closes the breaker
// again.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mutex.RLock()
	state := cb.state
	cb.mutex.RUnlock()

	if state == StateOpen {
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.mutex.Lock()
			cb.state = StateHalfOpen
			cb.mutex.Unlock()
		} else {
			return fmt.Errorf("circuit breaker is open")
		}
	}

	err := fn()

	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()
		if cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}
		return err
	}

	cb.failures = 0
	cb.state = StateClosed
	return nil
}

// RetryWithBackoff retries fn with exponential backoff between attempts.
func RetryWithBackoff(maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initialDelay
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Retrying after %v (attempt %d/%d)", delay, attempt, maxRetries))
			time.Sleep(delay)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		logger.GlobalLogger.LogAudit(fmt.Sprintf("Attempt %d failed: %v", attempt+1, lastErr))
	}

	return fmt.Errorf("failed after %d attempts: %v", maxRetries+1, lastErr)
}

func NewDefaultRateConfig() *RateConfig {
	return &RateConfig{
		Sources: []ratesources.Source{
			{Name: "bcv", URL: config.DefaultBCVRateURL},
			{Name: "bcv-mirror", URL: config.DefaultBCVMirrorURL},
		},
		Schedule:    config.DefaultRateSchedule,
		TimeZone:    config.DefaultTimeZone,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
		HTTPTimeout: time.Duration(config.RateRequestTimeoutMS) * time.Millisecond,
	}
}

func (cfg *RateConfig) applyDefaults() {
	def := NewDefaultRateConfig()
	if len(cfg.Sources) == 0 {
		cfg.Sources = def.Sources
	}
	if cfg.Schedule == "" {
		cfg.Schedule = def.Schedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = def.TimeZone
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = def.HTTPTimeout
	}
}

// RunBCVRateDownloader schedules the periodic refresh in the Caracas
// timezone and returns the cron handle so the service can stop it.
func RunBCVRateDownloader(cfg *RateConfig, db *pgxpool.Pool, cache *ratecache.Cache, feed *notification.Feed) (*cron.Cron, error) {
	cfg.applyDefaults()

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone for BCV rate downloader: %v", err)
	}

	rotation := ratesources.NewRotation(cfg.Sources)
	httpCircuitBreaker := NewCircuitBreaker(5, 30*time.Second)
	dbCircuitBreaker := NewCircuitBreaker(3, 60*time.Second)

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Running BCV rate refresh at %s", time.Now().In(loc)))

		refreshErr := RetryWithBackoff(cfg.MaxRetries, cfg.RetryDelay, func() error {
			_, err := refreshOnce(cfg, rotation, db, cache, feed, httpCircuitBreaker, dbCircuitBreaker)
			return err
		})
		if refreshErr != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("BCV rate refresh failed: %v", refreshErr))
			return
		}
		logger.GlobalLogger.LogAudit("BCV rate refresh completed at " + time.Now().In(loc).String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule BCV rate job: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit("BCV rate refresh scheduled for " + cfg.Schedule + " (" + cfg.TimeZone + ")")
	return c, nil
}

// RefreshBCVRateOnce is the manual-refresh path behind the rates endpoint.
// It walks the mirrors once, without the scheduled job's retry loop.
func RefreshBCVRateOnce(cfg *RateConfig, db *pgxpool.Pool, cache *ratecache.Cache, feed *notification.Feed) (ratecache.Entry, error) {
	cfg.applyDefaults()
	rotation := ratesources.NewRotation(cfg.Sources)
	httpCircuitBreaker := NewCircuitBreaker(5, 30*time.Second)
	dbCircuitBreaker := NewCircuitBreaker(3, 60*time.Second)
	return refreshOnce(cfg, rotation, db, cache, feed, httpCircuitBreaker, dbCircuitBreaker)
}

func refreshOnce(cfg *RateConfig, rotation *ratesources.Rotation, db *pgxpool.Pool, cache *ratecache.Cache, feed *notification.Feed, httpCB, dbCB *CircuitBreaker) (ratecache.Entry, error) {
	var (
		rate    decimal.Decimal
		source  ratesources.Source
		lastErr error
	)

	attempts := rotation.Len()
	for i := 0; i < attempts; i++ {
		src, ok := rotation.Next()
		if !ok {
			break
		}
		err := httpCB.Execute(func() error {
			fetched, err := fetchBCVRate(src, cfg.HTTPTimeout)
			if err != nil {
				return err
			}
			rate = fetched
			return nil
		})
		if err == nil {
			source = src
			lastErr = nil
			break
		}
		lastErr = fmt.Errorf("source %s: %w", src.Name, err)
		logger.GlobalLogger.LogAudit(fmt.Sprintf("BCV source %s failed: %v", src.Name, err))
	}
	if lastErr != nil {
		return ratecache.Entry{}, lastErr
	}
	if source.Name == "" {
		return ratecache.Entry{}, fmt.Errorf("no BCV rate sources configured")
	}

	now := time.Now()
	cache.Set(rate, source.Name, now)

	if db != nil {
		err := dbCB.Execute(func() error {
			return persistRate(db, rate, source.Name, now)
		})
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("BCV rate persist failed: %v", err))
		}
	}

	if feed != nil {
		ev := feed.Publish(notification.KindRateRefresh, fmt.Sprintf("BCV %s via %s", rate.String(), source.Name))
		dashboard.BroadcastEvent(ev)
	}

	entry, _ := cache.Get(now)
	return entry, nil
}

// fetchBCVRate pulls one mirror and extracts the USD/VES rate. Mirrors serve
// JSON; the BCV site itself serves HTML, handled by a marker scan.
func fetchBCVRate(src ratesources.Source, timeout time.Duration) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", src.URL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error creating request: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error fetching BCV rate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return decimal.Zero, fmt.Errorf("error reading BCV response: %v", err)
	}

	if rate, err := rateFromJSON(body); err == nil {
		return rate, nil
	}
	return rateFromHTML(string(body))
}

// rateFromJSON accepts the mirror payload shapes seen in production:
// {"dollar": 36.42}, {"usd": "36,42"}, {"rate": ...}, {"promedio": ...}.
func rateFromJSON(body []byte) (decimal.Decimal, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, err
	}
	for _, key := range []string{"dollar", "usd", "rate", "promedio", "price"} {
		val, ok := payload[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case float64:
			return decimal.NewFromFloat(v), nil
		case string:
			return parseRateString(v)
		}
	}
	return decimal.Zero, fmt.Errorf("no rate field in JSON payload")
}

// rateFromHTML scans for the dollar block on the BCV home page and takes the
// first number after it.
func rateFromHTML(body string) (decimal.Decimal, error) {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, `id="dolar"`)
	if idx < 0 {
		idx = strings.Index(lower, ">usd<")
	}
	if idx < 0 {
		return decimal.Zero, fmt.Errorf("no dollar marker in HTML payload")
	}

	window := body[idx:]
	if len(window) > 600 {
		window = window[:600]
	}
	start := strings.IndexAny(window, "0123456789")
	if start < 0 {
		return decimal.Zero, fmt.Errorf("no rate digits near dollar marker")
	}
	end := start
	for end < len(window) {
		c := window[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' {
			end++
			continue
		}
		break
	}
	return parseRateString(window[start:end])
}

// parseRateString reads a Venezuelan-formatted number: dots group thousands,
// the comma is the decimal separator.
func parseRateString(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	rate, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable rate %q", s)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("non-positive rate %q", s)
	}
	return rate, nil
}

func persistRate(db *pgxpool.Pool, rate decimal.Decimal, source string, fetchedAt time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.Exec(ctx, `
		INSERT INTO bcvrates (rate_id, rate, source, fetched_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.New().String(), rate.String(), source, fetchedAt)
	if err != nil {
		return fmt.Errorf("error inserting bcv rate: %v", err)
	}
	return nil
}
