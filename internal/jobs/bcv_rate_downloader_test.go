package jobs

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VentaCommSaas/internal/logger"
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"
	"VentaCommSaas/pkg/ratesources"
)

func init() {
	logger.SetGlobalLogger(logger.NewLoggerService(map[string]interface{}{}))
}

func TestParseRateString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "36,42", want: "36.42", ok: true},
		{raw: " 36,42 ", want: "36.42", ok: true},
		{raw: "1.234,56", want: "1234.56", ok: true},
		{raw: "36.42", want: "3642", ok: true},
		{raw: "0", ok: false},
		{raw: "-4,2", ok: false},
		{raw: "n/a", ok: false},
		{raw: "", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := parseRateString(tc.raw)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestRateFromJSON(t *testing.T) {
	got, err := rateFromJSON([]byte(`{"dollar": 36.42}`))
	require.NoError(t, err)
	assert.Equal(t, "36.42", got.String())

	got, err = rateFromJSON([]byte(`{"usd": "36,42"}`))
	require.NoError(t, err)
	assert.Equal(t, "36.42", got.String())

	_, err = rateFromJSON([]byte(`{"eur": 39.9}`))
	assert.Error(t, err)

	_, err = rateFromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestRateFromHTML(t *testing.T) {
	page := `<div id="dolar"><strong> 36,4200 </strong></div>`
	got, err := rateFromHTML(page)
	require.NoError(t, err)
	assert.Equal(t, "36.42", got.String())

	_, err = rateFromHTML(`<div>nothing here</div>`)
	assert.Error(t, err)
}

func TestCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(2, 20*time.Millisecond)
	boom := errors.New("boom")

	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.Error(t, err, "open breaker must reject immediately")
	assert.False(t, called)

	time.Sleep(25 * time.Millisecond)
	assert.NoError(t, cb.Execute(func() error { return nil }), "half-open breaker lets a probe through")
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestRetryWithBackoff(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = RetryWithBackoff(1, time.Millisecond, func() error {
		attempts++
		return errors.New("permanent")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRefreshBCVRateOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"dollar": 36.42}`))
	}))
	defer srv.Close()

	cache := ratecache.New(10 * time.Minute)
	feed := notification.NewFeed(10)
	cfg := &RateConfig{
		Sources: []ratesources.Source{{Name: "test-mirror", URL: srv.URL}},
	}

	entry, err := RefreshBCVRateOnce(cfg, nil, cache, feed)
	require.NoError(t, err)
	assert.Equal(t, "test-mirror", entry.Source)
	assert.Equal(t, "36.42", entry.Rate.String())
	assert.False(t, entry.Stale)

	cached, ok := cache.Get(time.Now())
	assert.True(t, ok)
	assert.Equal(t, "36.42", cached.Rate.String())

	events := feed.Recent()
	if assert.Len(t, events, 1) {
		assert.Equal(t, notification.KindRateRefresh, events[0].Kind)
		assert.Contains(t, events[0].Message, "36.42")
	}
}

func TestRefreshBCVRateOnceFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promedio": "40,10"}`))
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer dead.Close()

	cache := ratecache.New(10 * time.Minute)
	cfg := &RateConfig{
		Sources: []ratesources.Source{
			{Name: "dead", URL: dead.URL},
			{Name: "alive", URL: srv.URL},
		},
	}

	entry, err := RefreshBCVRateOnce(cfg, nil, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, "alive", entry.Source)
	assert.Equal(t, "40.1", entry.Rate.String())
}
