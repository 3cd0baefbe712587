package commission

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	api "VentaCommSaas/api"
	"VentaCommSaas/api/constants"
	"VentaCommSaas/internal/jobs"
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// GetCurrentRate serves the cached BCV rate when fresh, otherwise the latest
// persisted fetch. The cache is rewarmed from the database row so the next
// call skips the query.
func GetCurrentRate(db *pgxpool.Pool, cache *ratecache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		entry, ok := cache.Get(now)
		if !ok || entry.Stale {
			var rateText, source string
			var fetchedAt time.Time
			err := db.QueryRow(r.Context(), `
				SELECT rate::text, source, fetched_at
				FROM bcvrates
				ORDER BY fetched_at DESC
				LIMIT 1
			`).Scan(&rateText, &source, &fetchedAt)
			if errors.Is(err, pgx.ErrNoRows) {
				if !ok {
					api.RespondWithError(w, http.StatusNotFound, constants.ErrRateUnavailable)
					return
				}
				// nothing persisted yet, the stale cache entry is all we have
			} else if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			} else if !ok || fetchedAt.After(entry.FetchedAt) {
				rate, parseErr := decimal.NewFromString(rateText)
				if parseErr != nil {
					api.RespondWithError(w, http.StatusInternalServerError, parseErr.Error())
					return
				}
				cache.Set(rate, source, fetchedAt)
				entry, _ = cache.Get(now)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"rate":    entry,
		})
	}
}

func RefreshRate(db *pgxpool.Pool, cache *ratecache.Cache, feed *notification.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := jobs.RefreshBCVRateOnce(jobs.NewDefaultRateConfig(), db, cache, feed)
		if err != nil {
			api.LogError("manual BCV refresh failed: %v", err)
			api.RespondWithError(w, http.StatusBadGateway, constants.ErrRateRefreshFailed+": "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"rate":    entry,
		})
	}
}
