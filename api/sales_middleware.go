package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"VentaCommSaas/api/auth"
	"VentaCommSaas/api/constants"

	"github.com/jackc/pgx/v5/pgxpool"
)

type salesContextKey string

const (
	SalesUserIDKey  salesContextKey = "salesUserID"
	SalesSellersKey salesContextKey = "salesSellers"
	SalesPlansKey   salesContextKey = "salesPlans"
	SalesZonesKey   salesContextKey = "salesZones"
	// map: plan_name -> price as text
	SalesPlanPricesKey salesContextKey = "salesPlanPrices"
)

// SellerRef holds minimal seller metadata returned to handlers
type SellerRef struct {
	ID   string `json:"seller_id"`
	Name string `json:"seller_name"`
	Zone string `json:"zone"`
}

// PlanRef holds a plan name and its price as text
type PlanRef struct {
	ID    string `json:"plan_id"`
	Name  string `json:"plan_name"`
	Price string `json:"price"`
}

// SalesContextMiddleware loads common master lookups used by sales handlers and
// attaches them to the request context. It requires a DB connection to run
// simple SELECT queries.
func SalesContextMiddleware(pgxPool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			ct := r.Header.Get(constants.HeaderContentType)
			if strings.HasPrefix(ct, constants.ContentTypeJSON) && (r.Method == "POST" || r.Method == "PUT") {
				var bodyMap map[string]interface{}
				_ = json.NewDecoder(r.Body).Decode(&bodyMap)
				if uid, ok := bodyMap[constants.KeyUserID].(string); ok {
					userID = uid
				}
				// reset body
				bodyBytes, _ := json.Marshal(bodyMap)
				r.Body = io.NopCloser(strings.NewReader(string(bodyBytes)))
			} else if strings.HasPrefix(ct, constants.ContentTypeMultipart) && (r.Method == "POST" || r.Method == "PUT") {
				if err := r.ParseMultipartForm(32 << 20); err == nil {
					userID = r.FormValue(constants.KeyUserID)
				}
			} else if r.Method == "GET" || r.Method == "DELETE" {
				userID = r.URL.Query().Get(constants.KeyUserID)
			}

			if userID == "" {
				LogError("Missing user_id in request (sales middleware)")
				RespondWithPayload(w, false, constants.ErrMissingUserID, nil)
				return
			}

			// Validate session
			found := false
			for _, s := range auth.GetActiveSessions() {
				if s.UserID == userID {
					found = true
					break
				}
			}
			if !found {
				LogError("Invalid session for user_id: %s", userID)
				RespondWithPayload(w, false, constants.ErrInvalidSession, nil)
				return
			}

			// Fetch approved sellers with latest audit status = APPROVED and active
			var sellers []SellerRef
			sellerRows, sellerErr := pgxPool.Query(r.Context(), `
SELECT
	ms.seller_id,
	ms.seller_name,
	COALESCE(ms.zone, '')
FROM mastersellers ms
INNER JOIN LATERAL (
	SELECT aas.processing_status
	FROM auditactionseller aas
	WHERE aas.seller_id = ms.seller_id
	ORDER BY aas.requested_at DESC
	LIMIT 1
) astatus ON TRUE
WHERE LOWER(ms.active_status) = 'active'
  AND COALESCE(ms.is_deleted, false) = false
  AND astatus.processing_status = 'APPROVED'
ORDER BY ms.seller_name;
			`)
			if sellerErr == nil {
				defer sellerRows.Close()
				for sellerRows.Next() {
					var s SellerRef
					if err := sellerRows.Scan(&s.ID, &s.Name, &s.Zone); err == nil {
						sellers = append(sellers, s)
					}
				}
			}

			// Fetch approved plans; prices travel as text and stay decimal downstream
			var plans []PlanRef
			planPrices := make(map[string]string)
			planRows, planErr := pgxPool.Query(r.Context(), `
SELECT
	mp.plan_id,
	mp.plan_name,
	COALESCE(mp.price::text, '0')
FROM masterplans mp
INNER JOIN LATERAL (
	SELECT aap.processing_status
	FROM auditactionplan aap
	WHERE aap.plan_id = mp.plan_id
	ORDER BY aap.requested_at DESC
	LIMIT 1
) astatus ON TRUE
WHERE LOWER(mp.active_status) = 'active'
  AND COALESCE(mp.is_deleted, false) = false
  AND astatus.processing_status = 'APPROVED'
ORDER BY mp.plan_name;
			`)
			if planErr == nil {
				defer planRows.Close()
				for planRows.Next() {
					var p PlanRef
					if err := planRows.Scan(&p.ID, &p.Name, &p.Price); err == nil {
						plans = append(plans, p)
						// keyed by id and by name, lookups come in both shapes
						planPrices[p.ID] = p.Price
						planPrices[p.Name] = p.Price
					}
				}
			}

			// Zones have no approval flow; active and not deleted is enough
			var zones []string
			zoneRows, zoneErr := pgxPool.Query(r.Context(), `
SELECT zone_name FROM masterzones
WHERE (is_deleted = false OR is_deleted IS NULL)
  AND LOWER(active_status) = 'active'
ORDER BY zone_name;
			`)
			if zoneErr == nil {
				defer zoneRows.Close()
				for zoneRows.Next() {
					var z string
					if err := zoneRows.Scan(&z); err == nil {
						zones = append(zones, z)
					}
				}
			}

			ctx := context.WithValue(r.Context(), SalesUserIDKey, userID)
			ctx = context.WithValue(ctx, SalesSellersKey, sellers)
			ctx = context.WithValue(ctx, SalesPlansKey, plans)
			ctx = context.WithValue(ctx, SalesPlanPricesKey, planPrices)
			ctx = context.WithValue(ctx, SalesZonesKey, zones)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSalesUserIDFromCtx returns the validated user_id, if any
func GetSalesUserIDFromCtx(ctx context.Context) string {
	if userID, ok := ctx.Value(SalesUserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetSalesSellersFromCtx returns the preloaded approved sellers, if any
func GetSalesSellersFromCtx(ctx context.Context) []SellerRef {
	if sellers, ok := ctx.Value(SalesSellersKey).([]SellerRef); ok {
		return sellers
	}
	return nil
}

// GetSalesPlansFromCtx returns the preloaded approved plans, if any
func GetSalesPlansFromCtx(ctx context.Context) []PlanRef {
	if plans, ok := ctx.Value(SalesPlansKey).([]PlanRef); ok {
		return plans
	}
	return nil
}

// GetSalesPlanPricesFromCtx returns the plan name to price map, if any
func GetSalesPlanPricesFromCtx(ctx context.Context) map[string]string {
	if prices, ok := ctx.Value(SalesPlanPricesKey).(map[string]string); ok {
		return prices
	}
	return nil
}

// GetSalesZonesFromCtx returns the active zone names, if any
func GetSalesZonesFromCtx(ctx context.Context) []string {
	if zones, ok := ctx.Value(SalesZonesKey).([]string); ok {
		return zones
	}
	return nil
}
