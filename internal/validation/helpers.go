package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"VentaCommSaas/api/auth"
)

// ExtractUserID parses the request body once and pulls user_id out of JSON,
// form or multipart bodies. The body is restored on every path so handlers
// can read it again.
func ExtractUserID(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	r.Body.Close()

	restore := func() { r.Body = io.NopCloser(bytes.NewReader(body)) }
	defer restore()

	if id := userIDFromJSON(body); id != "" {
		return id, nil
	}

	// Form parsing consumes the body, hand it a fresh reader first.
	restore()
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			if id := r.FormValue("user_id"); id != "" {
				return id, nil
			}
		}
	} else if err := r.ParseForm(); err == nil {
		if id := r.FormValue("user_id"); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("user_id not found in request")
}

func userIDFromJSON(body []byte) string {
	var req map[string]interface{}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	id, _ := req["user_id"].(string)
	return id
}

// ValidateSession checks the in-memory session store, no DB round trip.
func ValidateSession(userID string) *auth.UserSession {
	sessions := auth.GetActiveSessions()
	for _, s := range sessions {
		if s.UserID == userID {
			return s
		}
	}
	return nil
}

// SellerInfo is a seller that cleared the approval workflow.
type SellerInfo struct {
	SellerID   string
	SellerName string
	Zone       string
}

// GetApprovedSellers returns active sellers whose latest audit action is
// APPROVED. Pending and rejected sellers stay out of reports.
func GetApprovedSellers(ctx context.Context, db *pgxpool.Pool) ([]SellerInfo, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (seller_id)
				seller_id,
				processing_status
			FROM auditactionseller
			ORDER BY seller_id, requested_at DESC
		)
		SELECT
			m.seller_id,
			m.seller_name,
			COALESCE(m.zone, '')
		FROM mastersellers m
		JOIN latest l ON l.seller_id = m.seller_id
		WHERE l.processing_status = 'APPROVED'
		  AND LOWER(m.active_status) = 'active'
		  AND COALESCE(m.is_deleted, false) = false
		ORDER BY m.seller_name
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sellers: %w", err)
	}
	defer rows.Close()

	sellers := []SellerInfo{}
	for rows.Next() {
		var s SellerInfo
		if err := rows.Scan(&s.SellerID, &s.SellerName, &s.Zone); err == nil {
			sellers = append(sellers, s)
		}
	}

	return sellers, nil
}

// PlanInfo is a plan that cleared the approval workflow. Price is the
// current list price used for percentage commissions.
type PlanInfo struct {
	PlanID   string
	PlanName string
	Price    decimal.Decimal
}

func GetApprovedPlans(ctx context.Context, db *pgxpool.Pool) ([]PlanInfo, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (plan_id)
				plan_id,
				processing_status
			FROM auditactionplan
			ORDER BY plan_id, requested_at DESC
		)
		SELECT
			m.plan_id,
			m.plan_name,
			m.price::text
		FROM masterplans m
		JOIN latest l ON l.plan_id = m.plan_id
		WHERE l.processing_status = 'APPROVED'
		  AND LOWER(m.active_status) = 'active'
		  AND COALESCE(m.is_deleted, false) = false
		ORDER BY m.plan_name
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plans: %w", err)
	}
	defer rows.Close()

	plans := []PlanInfo{}
	for rows.Next() {
		var (
			p        PlanInfo
			priceRaw string
		)
		if err := rows.Scan(&p.PlanID, &p.PlanName, &priceRaw); err != nil {
			continue
		}
		if price, err := decimal.NewFromString(priceRaw); err == nil {
			p.Price = price
		}
		plans = append(plans, p)
	}

	return plans, nil
}

// ZoneInfo is an active coverage zone. Zones have no approval workflow, only
// an active flag.
type ZoneInfo struct {
	ZoneID   string
	ZoneName string
}

func GetActiveZones(ctx context.Context, db *pgxpool.Pool) ([]ZoneInfo, error) {
	query := `
		SELECT zone_id, zone_name
		FROM masterzones
		WHERE LOWER(active_status) = 'active'
		  AND COALESCE(is_deleted, false) = false
		ORDER BY zone_name
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zones: %w", err)
	}
	defer rows.Close()

	zones := []ZoneInfo{}
	for rows.Next() {
		var z ZoneInfo
		if err := rows.Scan(&z.ZoneID, &z.ZoneName); err == nil {
			zones = append(zones, z)
		}
	}

	return zones, nil
}

// NormalizeString trims and lowercases for name comparisons.
func NormalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateSellerName checks a sheet seller name against the approved list.
func ValidateSellerName(name string, approved []SellerInfo) bool {
	normalized := NormalizeString(name)
	for _, s := range approved {
		if NormalizeString(s.SellerName) == normalized {
			return true
		}
	}
	return false
}

// ValidatePlanName checks a sheet plan name against the approved list.
func ValidatePlanName(name string, approved []PlanInfo) bool {
	normalized := NormalizeString(name)
	for _, p := range approved {
		if NormalizeString(p.PlanName) == normalized {
			return true
		}
	}
	return false
}
