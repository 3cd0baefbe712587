package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	api "VentaCommSaas/api"
	"VentaCommSaas/api/constants"
	comm "VentaCommSaas/internal/commission"
	"VentaCommSaas/internal/ingest"
	"VentaCommSaas/internal/ratecache"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// loadScheme reads the global commission config, falling back to the
// defaults when the singleton row has not been seeded yet.
func loadScheme(ctx context.Context, db *pgxpool.Pool) (comm.Config, error) {
	var sellerFree, sellerPaid, installerFree, installerPaid string
	err := db.QueryRow(ctx, `
		SELECT seller_free_amount::text, seller_paid_amount::text,
		       installer_free_rate::text, installer_paid_rate::text
		FROM commissionconfig
		LIMIT 1
	`).Scan(&sellerFree, &sellerPaid, &installerFree, &installerPaid)
	if errors.Is(err, pgx.ErrNoRows) {
		return comm.DefaultConfig(), nil
	}
	if err != nil {
		return comm.Config{}, err
	}
	cfg := comm.Config{}
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{sellerFree, &cfg.SellerFreeAmount},
		{sellerPaid, &cfg.SellerPaidAmount},
		{installerFree, &cfg.InstallerFreeRate},
		{installerPaid, &cfg.InstallerPaidRate},
	} {
		d, parseErr := decimal.NewFromString(f.raw)
		if parseErr != nil {
			return comm.Config{}, parseErr
		}
		*f.dst = d
	}
	return cfg, nil
}

// loadRules returns every per-seller override keyed by seller_id.
func loadRules(ctx context.Context, db *pgxpool.Pool) (map[string]comm.Rule, error) {
	rows, err := db.Query(ctx, `
		SELECT seller_id,
		       seller_free_type, seller_free_value::text,
		       seller_paid_type, seller_paid_value::text,
		       installer_free_type, installer_free_value::text,
		       installer_paid_type, installer_paid_value::text
		FROM commissionrules
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make(map[string]comm.Rule)
	for rows.Next() {
		var sellerID string
		var kinds, values [4]string
		if err := rows.Scan(&sellerID,
			&kinds[0], &values[0], &kinds[1], &values[1],
			&kinds[2], &values[2], &kinds[3], &values[3]); err != nil {
			return nil, err
		}
		rule := comm.Rule{}
		targets := []*comm.Term{&rule.SellerFree, &rule.SellerPaid, &rule.InstallerFree, &rule.InstallerPaid}
		ok := true
		for i, target := range targets {
			kind, kErr := comm.ParseKind(kinds[i])
			value, vErr := decimal.NewFromString(values[i])
			if kErr != nil || vErr != nil {
				ok = false
				break
			}
			target.Kind = kind
			target.Value = value
		}
		if !ok {
			continue
		}
		rules[sellerID] = rule
	}
	return rules, rows.Err()
}

// MonthlyCommissionReport computes commissions on read for one calendar
// month. Nothing is persisted: a config or rule change is reflected on the
// next call. Plan prices come from the approved plan list loaded into the
// request context, with the joined master price as fallback for plans still
// pending approval.
func MonthlyCommissionReport(pool *pgxpool.Pool, cache *ratecache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Month  string `json:"month"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		monthStart, err := time.Parse(constants.MonthFormat, strings.TrimSpace(req.Month))
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidMonth)
			return
		}
		monthEnd := monthStart.AddDate(0, 1, 0)

		cfg, err := loadScheme(r.Context(), pool)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrConfigLoadFailed+": "+err.Error())
			return
		}
		rules, err := loadRules(r.Context(), pool)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ctxPrices := api.GetSalesPlanPricesFromCtx(r.Context())

		rateEntry, rateOK := cache.Get(time.Now())
		rateFresh := rateOK && !rateEntry.Stale

		rows, err := pool.Query(r.Context(), `
			SELECT st.transaction_id, st.transaction_date, st.customer_name,
			       st.seller_id, COALESCE(ms.seller_name, ''),
			       st.plan_id, COALESCE(mp.plan_name, ''),
			       COALESCE(mp.price::text, ''),
			       st.installation_type, st.currency,
			       st.subscription_amount::text
			FROM salestransactions st
			LEFT JOIN mastersellers ms ON ms.seller_id = st.seller_id
			LEFT JOIN masterplans mp ON mp.plan_id = st.plan_id
			WHERE st.transaction_date >= $1 AND st.transaction_date < $2
			ORDER BY st.transaction_date, st.transaction_id
		`, monthStart, monthEnd)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		type sellerTotal struct {
			sellerID     string
			sellerName   string
			transactions int
			commission   decimal.Decimal
		}

		var reportRows []map[string]interface{}
		sellerTotals := map[string]*sellerTotal{}
		installerTotal := decimal.Zero
		sellerGrand := decimal.Zero

		for rows.Next() {
			var (
				transactionID, customerName, sellerID, sellerName string
				planID, planName, masterPrice                     string
				installationType, currency, amountRaw             string
				transactionDate                                   time.Time
			)
			if err := rows.Scan(&transactionID, &transactionDate, &customerName,
				&sellerID, &sellerName, &planID, &planName, &masterPrice,
				&installationType, &currency, &amountRaw); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}

			planPrice := decimal.Zero
			if p, ok := ctxPrices[planID]; ok {
				if d, err := decimal.NewFromString(p); err == nil {
					planPrice = d
				}
			} else if masterPrice != "" {
				if d, err := decimal.NewFromString(masterPrice); err == nil {
					planPrice = d
				}
			}

			var rulePtr *comm.Rule
			if rule, ok := rules[sellerID]; ok {
				ruleCopy := rule
				rulePtr = &ruleCopy
			}
			breakdown := comm.Resolve(ingest.InstallationType(installationType), planPrice, rulePtr, cfg)

			row := map[string]interface{}{
				"transaction_id":       transactionID,
				"transaction_date":     transactionDate.Format(constants.DateFormatISO),
				"customer_name":        customerName,
				"seller_id":            sellerID,
				"seller_name":          sellerName,
				"plan_id":              planID,
				"plan_name":            planName,
				"plan_price":           planPrice.String(),
				"installation_type":    installationType,
				"currency":             currency,
				"subscription_amount":  amountRaw,
				"seller_commission":    breakdown.Seller.String(),
				"installer_commission": breakdown.Installer.String(),
			}
			if currency == string(ingest.CurrencyBCV) && rateFresh {
				if amount, err := decimal.NewFromString(amountRaw); err == nil {
					row["subscription_amount_bs"] = amount.Mul(rateEntry.Rate).String()
				}
			}
			reportRows = append(reportRows, row)

			st, ok := sellerTotals[sellerID]
			if !ok {
				st = &sellerTotal{sellerID: sellerID, sellerName: sellerName}
				sellerTotals[sellerID] = st
			}
			st.transactions++
			st.commission = st.commission.Add(breakdown.Seller)
			sellerGrand = sellerGrand.Add(breakdown.Seller)
			installerTotal = installerTotal.Add(breakdown.Installer)
		}
		if rows.Err() != nil {
			api.RespondWithError(w, http.StatusInternalServerError, rows.Err().Error())
			return
		}

		totals := make([]map[string]interface{}, 0, len(sellerTotals))
		for _, st := range sellerTotals {
			totals = append(totals, map[string]interface{}{
				"seller_id":         st.sellerID,
				"seller_name":       st.sellerName,
				"transactions":      st.transactions,
				"seller_commission": st.commission.String(),
			})
		}
		sort.Slice(totals, func(i, j int) bool {
			ni, _ := totals[i]["seller_name"].(string)
			nj, _ := totals[j]["seller_name"].(string)
			if ni == nj {
				si, _ := totals[i]["seller_id"].(string)
				sj, _ := totals[j]["seller_id"].(string)
				return si < sj
			}
			return ni < nj
		})

		if reportRows == nil {
			reportRows = make([]map[string]interface{}, 0)
		}
		api.LogInfo("commission report %s: %d transactions (by %s)",
			monthStart.Format(constants.MonthFormat), len(reportRows), api.GetSalesUserIDFromCtx(r.Context()))
		resp := map[string]interface{}{
			"success":                 true,
			"month":                   monthStart.Format(constants.MonthFormat),
			"rows":                    reportRows,
			"seller_totals":           totals,
			"seller_commission_total": sellerGrand.String(),
			"installer_total":         installerTotal.String(),
			"transactions":            len(reportRows),
		}
		if rateOK {
			resp["bcv_rate"] = rateEntry
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
