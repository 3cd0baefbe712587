package transactions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	api "VentaCommSaas/api"
	"VentaCommSaas/api/constants"
	middlewares "VentaCommSaas/api/middlewares"
	"VentaCommSaas/api/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GetSalesTransactions lists ingested rows newest first with optional month
// (YYYY-MM) and seller filters.
func GetSalesTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"user_id"`
			Page     int    `json:"page"`
			Limit    int    `json:"limit"`
			Month    string `json:"month"`
			SellerID string `json:"seller_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		params := utils.NewPagination(req.Page, req.Limit)

		where := []string{"1=1"}
		args := []interface{}{}
		if strings.TrimSpace(req.Month) != "" {
			monthStart, err := time.Parse(constants.MonthFormat, strings.TrimSpace(req.Month))
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidMonth)
				return
			}
			monthEnd := monthStart.AddDate(0, 1, 0)
			where = append(where, fmt.Sprintf("st.transaction_date >= $%d AND st.transaction_date < $%d", len(args)+1, len(args)+2))
			args = append(args, monthStart, monthEnd)
		}
		if strings.TrimSpace(req.SellerID) != "" {
			where = append(where, fmt.Sprintf("st.seller_id = $%d", len(args)+1))
			args = append(args, strings.TrimSpace(req.SellerID))
		}
		whereClause := strings.Join(where, " AND ")

		countQuery := "SELECT COUNT(*) FROM salestransactions st WHERE " + whereClause
		total, err := utils.CountTotal(r.Context(), pool, countQuery, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		params.SetPaginationStats(total)

		query := fmt.Sprintf(`
			SELECT st.transaction_id, st.transaction_date, st.customer_name,
			       st.seller_id, COALESCE(ms.seller_name, ''),
			       st.plan_id, COALESCE(mp.plan_name, ''),
			       st.zone_name, st.payment_method, st.reference_code,
			       st.installation_type, st.currency,
			       st.subscription_amount::text,
			       st.upload_id::text, st.created_by, st.created_at
			FROM salestransactions st
			LEFT JOIN mastersellers ms ON ms.seller_id = st.seller_id
			LEFT JOIN masterplans mp ON mp.plan_id = st.plan_id
			WHERE %s
			ORDER BY st.transaction_date DESC, st.transaction_id
			LIMIT $%d OFFSET $%d
		`, whereClause, len(args)+1, len(args)+2)
		args = append(args, params.Limit, params.Offset)

		rows, err := pool.Query(r.Context(), query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		var out []map[string]interface{}
		for rows.Next() {
			var (
				transactionID, customerName, sellerID, sellerName string
				planID, planName, zoneName, paymentMethod         string
				installationType, currency, amount, uploadID      string
				createdBy                                         string
				referenceCode                                     *string
				transactionDate, createdAt                        time.Time
			)
			if err := rows.Scan(&transactionID, &transactionDate, &customerName,
				&sellerID, &sellerName, &planID, &planName,
				&zoneName, &paymentMethod, &referenceCode,
				&installationType, &currency, &amount,
				&uploadID, &createdBy, &createdAt); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			out = append(out, map[string]interface{}{
				"transaction_id":      transactionID,
				"transaction_date":    transactionDate.Format(constants.DateFormatISO),
				"customer_name":       customerName,
				"seller_id":           sellerID,
				"seller_name":         sellerName,
				"plan_id":             planID,
				"plan_name":           planName,
				"zone_name":           zoneName,
				"payment_method":      paymentMethod,
				"reference_code":      referenceCode,
				"installation_type":   installationType,
				"currency":            currency,
				"subscription_amount": amount,
				"upload_id":           uploadID,
				"created_by":          createdBy,
				"created_at":          createdAt.Format(constants.DateTimeFormat),
			})
		}
		if rows.Err() != nil {
			api.RespondWithError(w, http.StatusInternalServerError, rows.Err().Error())
			return
		}
		if out == nil {
			out = make([]map[string]interface{}, 0)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"data":       out,
			"pagination": params,
		})
	}
}

func isAdminRequest(r *http.Request) bool {
	if v, ok := r.Context().Value("is_admin_override").(bool); ok && v {
		return true
	}
	return api.IsAdminRole(middlewares.GetRoleFromContext(r.Context()))
}

// BulkDeleteSalesTransactions removes rows outright. Deleting frees the
// dedup keys, so a later re-upload of the same sheet rows will land again.
func BulkDeleteSalesTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isAdminRequest(r) {
			api.RespondWithError(w, http.StatusForbidden, constants.ErrUnauthorized)
			return
		}
		var req struct {
			UserID         string   `json:"user_id"`
			TransactionIDs []string `json:"transaction_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.TransactionIDs) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON or missing transaction_ids")
			return
		}
		rows, err := pool.Query(r.Context(),
			`DELETE FROM salestransactions WHERE transaction_id = ANY($1) RETURNING transaction_id`,
			req.TransactionIDs)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		var deleted []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err == nil {
				deleted = append(deleted, id)
			}
		}
		api.LogInfo("%d sales transactions deleted by %s", len(deleted), middlewares.GetUserNameFromContext(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"deleted": deleted,
		})
	}
}
