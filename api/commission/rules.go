package commission

import (
	"encoding/json"
	"fmt"
	"net/http"

	api "VentaCommSaas/api"
	"VentaCommSaas/api/constants"
	middlewares "VentaCommSaas/api/middlewares"
	comm "VentaCommSaas/internal/commission"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func validateRuleTerms(rule comm.Rule) error {
	one := decimal.NewFromInt(1)
	terms := []struct {
		name string
		term comm.Term
	}{
		{"seller_free", rule.SellerFree},
		{"seller_paid", rule.SellerPaid},
		{"installer_free", rule.InstallerFree},
		{"installer_paid", rule.InstallerPaid},
	}
	for _, t := range terms {
		if t.term.Value.IsNegative() {
			return fmt.Errorf("%s value must not be negative", t.name)
		}
		if t.term.Kind == comm.Percentage && t.term.Value.GreaterThan(one) {
			return fmt.Errorf("%s is a fraction of the plan price and must not exceed 1", t.name)
		}
	}
	return nil
}

func sellerExists(r *http.Request, db *pgxpool.Pool, sellerID string) (bool, error) {
	var exists bool
	err := db.QueryRow(r.Context(),
		`SELECT EXISTS (SELECT 1 FROM mastersellers WHERE seller_id = $1 AND COALESCE(is_deleted, false) = false)`,
		sellerID,
	).Scan(&exists)
	return exists, err
}

func ListCommissionRules(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT cr.seller_id, COALESCE(ms.seller_name, ''),
			       cr.seller_free_type, cr.seller_free_value::text,
			       cr.seller_paid_type, cr.seller_paid_value::text,
			       cr.installer_free_type, cr.installer_free_value::text,
			       cr.installer_paid_type, cr.installer_paid_value::text
			FROM commissionrules cr
			LEFT JOIN mastersellers ms ON ms.seller_id = cr.seller_id
			ORDER BY ms.seller_name, cr.seller_id
		`
		rows, err := db.Query(r.Context(), query)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		var out []map[string]interface{}
		for rows.Next() {
			var sellerID, sellerName string
			var kinds [4]string
			var values [4]string
			if err := rows.Scan(&sellerID, &sellerName,
				&kinds[0], &values[0], &kinds[1], &values[1],
				&kinds[2], &values[2], &kinds[3], &values[3]); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			rule := comm.Rule{}
			targets := []*comm.Term{&rule.SellerFree, &rule.SellerPaid, &rule.InstallerFree, &rule.InstallerPaid}
			scanErr := error(nil)
			for i, target := range targets {
				kind, kErr := comm.ParseKind(kinds[i])
				if kErr != nil {
					scanErr = kErr
					break
				}
				value, vErr := decimal.NewFromString(values[i])
				if vErr != nil {
					scanErr = vErr
					break
				}
				target.Kind = kind
				target.Value = value
			}
			if scanErr != nil {
				api.RespondWithError(w, http.StatusInternalServerError, scanErr.Error())
				return
			}
			out = append(out, map[string]interface{}{
				"seller_id":   sellerID,
				"seller_name": sellerName,
				"rule":        rule,
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
			"success": true,
			"data":    out,
		})
	}
}

// CreateCommissionRule installs a per-seller override. A seller holds at most
// one rule, so create replaces whatever was there before.
func CreateCommissionRule(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string    `json:"user_id"`
			SellerID string    `json:"seller_id"`
			Rule     comm.Rule `json:"rule"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		if req.SellerID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing seller_id")
			return
		}
		if err := validateRuleTerms(req.Rule); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		exists, err := sellerExists(r, db, req.SellerID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !exists {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrSellerNotFound)
			return
		}

		tx, err := db.Begin(r.Context())
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Failed to start transaction: "+err.Error())
			return
		}
		defer tx.Rollback(r.Context())

		if _, err := tx.Exec(r.Context(), `DELETE FROM commissionrules WHERE seller_id = $1`, req.SellerID); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		_, err = tx.Exec(r.Context(), `
			INSERT INTO commissionrules (
				seller_id,
				seller_free_type, seller_free_value,
				seller_paid_type, seller_paid_value,
				installer_free_type, installer_free_value,
				installer_paid_type, installer_paid_value,
				created_by, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		`, req.SellerID,
			req.Rule.SellerFree.Kind.String(), req.Rule.SellerFree.Value.String(),
			req.Rule.SellerPaid.Kind.String(), req.Rule.SellerPaid.Value.String(),
			req.Rule.InstallerFree.Kind.String(), req.Rule.InstallerFree.Value.String(),
			req.Rule.InstallerPaid.Kind.String(), req.Rule.InstallerPaid.Value.String(),
			middlewares.GetUserNameFromContext(r.Context()))
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := tx.Commit(r.Context()); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Transaction commit failed: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"seller_id": req.SellerID,
			"rule":      req.Rule,
		})
	}
}

func UpdateCommissionRule(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID := mux.Vars(r)["seller_id"]
		var req struct {
			UserID string    `json:"user_id"`
			Rule   comm.Rule `json:"rule"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		if err := validateRuleTerms(req.Rule); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		tag, err := db.Exec(r.Context(), `
			UPDATE commissionrules SET
				seller_free_type = $1, seller_free_value = $2,
				seller_paid_type = $3, seller_paid_value = $4,
				installer_free_type = $5, installer_free_value = $6,
				installer_paid_type = $7, installer_paid_value = $8
			WHERE seller_id = $9
		`, req.Rule.SellerFree.Kind.String(), req.Rule.SellerFree.Value.String(),
			req.Rule.SellerPaid.Kind.String(), req.Rule.SellerPaid.Value.String(),
			req.Rule.InstallerFree.Kind.String(), req.Rule.InstallerFree.Value.String(),
			req.Rule.InstallerPaid.Kind.String(), req.Rule.InstallerPaid.Value.String(),
			sellerID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrRuleNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"seller_id": sellerID,
			"rule":      req.Rule,
		})
	}
}

func DeleteCommissionRule(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID := mux.Vars(r)["seller_id"]
		tag, err := db.Exec(r.Context(), `DELETE FROM commissionrules WHERE seller_id = $1`, sellerID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if tag.RowsAffected() == 0 {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrRuleNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"seller_id": sellerID,
		})
	}
}
