package allMaster

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	api "VentaCommSaas/api"
	"VentaCommSaas/api/auth"
	"VentaCommSaas/api/constants"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type PlanMasterRequest struct {
	PlanName     string      `json:"plan_name"`
	Price        json.Number `json:"price"`
	ActiveStatus string      `json:"active_status"`
	UserID       string      `json:"user_id"`
}

func CreatePlanMaster(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlanMasterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		userID := req.UserID
		if userID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing user_id in body")
			return
		}
		createdBy := ""
		sessions := auth.GetActiveSessions()
		for _, s := range sessions {
			if s.UserID == userID {
				createdBy = s.Email
				break
			}
		}
		if createdBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "User session not found or email missing")
			return
		}
		if strings.TrimSpace(req.PlanName) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrPlanRequired)
			return
		}
		price, priceErr := decimal.NewFromString(req.Price.String())
		if priceErr != nil || price.IsNegative() {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidPlanPrice)
			return
		}
		var exists bool
		if err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM masterplans WHERE UPPER(TRIM(plan_name)) = UPPER(TRIM($1)) AND COALESCE(is_deleted, false) = false)`,
			req.PlanName,
		).Scan(&exists); err == nil && exists {
			api.RespondWithError(w, http.StatusConflict, fmt.Sprintf(constants.ErrPlanAlreadyExists, req.PlanName))
			return
		}
		tx, txErr := db.Begin()
		if txErr != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Failed to start transaction: "+txErr.Error())
			return
		}
		planID := newMasterID("P")
		query := `INSERT INTO masterplans (
			plan_id, plan_name, price, active_status
		) VALUES (
			$1, $2, $3, COALESCE(NULLIF($4, ''), 'Inactive')
		)`
		_, err := tx.Exec(query,
			planID,
			strings.TrimSpace(req.PlanName),
			price.String(),
			req.ActiveStatus,
		)
		if err != nil {
			tx.Rollback()
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		auditQuery := `INSERT INTO auditactionplan (
			plan_id, actiontype, processing_status, reason, requested_by, requested_at
		) VALUES ($1, $2, $3, $4, $5, now())`
		_, auditErr := tx.Exec(auditQuery,
			planID,
			"CREATE",
			constants.StatusPendingApproval,
			nil,
			createdBy,
		)
		if auditErr != nil {
			tx.Rollback()
			api.RespondWithError(w, http.StatusInternalServerError, "Plan created but audit log failed: "+auditErr.Error())
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Transaction commit failed: "+commitErr.Error())
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"plan_id": planID,
		})
	}
}

func GetAllPlanMaster(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT m.plan_id, m.plan_name, m.price::text, m.active_status,
				   m.old_plan_name, m.old_price::text, m.old_active_status
			FROM masterplans m
			WHERE COALESCE(m.is_deleted, false) = false
		`

		rows, err := db.Query(query)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		var plans []map[string]interface{}
		var anyError error
		for rows.Next() {
			var (
				planID, planName                 string
				price, activeStatus              sql.NullString
				oldPlanName, oldPrice, oldActive sql.NullString
			)

			if err := rows.Scan(
				&planID, &planName, &price, &activeStatus,
				&oldPlanName, &oldPrice, &oldActive,
			); err != nil {
				anyError = err
				break
			}

			auditQuery := `SELECT processing_status, requested_by, requested_at, actiontype, action_id, checker_by, checker_at, checker_comment, reason
						   FROM auditactionplan WHERE plan_id = $1 ORDER BY requested_at DESC LIMIT 1`
			var processingStatus, requestedBy, actionType, actionID, checkerBy, checkerComment, reason sql.NullString
			var requestedAt, checkerAt sql.NullTime
			_ = db.QueryRow(auditQuery, planID).Scan(&processingStatus, &requestedBy, &requestedAt, &actionType, &actionID, &checkerBy, &checkerAt, &checkerComment, &reason)

			auditDetailsQuery := `SELECT actiontype, requested_by, requested_at FROM auditactionplan
								  WHERE plan_id = $1 AND actiontype IN ('CREATE','EDIT','DELETE')
								  ORDER BY requested_at DESC`
			auditRows, auditErr := db.Query(auditDetailsQuery, planID)
			var createdBy, createdAt, editedBy, editedAt, deletedBy, deletedAt string
			if auditErr == nil {
				defer auditRows.Close()
				for auditRows.Next() {
					var atype string
					var rby sql.NullString
					var rat sql.NullTime
					if err := auditRows.Scan(&atype, &rby, &rat); err == nil {
						auditInfo := api.GetAuditInfo(atype, nullStringPtr(rby), nullTimePtr(rat))
						if atype == "CREATE" && createdBy == "" {
							createdBy = auditInfo.CreatedBy
							createdAt = auditInfo.CreatedAt
						} else if atype == "EDIT" && editedBy == "" {
							editedBy = auditInfo.EditedBy
							editedAt = auditInfo.EditedAt
						} else if atype == "DELETE" && deletedBy == "" {
							deletedBy = auditInfo.DeletedBy
							deletedAt = auditInfo.DeletedAt
						}
					}
				}
			}

			plans = append(plans, map[string]interface{}{
				"plan_id":           planID,
				"plan_name":         planName,
				"price":             getNullString(price),
				"active_status":     getNullString(activeStatus),
				"old_plan_name":     getNullString(oldPlanName),
				"old_price":         getNullString(oldPrice),
				"old_active_status": getNullString(oldActive),
				"processing_status": getNullString(processingStatus),
				"action_type":       getNullString(actionType),
				"action_id":         getNullString(actionID),
				"checker_at":        getNullTime(checkerAt),
				"checker_by":        getNullString(checkerBy),
				"checker_comment":   getNullString(checkerComment),
				"reason":            getNullString(reason),
				"created_by":        createdBy,
				"created_at":        createdAt,
				"edited_by":         editedBy,
				"edited_at":         editedAt,
				"deleted_by":        deletedBy,
				"deleted_at":        deletedAt,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if anyError != nil {
			api.RespondWithError(w, http.StatusInternalServerError, anyError.Error())
			return
		}
		if plans == nil {
			plans = make([]map[string]interface{}, 0)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    plans,
		})
	}
}

// GET handler to fetch plan_id, plan_name, price for approved active plans, requiring user_id in body
func GetPlanNamesWithID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		query := `
			SELECT m.plan_id, m.plan_name, COALESCE(m.price::text, '0')
			FROM masterplans m
			LEFT JOIN LATERAL (
				SELECT processing_status
				FROM auditactionplan a
				WHERE a.plan_id = m.plan_id
				ORDER BY requested_at DESC
				LIMIT 1
			) a ON TRUE
			WHERE LOWER(m.active_status) = 'active'
			  AND COALESCE(m.is_deleted, false) = false
			  AND a.processing_status = 'APPROVED'
		`
		rows, err := db.Query(query)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		var results []map[string]interface{}
		var anyError error
		for rows.Next() {
			var planID, planName, price string
			if err := rows.Scan(&planID, &planName, &price); err != nil {
				anyError = err
				break
			}
			results = append(results, map[string]interface{}{
				"plan_id":   planID,
				"plan_name": planName,
				"price":     price,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if anyError != nil {
			api.RespondWithError(w, http.StatusInternalServerError, anyError.Error())
			return
		}
		if results == nil {
			results = make([]map[string]interface{}, 0)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"results": results,
		})
	}
}

// Bulk update handler for plan master
func UpdatePlanMasterBulk(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Plans  []struct {
				PlanID string                 `json:"plan_id"`
				Fields map[string]interface{} `json:"fields"`
			} `json:"plans"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		userID := req.UserID
		updatedBy := ""
		sessions := auth.GetActiveSessions()
		for _, s := range sessions {
			if s.UserID == userID {
				updatedBy = s.Email
				break
			}
		}
		if updatedBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid user_id or session")
			return
		}
		var results []map[string]interface{}
		for _, plan := range req.Plans {
			tx, txErr := db.Begin()
			if txErr != nil {
				results = append(results, map[string]interface{}{"success": false, "error": "Failed to start transaction: " + txErr.Error(), "plan_id": plan.PlanID})
				continue
			}
			committed := false
			func() {
				defer func() {
					if !committed {
						tx.Rollback()
					}
					if p := recover(); p != nil {
						results = append(results, map[string]interface{}{"success": false, "error": "panic: " + fmt.Sprint(p), "plan_id": plan.PlanID})
					}
				}()

				var exName, exPrice, exActive sql.NullString
				sel := `SELECT plan_name, price::text, active_status FROM masterplans WHERE plan_id=$1 FOR UPDATE`
				if err := tx.QueryRow(sel, plan.PlanID).Scan(&exName, &exPrice, &exActive); err != nil {
					results = append(results, map[string]interface{}{"success": false, "error": "Failed to fetch existing plan: " + err.Error(), "plan_id": plan.PlanID})
					return
				}

				var sets []string
				var args []interface{}
				pos := 1
				for k, v := range plan.Fields {
					switch k {
					case "plan_name":
						sets = append(sets, fmt.Sprintf("plan_name=$%d, old_plan_name=$%d", pos, pos+1))
						args = append(args, fmt.Sprint(v), exName.String)
						pos += 2
					case "price":
						price, err := decimal.NewFromString(fmt.Sprint(v))
						if err != nil || price.IsNegative() {
							results = append(results, map[string]interface{}{"success": false, "error": constants.ErrInvalidPlanPrice, "plan_id": plan.PlanID})
							return
						}
						sets = append(sets, fmt.Sprintf("price=$%d, old_price=$%d", pos, pos+1))
						args = append(args, price.String(), exPrice.String)
						pos += 2
					case "active_status":
						sets = append(sets, fmt.Sprintf("active_status=$%d, old_active_status=$%d", pos, pos+1))
						args = append(args, fmt.Sprint(v), exActive.String)
						pos += 2
					default:
						// ignore unknown
					}
				}

				var updatedPlanID string
				if len(sets) > 0 {
					q := "UPDATE masterplans SET " + strings.Join(sets, ", ") + fmt.Sprintf(" WHERE plan_id=$%d RETURNING plan_id", pos)
					args = append(args, plan.PlanID)
					if err := tx.QueryRow(q, args...).Scan(&updatedPlanID); err != nil {
						results = append(results, map[string]interface{}{"success": false, "error": err.Error(), "plan_id": plan.PlanID})
						return
					}
				} else {
					updatedPlanID = plan.PlanID
				}

				auditQuery := `INSERT INTO auditactionplan (
					plan_id, actiontype, processing_status, reason, requested_by, requested_at
				) VALUES ($1, $2, $3, $4, $5, now())`
				if _, err := tx.Exec(auditQuery, updatedPlanID, "EDIT", "PENDING_EDIT_APPROVAL", nil, updatedBy); err != nil {
					results = append(results, map[string]interface{}{"success": false, "error": "Plan updated but audit log failed: " + err.Error(), "plan_id": updatedPlanID})
					return
				}

				if err := tx.Commit(); err != nil {
					results = append(results, map[string]interface{}{"success": false, "error": "Transaction commit failed: " + err.Error(), "plan_id": updatedPlanID})
					return
				}
				committed = true
				results = append(results, map[string]interface{}{"success": true, "plan_id": updatedPlanID})
			}()
		}
		w.Header().Set("Content-Type", "application/json")
		finalSuccess := api.IsBulkSuccess(results)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": finalSuccess,
			"results": results,
		})
	}
}

// Bulk delete handler for plan master audit actions
func BulkDeletePlanAudit(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID  string   `json:"user_id"`
			PlanIDs []string `json:"plan_ids"`
			Reason  string   `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.PlanIDs) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON or missing fields")
			return
		}
		sessions := auth.GetActiveSessions()
		requestedBy := ""
		for _, s := range sessions {
			if s.UserID == req.UserID {
				requestedBy = s.Email
				break
			}
		}
		if requestedBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid user_id or session")
			return
		}
		var results []string
		for _, planID := range req.PlanIDs {
			query := `INSERT INTO auditactionplan (
				plan_id, actiontype, processing_status, reason, requested_by, requested_at
			) VALUES ($1, 'DELETE', 'PENDING_DELETE_APPROVAL', $2, $3, now()) RETURNING action_id`
			var actionID string
			err := db.QueryRow(query, planID, req.Reason, requestedBy).Scan(&actionID)
			if err == nil {
				results = append(results, actionID)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"created": results,
		})
	}
}

// Bulk reject audit actions for plan master
func BulkRejectPlanAuditActions(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string   `json:"user_id"`
			ActionIDs []string `json:"action_ids"`
			Comment   string   `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.ActionIDs) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON or missing fields")
			return
		}
		sessions := auth.GetActiveSessions()
		checkerBy := ""
		for _, s := range sessions {
			if s.UserID == req.UserID {
				checkerBy = s.Email
				break
			}
		}
		if checkerBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid user_id or session")
			return
		}
		query := `UPDATE auditactionplan SET processing_status='REJECTED', checker_by=$1, checker_at=now(), checker_comment=$2 WHERE action_id = ANY($3) RETURNING action_id,plan_id`
		rows, err := db.Query(query, checkerBy, req.Comment, pq.Array(req.ActionIDs))
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		var updated []string
		for rows.Next() {
			var id, planID string
			rows.Scan(&id, &planID)
			updated = append(updated, id, planID)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"updated": updated,
		})
	}
}

// Bulk approve audit actions for plan master. Approving a pending delete
// soft-deletes the master row; sales rows keep their plan reference.
func BulkApprovePlanAuditActions(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string   `json:"user_id"`
			ActionIDs []string `json:"action_ids"`
			Comment   string   `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.ActionIDs) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON or missing fields")
			return
		}
		sessions := auth.GetActiveSessions()
		checkerBy := ""
		for _, s := range sessions {
			if s.UserID == req.UserID {
				checkerBy = s.Email
				break
			}
		}
		if checkerBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid user_id or session")
			return
		}
		query := `UPDATE auditactionplan SET processing_status='APPROVED', checker_by=$1, checker_at=now(), checker_comment=$2 WHERE action_id = ANY($3) RETURNING action_id, plan_id, actiontype`
		rows, err := db.Query(query, checkerBy, req.Comment, pq.Array(req.ActionIDs))
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		var updated []string
		var planIDsToDelete []string
		for rows.Next() {
			var id, planID, actionType string
			rows.Scan(&id, &planID, &actionType)
			updated = append(updated, id, planID)
			if actionType == "DELETE" {
				planIDsToDelete = append(planIDsToDelete, planID)
			}
		}
		var deleted []string
		if len(planIDsToDelete) > 0 {
			delQuery := `UPDATE masterplans SET is_deleted = true WHERE plan_id = ANY($1) RETURNING plan_id`
			delRows, delErr := db.Query(delQuery, pq.Array(planIDsToDelete))
			if delErr == nil {
				defer delRows.Close()
				for delRows.Next() {
					var planID string
					delRows.Scan(&planID)
					deleted = append(deleted, planID)
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"updated": updated,
			"deleted": deleted,
		})
	}
}
