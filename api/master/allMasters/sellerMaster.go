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
)

type SellerMasterRequest struct {
	SellerName       string `json:"seller_name"`
	Zone             string `json:"zone"`
	Phone            string `json:"phone"`
	IdentityDocument string `json:"identity_document"`
	ActiveStatus     string `json:"active_status"`
	UserID           string `json:"user_id"`
}

func CreateSellerMaster(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SellerMasterRequest
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
		if strings.TrimSpace(req.SellerName) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrSellerRequired)
			return
		}
		// Reject a duplicate name among live rows up front
		var exists bool
		if err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM mastersellers WHERE UPPER(TRIM(seller_name)) = UPPER(TRIM($1)) AND COALESCE(is_deleted, false) = false)`,
			req.SellerName,
		).Scan(&exists); err == nil && exists {
			api.RespondWithError(w, http.StatusConflict, fmt.Sprintf(constants.ErrSellerAlreadyExists, req.SellerName))
			return
		}
		tx, txErr := db.Begin()
		if txErr != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Failed to start transaction: "+txErr.Error())
			return
		}
		sellerID := newMasterID("S")
		query := `INSERT INTO mastersellers (
			seller_id, seller_name, zone, phone, identity_document, active_status
		) VALUES (
			$1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'Inactive')
		)`
		_, err := tx.Exec(query,
			sellerID,
			strings.TrimSpace(req.SellerName),
			strings.TrimSpace(req.Zone),
			strings.TrimSpace(req.Phone),
			strings.TrimSpace(req.IdentityDocument),
			req.ActiveStatus,
		)
		if err != nil {
			tx.Rollback()
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		auditQuery := `INSERT INTO auditactionseller (
			seller_id, actiontype, processing_status, reason, requested_by, requested_at
		) VALUES ($1, $2, $3, $4, $5, now())`
		_, auditErr := tx.Exec(auditQuery,
			sellerID,
			"CREATE",
			constants.StatusPendingApproval,
			nil,
			createdBy,
		)
		if auditErr != nil {
			tx.Rollback()
			api.RespondWithError(w, http.StatusInternalServerError, "Seller created but audit log failed: "+auditErr.Error())
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "Transaction commit failed: "+commitErr.Error())
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"seller_id": sellerID,
		})
	}
}

func GetAllSellerMaster(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT m.seller_id, m.seller_name, m.zone, m.phone, m.identity_document, m.active_status,
				   m.old_seller_name, m.old_zone, m.old_phone, m.old_identity_document, m.old_active_status
			FROM mastersellers m
			WHERE COALESCE(m.is_deleted, false) = false
		`

		rows, err := db.Query(query)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		var sellers []map[string]interface{}
		var anyError error
		for rows.Next() {
			var (
				sellerID, sellerName                                    string
				zone, phone, identityDocument, activeStatus             sql.NullString
				oldSellerName, oldZone, oldPhone, oldIdentity, oldActive sql.NullString
			)

			if err := rows.Scan(
				&sellerID, &sellerName, &zone, &phone, &identityDocument, &activeStatus,
				&oldSellerName, &oldZone, &oldPhone, &oldIdentity, &oldActive,
			); err != nil {
				anyError = err
				break
			}

			auditQuery := `SELECT processing_status, requested_by, requested_at, actiontype, action_id, checker_by, checker_at, checker_comment, reason
						   FROM auditactionseller WHERE seller_id = $1 ORDER BY requested_at DESC LIMIT 1`
			var processingStatus, requestedBy, actionType, actionID, checkerBy, checkerComment, reason sql.NullString
			var requestedAt, checkerAt sql.NullTime
			_ = db.QueryRow(auditQuery, sellerID).Scan(&processingStatus, &requestedBy, &requestedAt, &actionType, &actionID, &checkerBy, &checkerAt, &checkerComment, &reason)

			auditDetailsQuery := `SELECT actiontype, requested_by, requested_at FROM auditactionseller
								  WHERE seller_id = $1 AND actiontype IN ('CREATE','EDIT','DELETE')
								  ORDER BY requested_at DESC`
			auditRows, auditErr := db.Query(auditDetailsQuery, sellerID)
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

			sellers = append(sellers, map[string]interface{}{
				"seller_id":             sellerID,
				"seller_name":           sellerName,
				"zone":                  getNullString(zone),
				"phone":                 getNullString(phone),
				"identity_document":     getNullString(identityDocument),
				"active_status":         getNullString(activeStatus),
				"old_seller_name":       getNullString(oldSellerName),
				"old_zone":              getNullString(oldZone),
				"old_phone":             getNullString(oldPhone),
				"old_identity_document": getNullString(oldIdentity),
				"old_active_status":     getNullString(oldActive),
				"processing_status":     getNullString(processingStatus),
				"action_type":           getNullString(actionType),
				"action_id":             getNullString(actionID),
				"checker_at":            getNullTime(checkerAt),
				"checker_by":            getNullString(checkerBy),
				"checker_comment":       getNullString(checkerComment),
				"reason":                getNullString(reason),
				"created_by":            createdBy,
				"created_at":            createdAt,
				"edited_by":             editedBy,
				"edited_at":             editedAt,
				"deleted_by":            deletedBy,
				"deleted_at":            deletedAt,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if anyError != nil {
			api.RespondWithError(w, http.StatusInternalServerError, anyError.Error())
			return
		}
		if sellers == nil {
			sellers = make([]map[string]interface{}, 0)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    sellers,
		})
	}
}

// GET handler to fetch seller_id, seller_name, zone for approved active sellers, requiring user_id in body
func GetSellerNamesWithID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		query := `
			SELECT m.seller_id, m.seller_name, COALESCE(m.zone, '')
			FROM mastersellers m
			LEFT JOIN LATERAL (
				SELECT processing_status
				FROM auditactionseller a
				WHERE a.seller_id = m.seller_id
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
			var sellerID, sellerName, zone string
			if err := rows.Scan(&sellerID, &sellerName, &zone); err != nil {
				anyError = err
				break
			}
			results = append(results, map[string]interface{}{
				"seller_id":   sellerID,
				"seller_name": sellerName,
				"zone":        zone,
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

// Bulk update handler for seller master
func UpdateSellerMasterBulk(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID  string `json:"user_id"`
			Sellers []struct {
				SellerID string                 `json:"seller_id"`
				Fields   map[string]interface{} `json:"fields"`
			} `json:"sellers"`
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
		for _, seller := range req.Sellers {
			tx, txErr := db.Begin()
			if txErr != nil {
				results = append(results, map[string]interface{}{"success": false, "error": "Failed to start transaction: " + txErr.Error(), "seller_id": seller.SellerID})
				continue
			}
			committed := false
			func() {
				defer func() {
					if !committed {
						tx.Rollback()
					}
					if p := recover(); p != nil {
						results = append(results, map[string]interface{}{"success": false, "error": "panic: " + fmt.Sprint(p), "seller_id": seller.SellerID})
					}
				}()

				// fetch existing values
				var exName, exZone, exPhone, exIdentity, exActive sql.NullString
				sel := `SELECT seller_name, zone, phone, identity_document, active_status FROM mastersellers WHERE seller_id=$1 FOR UPDATE`
				if err := tx.QueryRow(sel, seller.SellerID).Scan(&exName, &exZone, &exPhone, &exIdentity, &exActive); err != nil {
					results = append(results, map[string]interface{}{"success": false, "error": "Failed to fetch existing seller: " + err.Error(), "seller_id": seller.SellerID})
					return
				}

				// build dynamic update
				var sets []string
				var args []interface{}
				pos := 1
				for k, v := range seller.Fields {
					switch k {
					case "seller_name":
						sets = append(sets, fmt.Sprintf("seller_name=$%d, old_seller_name=$%d", pos, pos+1))
						args = append(args, fmt.Sprint(v), exName.String)
						pos += 2
					case "zone":
						sets = append(sets, fmt.Sprintf("zone=$%d, old_zone=$%d", pos, pos+1))
						args = append(args, fmt.Sprint(v), exZone.String)
						pos += 2
					case "phone":
						sets = append(sets, fmt.Sprintf("phone=$%d, old_phone=$%d", pos, pos+1))
						args = append(args, fmt.Sprint(v), exPhone.String)
						pos += 2
					case "identity_document":
						sets = append(sets, fmt.Sprintf("identity_document=$%d, old_identity_document=$%d", pos, pos+1))
						args = append(args, fmt.Sprint(v), exIdentity.String)
						pos += 2
					case "active_status":
						sets = append(sets, fmt.Sprintf("active_status=$%d, old_active_status=$%d", pos, pos+1))
						args = append(args, fmt.Sprint(v), exActive.String)
						pos += 2
					default:
						// ignore unknown
					}
				}

				var updatedSellerID string
				if len(sets) > 0 {
					q := "UPDATE mastersellers SET " + strings.Join(sets, ", ") + fmt.Sprintf(" WHERE seller_id=$%d RETURNING seller_id", pos)
					args = append(args, seller.SellerID)
					if err := tx.QueryRow(q, args...).Scan(&updatedSellerID); err != nil {
						results = append(results, map[string]interface{}{"success": false, "error": err.Error(), "seller_id": seller.SellerID})
						return
					}
				} else {
					updatedSellerID = seller.SellerID
				}

				// audit
				auditQuery := `INSERT INTO auditactionseller (
					seller_id, actiontype, processing_status, reason, requested_by, requested_at
				) VALUES ($1, $2, $3, $4, $5, now())`
				if _, err := tx.Exec(auditQuery, updatedSellerID, "EDIT", "PENDING_EDIT_APPROVAL", nil, updatedBy); err != nil {
					results = append(results, map[string]interface{}{"success": false, "error": "Seller updated but audit log failed: " + err.Error(), "seller_id": updatedSellerID})
					return
				}

				if err := tx.Commit(); err != nil {
					results = append(results, map[string]interface{}{"success": false, "error": "Transaction commit failed: " + err.Error(), "seller_id": updatedSellerID})
					return
				}
				committed = true
				results = append(results, map[string]interface{}{"success": true, "seller_id": updatedSellerID})
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

// Bulk delete handler for seller master audit actions
func BulkDeleteSellerAudit(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string   `json:"user_id"`
			SellerIDs []string `json:"seller_ids"`
			Reason    string   `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.SellerIDs) == 0 {
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
		for _, sellerID := range req.SellerIDs {
			query := `INSERT INTO auditactionseller (
				seller_id, actiontype, processing_status, reason, requested_by, requested_at
			) VALUES ($1, 'DELETE', 'PENDING_DELETE_APPROVAL', $2, $3, now()) RETURNING action_id`
			var actionID string
			err := db.QueryRow(query, sellerID, req.Reason, requestedBy).Scan(&actionID)
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

// Bulk reject audit actions for seller master
func BulkRejectSellerAuditActions(db *sql.DB) http.HandlerFunc {
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
		query := `UPDATE auditactionseller SET processing_status='REJECTED', checker_by=$1, checker_at=now(), checker_comment=$2 WHERE action_id = ANY($3) RETURNING action_id,seller_id`
		rows, err := db.Query(query, checkerBy, req.Comment, pq.Array(req.ActionIDs))
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		var updated []string
		for rows.Next() {
			var id, sellerID string
			rows.Scan(&id, &sellerID)
			updated = append(updated, id, sellerID)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"updated": updated,
		})
	}
}

// Bulk approve audit actions for seller master. Approving a pending delete
// soft-deletes the master row; sales rows keep their seller reference.
func BulkApproveSellerAuditActions(db *sql.DB) http.HandlerFunc {
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
		query := `UPDATE auditactionseller SET processing_status='APPROVED', checker_by=$1, checker_at=now(), checker_comment=$2 WHERE action_id = ANY($3) RETURNING action_id, seller_id, actiontype`
		rows, err := db.Query(query, checkerBy, req.Comment, pq.Array(req.ActionIDs))
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		var updated []string
		var sellerIDsToDelete []string
		for rows.Next() {
			var id, sellerID, actionType string
			rows.Scan(&id, &sellerID, &actionType)
			updated = append(updated, id, sellerID)
			if actionType == "DELETE" {
				sellerIDsToDelete = append(sellerIDsToDelete, sellerID)
			}
		}
		var deleted []string
		if len(sellerIDsToDelete) > 0 {
			delQuery := `UPDATE mastersellers SET is_deleted = true WHERE seller_id = ANY($1) RETURNING seller_id`
			delRows, delErr := db.Query(delQuery, pq.Array(sellerIDsToDelete))
			if delErr == nil {
				defer delRows.Close()
				for delRows.Next() {
					var sellerID string
					delRows.Scan(&sellerID)
					deleted = append(deleted, sellerID)
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
