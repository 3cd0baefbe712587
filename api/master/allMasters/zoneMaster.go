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

// Zones carry no approval chain: creates and edits take effect immediately.

type ZoneMasterRequest struct {
	ZoneName     string `json:"zone_name"`
	ActiveStatus string `json:"active_status"`
	UserID       string `json:"user_id"`
}

func CreateZoneMaster(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoneMasterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.UserID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Missing user_id in body")
			return
		}
		createdBy := ""
		sessions := auth.GetActiveSessions()
		for _, s := range sessions {
			if s.UserID == req.UserID {
				createdBy = s.Email
				break
			}
		}
		if createdBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "User session not found or email missing")
			return
		}
		if strings.TrimSpace(req.ZoneName) == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrZoneRequired)
			return
		}
		var exists bool
		if err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM masterzones WHERE UPPER(TRIM(zone_name)) = UPPER(TRIM($1)) AND COALESCE(is_deleted, false) = false)`,
			req.ZoneName,
		).Scan(&exists); err == nil && exists {
			api.RespondWithError(w, http.StatusConflict, fmt.Sprintf(constants.ErrZoneAlreadyExists, req.ZoneName))
			return
		}
		zoneID := newMasterID("Z")
		query := `INSERT INTO masterzones (
			zone_id, zone_name, active_status
		) VALUES (
			$1, $2, COALESCE(NULLIF($3, ''), 'Active')
		)`
		if _, err := db.Exec(query, zoneID, strings.TrimSpace(req.ZoneName), req.ActiveStatus); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		api.LogInfo("zone %s created by %s", zoneID, createdBy)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"zone_id": zoneID,
		})
	}
}

func GetAllZoneMaster(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT zone_id, zone_name, active_status
			FROM masterzones
			WHERE COALESCE(is_deleted, false) = false
			ORDER BY zone_name
		`
		rows, err := db.Query(query)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		var zones []map[string]interface{}
		var anyError error
		for rows.Next() {
			var zoneID, zoneName string
			var activeStatus sql.NullString
			if err := rows.Scan(&zoneID, &zoneName, &activeStatus); err != nil {
				anyError = err
				break
			}
			zones = append(zones, map[string]interface{}{
				"zone_id":       zoneID,
				"zone_name":     zoneName,
				"active_status": getNullString(activeStatus),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if anyError != nil {
			api.RespondWithError(w, http.StatusInternalServerError, anyError.Error())
			return
		}
		if zones == nil {
			zones = make([]map[string]interface{}, 0)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    zones,
		})
	}
}

func GetZoneNamesWithID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		query := `
			SELECT zone_id, zone_name
			FROM masterzones
			WHERE LOWER(active_status) = 'active'
			  AND COALESCE(is_deleted, false) = false
			ORDER BY zone_name
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
			var zoneID, zoneName string
			if err := rows.Scan(&zoneID, &zoneName); err != nil {
				anyError = err
				break
			}
			results = append(results, map[string]interface{}{
				"zone_id":   zoneID,
				"zone_name": zoneName,
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

func UpdateZoneMasterBulk(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Zones  []struct {
				ZoneID string                 `json:"zone_id"`
				Fields map[string]interface{} `json:"fields"`
			} `json:"zones"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		updatedBy := ""
		sessions := auth.GetActiveSessions()
		for _, s := range sessions {
			if s.UserID == req.UserID {
				updatedBy = s.Email
				break
			}
		}
		if updatedBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid user_id or session")
			return
		}
		var results []map[string]interface{}
		for _, zone := range req.Zones {
			var sets []string
			var args []interface{}
			pos := 1
			for k, v := range zone.Fields {
				switch k {
				case "zone_name":
					sets = append(sets, fmt.Sprintf("zone_name=$%d", pos))
					args = append(args, fmt.Sprint(v))
					pos++
				case "active_status":
					sets = append(sets, fmt.Sprintf("active_status=$%d", pos))
					args = append(args, fmt.Sprint(v))
					pos++
				default:
					// ignore unknown
				}
			}
			if len(sets) == 0 {
				results = append(results, map[string]interface{}{"success": true, "zone_id": zone.ZoneID})
				continue
			}
			q := "UPDATE masterzones SET " + strings.Join(sets, ", ") + fmt.Sprintf(" WHERE zone_id=$%d RETURNING zone_id", pos)
			args = append(args, zone.ZoneID)
			var updatedZoneID string
			if err := db.QueryRow(q, args...).Scan(&updatedZoneID); err != nil {
				results = append(results, map[string]interface{}{"success": false, "error": err.Error(), "zone_id": zone.ZoneID})
				continue
			}
			results = append(results, map[string]interface{}{"success": true, "zone_id": updatedZoneID})
		}
		w.Header().Set("Content-Type", "application/json")
		finalSuccess := api.IsBulkSuccess(results)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": finalSuccess,
			"results": results,
		})
	}
}

// Soft delete keeps historical sales rows pointing at a valid zone name.
func BulkDeleteZoneMaster(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID  string   `json:"user_id"`
			ZoneIDs []string `json:"zone_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.ZoneIDs) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON or missing fields")
			return
		}
		deletedBy := ""
		sessions := auth.GetActiveSessions()
		for _, s := range sessions {
			if s.UserID == req.UserID {
				deletedBy = s.Email
				break
			}
		}
		if deletedBy == "" {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid user_id or session")
			return
		}
		query := `UPDATE masterzones SET is_deleted = true WHERE zone_id = ANY($1) RETURNING zone_id`
		rows, err := db.Query(query, pq.Array(req.ZoneIDs))
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		var deleted []string
		for rows.Next() {
			var zoneID string
			rows.Scan(&zoneID)
			deleted = append(deleted, zoneID)
		}
		api.LogInfo("zones %v soft deleted by %s", deleted, deletedBy)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"deleted": deleted,
		})
	}
}
