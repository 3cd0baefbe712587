package upload

import (
	"encoding/json"
	"net/http"
	"time"

	api "VentaCommSaas/api"
	"VentaCommSaas/api/constants"
	"VentaCommSaas/api/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GetUploadHistory lists prior uploads newest first, paginated.
func GetUploadHistory(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Page   int    `json:"page"`
			Limit  int    `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		params := utils.NewPagination(req.Page, req.Limit)

		total, err := utils.CountTotal(r.Context(), pool, `SELECT COUNT(*) FROM uploadedsalesfiles`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		params.SetPaginationStats(total)

		rows, err := pool.Query(r.Context(), `
			SELECT upload_id::text, file_name, file_hash, uploaded_by, uploaded_at,
			       total_rows, valid_rows, skipped_rows, duplicate_rows, status
			FROM uploadedsalesfiles
			ORDER BY uploaded_at DESC
			LIMIT $1 OFFSET $2
		`, params.Limit, params.Offset)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		var uploads []map[string]interface{}
		for rows.Next() {
			var (
				uploadID, fileName, fileHash, uploadedBy, status string
				uploadedAt                                       time.Time
				totalRows, validRows, skippedRows, duplicateRows int
			)
			if err := rows.Scan(&uploadID, &fileName, &fileHash, &uploadedBy, &uploadedAt,
				&totalRows, &validRows, &skippedRows, &duplicateRows, &status); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			uploads = append(uploads, map[string]interface{}{
				"upload_id":      uploadID,
				"file_name":      fileName,
				"file_hash":      fileHash,
				"uploaded_by":    uploadedBy,
				"uploaded_at":    uploadedAt.Format(constants.DateTimeFormat),
				"total_rows":     totalRows,
				"valid_rows":     validRows,
				"skipped_rows":   skippedRows,
				"duplicate_rows": duplicateRows,
				"status":         status,
			})
		}
		if rows.Err() != nil {
			api.RespondWithError(w, http.StatusInternalServerError, rows.Err().Error())
			return
		}
		if uploads == nil {
			uploads = make([]map[string]interface{}, 0)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"data":       uploads,
			"pagination": params,
		})
	}
}
