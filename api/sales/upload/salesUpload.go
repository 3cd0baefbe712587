package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	api "VentaCommSaas/api"
	"VentaCommSaas/api/auth"
	"VentaCommSaas/api/constants"
	"VentaCommSaas/internal/checksum"
	"VentaCommSaas/internal/dashboard"
	"VentaCommSaas/internal/ingest"
	"VentaCommSaas/internal/notification"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrFileAlreadyUploaded marks a re-upload of bytes already ingested.
var ErrFileAlreadyUploaded = errors.New("file already uploaded")

func newPrefixedID(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
}

// priorUpload returns ErrFileAlreadyUploaded plus the original upload
// details when a content hash is already on record.
func priorUpload(ctx context.Context, pool *pgxpool.Pool, fileHash string) (string, time.Time, error) {
	var id string
	var at time.Time
	err := pool.QueryRow(ctx, `
		SELECT upload_id::text, uploaded_at
		FROM uploadedsalesfiles
		WHERE file_hash = $1
		LIMIT 1
	`, fileHash).Scan(&id, &at)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return id, at, ErrFileAlreadyUploaded
}

// UploadSalesFiles ingests one or more sales spreadsheets in a single
// multipart request. Each file is hashed for idempotency, parsed, checked
// against persisted history and written in one transaction; the response
// carries a per-file summary.
func UploadSalesFiles(pool *pgxpool.Pool, feed *notification.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "multipart parse error: "+err.Error())
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrNoFilesInRequest)
			return
		}

		userID := r.FormValue("user_id")
		if userID == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingUserID)
			return
		}
		uploadedBy := userID
		for _, s := range auth.GetActiveSessions() {
			if s.UserID == userID {
				if s.Email != "" {
					uploadedBy = s.Email
				} else if s.Name != "" {
					uploadedBy = s.Name
				}
				break
			}
		}

		// guards against the same file attached twice in one request
		matcher := checksum.NewMatcher()

		var results []map[string]interface{}
		for _, fh := range files {
			results = append(results, processSalesFile(ctx, pool, feed, fh, uploadedBy, matcher))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": api.IsBulkSuccess(results),
			"results": results,
		})
	}
}

func processSalesFile(ctx context.Context, pool *pgxpool.Pool, feed *notification.Feed, fh *multipart.FileHeader, uploadedBy string, matcher *checksum.Matcher) map[string]interface{} {
	fileName := fh.Filename
	fail := func(msg string) map[string]interface{} {
		return map[string]interface{}{
			"file_name": fileName,
			"success":   false,
			"error":     msg,
		}
	}

	f, err := fh.Open()
	if err != nil {
		return fail("open file: "+err.Error())
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return fail("read file: "+err.Error())
	}
	if len(data) == 0 {
		return fail(constants.ErrEmptyFile)
	}

	fileHash := checksum.FileHash(data)
	if matcher.Seen(fileHash) {
		return map[string]interface{}{
			"file_name": fileName,
			"success":   false,
			"status":    constants.UploadStatusDuplicate,
			"error":     constants.ErrDuplicateFile,
		}
	}

	priorID, priorAt, err := priorUpload(ctx, pool, fileHash)
	if errors.Is(err, ErrFileAlreadyUploaded) {
		return map[string]interface{}{
			"file_name":              fileName,
			"success":                false,
			"status":                 constants.UploadStatusDuplicate,
			"error":                  constants.ErrDuplicateFile,
			"original_upload_id":     priorID,
			"originally_uploaded_at": priorAt.Format(constants.DateTimeFormat),
		}
	}
	if err != nil {
		return fail("idempotency check: "+err.Error())
	}

	res := ingest.ParseFile(data, fileName)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fail("tx begin: "+err.Error())
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback(ctx)
		}
	}()

	sellerIDs, err := ensureSellers(ctx, tx, res.Transactions, uploadedBy)
	if err != nil {
		return fail("seller resolution: "+err.Error())
	}
	planIDs, err := ensurePlans(ctx, tx, res.Transactions, uploadedBy)
	if err != nil {
		return fail("plan resolution: "+err.Error())
	}

	// cross-file duplicates: probe history for every candidate key at once
	keys := make([]string, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		keys = append(keys, t.DedupKey())
	}
	existing := map[string]struct{}{}
	if len(keys) > 0 {
		rows, qErr := tx.Query(ctx, `SELECT dedup_key FROM salestransactions WHERE dedup_key = ANY($1)`, keys)
		if qErr != nil {
			return fail("history probe: "+qErr.Error())
		}
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err == nil {
				existing[k] = struct{}{}
			}
		}
		rows.Close()
		if rows.Err() != nil {
			return fail("history probe: "+rows.Err().Error())
		}
	}

	toInsert := res.Transactions[:0]
	for _, t := range res.Transactions {
		if _, dup := existing[t.DedupKey()]; dup {
			res.ValidRows--
			res.DuplicateRows++
			res.Duplicates = append(res.Duplicates, ingest.DuplicateInfo{
				RowNumber:    t.RowNumber,
				CustomerName: t.CustomerName,
				SellerName:   t.SellerName,
				Plan:         t.Plan,
				Zone:         t.Zone,
				Date:         t.TransactionDate.Format(constants.DateFormatISO),
			})
			continue
		}
		toInsert = append(toInsert, t)
	}

	uploadID := uuid.New()
	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO uploadedsalesfiles (
			upload_id, file_name, file_hash, uploaded_by, uploaded_at,
			total_rows, valid_rows, skipped_rows, duplicate_rows, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uploadID, fileName, fileHash, uploadedBy, now,
		res.TotalRows, res.ValidRows, res.SkippedRows, res.DuplicateRows,
		constants.UploadStatusProcessed)
	if err != nil {
		return fail("insert upload: "+err.Error())
	}

	if len(toInsert) > 0 {
		columns := []string{
			"transaction_id", "transaction_date", "customer_name",
			"seller_id", "plan_id", "zone_name", "payment_method",
			"reference_code", "installation_type", "currency",
			"subscription_amount", "dedup_key", "upload_id",
			"created_by", "created_at",
		}
		copyRows := make([][]interface{}, 0, len(toInsert))
		for _, t := range toInsert {
			copyRows = append(copyRows, []interface{}{
				newPrefixedID("T"),
				t.TransactionDate,
				t.CustomerName,
				sellerIDs[nameKey(t.SellerName)],
				planIDs[nameKey(t.Plan)],
				t.Zone,
				t.PaymentMethod,
				t.ReferenceCode,
				string(t.InstallationType),
				string(t.Currency),
				t.SubscriptionAmount,
				t.DedupKey(),
				uploadID,
				uploadedBy,
				now,
			})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"salestransactions"}, columns, pgx.CopyFromRows(copyRows)); err != nil {
			return fail("insert transactions: "+err.Error())
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fail("tx commit: "+err.Error())
	}
	committed = true

	archivedURL := ""
	if bucket := salesArchiveBucket(); bucket != "" {
		key := salesArchiveKey(uploadID.String(), fileName)
		url, s3Err := archiveOriginalToS3(ctx, bucket, key, data, detectContentType(data))
		if s3Err != nil {
			api.LogError("s3 archive failed for %s: %v", fileName, s3Err)
		} else {
			archivedURL = url
		}
	}

	ev := feed.Publish(notification.KindUpload, fmt.Sprintf(
		"%s: %d rows ingested, %d duplicates, %d skipped (by %s)",
		fileName, len(toInsert), res.DuplicateRows, res.SkippedRows, uploadedBy))
	dashboard.BroadcastEvent(ev)
	if ws := dashboard.GetWebSocketServer(); ws != nil {
		ws.BroadcastEvent(ev)
	}
	if summary, mErr := json.Marshal(map[string]interface{}{
		"type":       "upload_complete",
		"upload_id":  uploadID.String(),
		"file_name":  fileName,
		"valid_rows": res.ValidRows,
		"time":       now.Format(time.RFC3339),
	}); mErr == nil {
		dashboard.SendToUser(uploadedBy, summary)
	}
	api.LogInfo("upload %s processed: file=%s valid=%d dup=%d skipped=%d",
		uploadID.String(), fileName, res.ValidRows, res.DuplicateRows, res.SkippedRows)

	out := map[string]interface{}{
		"file_name":      fileName,
		"success":        true,
		"status":         constants.UploadStatusProcessed,
		"upload_id":      uploadID.String(),
		"total_rows":     res.TotalRows,
		"valid_rows":     res.ValidRows,
		"skipped_rows":   res.SkippedRows,
		"duplicate_rows": res.DuplicateRows,
		"duplicates":     res.Duplicates,
		"headers":        res.Headers,
		"columns":        res.Columns,
	}
	if archivedURL != "" {
		out["archived_url"] = archivedURL
	}

	// Names a reviewer still has to approve before approved-only views pick
	// these rows up. Checked against the lists prevalidation preloaded.
	var sellerNames, planNames, zoneNames []string
	for _, t := range toInsert {
		sellerNames = append(sellerNames, t.SellerName)
		planNames = append(planNames, t.Plan)
		zoneNames = append(zoneNames, t.Zone)
	}
	if pending := pendingNames(sellerNames, func(n string) bool { return api.CtxHasApprovedSeller(ctx, n) }); len(pending) > 0 {
		out["pending_approval_sellers"] = pending
	}
	if pending := pendingNames(planNames, func(n string) bool { return api.CtxHasApprovedPlan(ctx, n) }); len(pending) > 0 {
		out["pending_approval_plans"] = pending
	}
	if unlisted := pendingNames(zoneNames, func(n string) bool { return api.CtxHasActiveZone(ctx, n) }); len(unlisted) > 0 {
		out["unlisted_zones"] = unlisted
	}
	return out
}

// pendingNames returns the distinct names failing the has check, sorted.
func pendingNames(names []string, has func(string) bool) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToUpper(n)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !has(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func nameKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ensureSellers maps every seller name in the batch to a seller_id,
// creating missing ones as pending masters so a file never fails on a new
// hire. The first spelling seen wins for the stored name.
func ensureSellers(ctx context.Context, tx pgx.Tx, txs []ingest.Transaction, requestedBy string) (map[string]string, error) {
	type candidate struct {
		name string
		zone string
	}
	var order []string
	candidates := map[string]candidate{}
	for _, t := range txs {
		key := nameKey(t.SellerName)
		if key == "" {
			continue
		}
		if _, ok := candidates[key]; ok {
			continue
		}
		candidates[key] = candidate{name: strings.TrimSpace(t.SellerName), zone: strings.TrimSpace(t.Zone)}
		order = append(order, key)
	}
	ids := make(map[string]string, len(candidates))
	if len(order) == 0 {
		return ids, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT UPPER(TRIM(seller_name)), seller_id
		FROM mastersellers
		WHERE UPPER(TRIM(seller_name)) = ANY($1)
		  AND COALESCE(is_deleted, false) = false
		ORDER BY seller_id
	`, order)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			rows.Close()
			return nil, err
		}
		if _, ok := ids[key]; !ok {
			ids[key] = id
		}
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	type newMaster struct {
		id   string
		name string
	}
	var created []newMaster
	batch := &pgx.Batch{}
	for _, key := range order {
		if _, ok := ids[key]; ok {
			continue
		}
		c := candidates[key]
		sellerID := newPrefixedID("S")
		batch.Queue(`
			INSERT INTO mastersellers (seller_id, seller_name, zone, active_status)
			VALUES ($1, $2, NULLIF($3, ''), 'Active')
		`, sellerID, c.name, c.zone)
		batch.Queue(`
			INSERT INTO auditactionseller (seller_id, actiontype, processing_status, reason, requested_by, requested_at)
			VALUES ($1, 'CREATE', $2, 'Auto-created from sales upload', $3, now())
		`, sellerID, constants.StatusPendingApproval, requestedBy)
		ids[key] = sellerID
		created = append(created, newMaster{id: sellerID, name: c.name})
	}
	if len(created) > 0 {
		res := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := res.Exec(); err != nil {
				res.Close()
				return nil, err
			}
		}
		if err := res.Close(); err != nil {
			return nil, err
		}
		for _, m := range created {
			api.LogInfo("seller %q auto-created as %s, pending approval", m.name, m.id)
		}
	}
	return ids, nil
}

func ensurePlans(ctx context.Context, tx pgx.Tx, txs []ingest.Transaction, requestedBy string) (map[string]string, error) {
	var order []string
	names := map[string]string{}
	for _, t := range txs {
		key := nameKey(t.Plan)
		if key == "" {
			continue
		}
		if _, ok := names[key]; ok {
			continue
		}
		names[key] = strings.TrimSpace(t.Plan)
		order = append(order, key)
	}
	ids := make(map[string]string, len(names))
	if len(order) == 0 {
		return ids, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT UPPER(TRIM(plan_name)), plan_id
		FROM masterplans
		WHERE UPPER(TRIM(plan_name)) = ANY($1)
		  AND COALESCE(is_deleted, false) = false
		ORDER BY plan_id
	`, order)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			rows.Close()
			return nil, err
		}
		if _, ok := ids[key]; !ok {
			ids[key] = id
		}
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	type newMaster struct {
		id   string
		name string
	}
	var created []newMaster
	batch := &pgx.Batch{}
	for _, key := range order {
		if _, ok := ids[key]; ok {
			continue
		}
		planID := newPrefixedID("P")
		batch.Queue(`
			INSERT INTO masterplans (plan_id, plan_name, active_status)
			VALUES ($1, $2, 'Active')
		`, planID, names[key])
		batch.Queue(`
			INSERT INTO auditactionplan (plan_id, actiontype, processing_status, reason, requested_by, requested_at)
			VALUES ($1, 'CREATE', $2, 'Auto-created from sales upload', $3, now())
		`, planID, constants.StatusPendingApproval, requestedBy)
		ids[key] = planID
		created = append(created, newMaster{id: planID, name: names[key]})
	}
	if len(created) > 0 {
		res := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := res.Exec(); err != nil {
				res.Close()
				return nil, err
			}
		}
		if err := res.Close(); err != nil {
			return nil, err
		}
		for _, m := range created {
			api.LogInfo("plan %q auto-created as %s, pending approval", m.name, m.id)
		}
	}
	return ids, nil
}

func salesArchiveBucket() string {
	return strings.TrimSpace(os.Getenv("SALES_S3_BUCKET"))
}

func salesArchiveRegion() string {
	if r := strings.TrimSpace(os.Getenv("SALES_S3_REGION")); r != "" {
		return r
	}
	return "us-east-1"
}

func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

func salesArchiveKey(uploadID, fileName string) string {
	return fmt.Sprintf("sales-uploads/%s/%s", uploadID, sanitizePathSegment(fileName))
}

func detectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	if len(data) > 512 {
		return http.DetectContentType(data[:512])
	}
	return http.DetectContentType(data)
}

// archiveOriginalToS3 stores the raw uploaded bytes for later audit. Failure
// is logged, never surfaced: the ingest already committed.
func archiveOriginalToS3(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(salesArchiveRegion()))
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3 (bucket %s, key %s): %w", bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}
