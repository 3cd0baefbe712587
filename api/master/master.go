package master

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	allMaster "VentaCommSaas/api/master/allMasters"
	middlewares "VentaCommSaas/api/middlewares"

	"github.com/jackc/pgx/v5/pgxpool"
)

func StartMasterService(db *sql.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/master/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Master Service"))
	})

	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	dbname := os.Getenv("DB_NAME")

	if user != "" && password != "" && host != "" && port != "" && dbname != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)

		// shared pgx pool for the prevalidation middleware
		pgxPool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("failed to connect to pgxpool DB: %v", err)
		}

		withSession := middlewares.PreValidationMiddleware(pgxPool)

		// Sellers: maker-checker masters
		mux.Handle("/master/sellers/create", withSession(allMaster.CreateSellerMaster(db)))
		mux.Handle("/master/sellers/all", withSession(allMaster.GetAllSellerMaster(db)))
		mux.Handle("/master/sellers/names", withSession(allMaster.GetSellerNamesWithID(db)))
		mux.Handle("/master/sellers/update-bulk", withSession(allMaster.UpdateSellerMasterBulk(db)))
		mux.Handle("/master/sellers/delete-bulk", withSession(allMaster.BulkDeleteSellerAudit(db)))
		mux.Handle("/master/sellers/approve-bulk", withSession(allMaster.BulkApproveSellerAuditActions(db)))
		mux.Handle("/master/sellers/reject-bulk", withSession(allMaster.BulkRejectSellerAuditActions(db)))

		// Plans: maker-checker masters
		mux.Handle("/master/plans/create", withSession(allMaster.CreatePlanMaster(db)))
		mux.Handle("/master/plans/all", withSession(allMaster.GetAllPlanMaster(db)))
		mux.Handle("/master/plans/names", withSession(allMaster.GetPlanNamesWithID(db)))
		mux.Handle("/master/plans/update-bulk", withSession(allMaster.UpdatePlanMasterBulk(db)))
		mux.Handle("/master/plans/delete-bulk", withSession(allMaster.BulkDeletePlanAudit(db)))
		mux.Handle("/master/plans/approve-bulk", withSession(allMaster.BulkApprovePlanAuditActions(db)))
		mux.Handle("/master/plans/reject-bulk", withSession(allMaster.BulkRejectPlanAuditActions(db)))

		// Zones: no approval chain
		mux.Handle("/master/zones/create", withSession(allMaster.CreateZoneMaster(db)))
		mux.Handle("/master/zones/all", withSession(allMaster.GetAllZoneMaster(db)))
		mux.Handle("/master/zones/names", withSession(allMaster.GetZoneNamesWithID(db)))
		mux.Handle("/master/zones/update-bulk", withSession(allMaster.UpdateZoneMasterBulk(db)))
		mux.Handle("/master/zones/delete-bulk", withSession(allMaster.BulkDeleteZoneMaster(db)))
	} else {
		log.Println("master routes not registered: DB env vars not set")
	}

	log.Println("Master Service started on :2143")
	err := http.ListenAndServe(":2143", mux)
	if err != nil {
		log.Fatalf("Master Service failed: %v", err)
	}
}
