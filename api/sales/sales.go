package sales

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	api "VentaCommSaas/api"
	middlewares "VentaCommSaas/api/middlewares"
	"VentaCommSaas/api/sales/reports"
	"VentaCommSaas/api/sales/transactions"
	"VentaCommSaas/api/sales/upload"
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"

	"github.com/jackc/pgx/v5/pgxpool"
)

func StartSalesService(cache *ratecache.Cache, feed *notification.Feed) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sales/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Sales Service is active"))
	})

	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	dbname := os.Getenv("DB_NAME")

	if user != "" && password != "" && host != "" && port != "" && dbname != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)

		pgxPool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("failed to connect to pgxpool DB: %v", err)
		}

		withSession := middlewares.PreValidationMiddleware(pgxPool)
		withSalesCtx := api.SalesContextMiddleware(pgxPool)

		mux.Handle("/sales/upload", withSession(upload.UploadSalesFiles(pgxPool, feed)))
		mux.Handle("/sales/uploads", withSession(upload.GetUploadHistory(pgxPool)))
		mux.Handle("/sales/transactions", withSession(transactions.GetSalesTransactions(pgxPool)))
		mux.Handle("/sales/transactions/delete", withSession(transactions.BulkDeleteSalesTransactions(pgxPool)))
		mux.Handle("/sales/reports/commissions", withSalesCtx(reports.MonthlyCommissionReport(pgxPool, cache)))
	} else {
		log.Println("sales routes not registered: DB env vars not set")
	}

	log.Println("Sales Service started on :6143")
	err := http.ListenAndServe(":6143", mux)
	if err != nil {
		log.Fatalf("Sales Service failed: %v", err)
	}
}
