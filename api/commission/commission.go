package commission

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	middlewares "VentaCommSaas/api/middlewares"
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

func StartCommissionService(cache *ratecache.Cache, feed *notification.Feed) {
	router := mux.NewRouter()
	router.HandleFunc("/commission/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Commission Service"))
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

		sub := router.PathPrefix("/commission").Subrouter()
		sub.Use(middlewares.PreValidationMiddleware(pgxPool))

		sub.HandleFunc("/config/get", GetCommissionConfig(pgxPool)).Methods("POST")
		sub.HandleFunc("/config/update", UpdateCommissionConfig(pgxPool)).Methods("POST")

		sub.HandleFunc("/rules", ListCommissionRules(pgxPool)).Methods("GET")
		sub.HandleFunc("/rules", CreateCommissionRule(pgxPool)).Methods("POST")
		sub.HandleFunc("/rules/{seller_id}", UpdateCommissionRule(pgxPool)).Methods("PUT")
		sub.HandleFunc("/rules/{seller_id}", DeleteCommissionRule(pgxPool)).Methods("DELETE")

		sub.HandleFunc("/rates/current", GetCurrentRate(pgxPool, cache)).Methods("GET")
		sub.HandleFunc("/rates/refresh", RefreshRate(pgxPool, cache, feed)).Methods("POST")
	} else {
		log.Println("commission routes not registered: DB env vars not set")
	}

	log.Println("Commission Service started on :3143")
	err := http.ListenAndServe(":3143", router)
	if err != nil {
		log.Fatalf("Commission Service failed: %v", err)
	}
}
