package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"VentaCommSaas/api"
	"VentaCommSaas/api/auth"
	"VentaCommSaas/internal/appmanager"
	"VentaCommSaas/internal/dashboard"
	"VentaCommSaas/internal/notification"
	"VentaCommSaas/internal/ratecache"
	"VentaCommSaas/internal/resource"
)

// InitDB loads DB config from env vars
func InitDB() (*sql.DB, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	connStr := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		user, pass, host, port, name,
	)
	return sql.Open("postgres", connStr)
}

// initPgxPool builds the shared pgx pool used by the rate job. Returns nil
// when the DB env vars are not set, the job then runs cache-only.
func initPgxPool() *pgxpool.Pool {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if user == "" || pass == "" || host == "" || port == "" || name == "" {
		log.Println("rate persistence disabled: DB env vars not set")
		return nil
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("failed to connect to pgxpool DB: %v", err)
	}
	return pool
}

func main() {
	// Load .env for local dev (ignored on Render)
	_ = godotenv.Load("../.env")

	// Initialize DB for Auth
	db, err := InitDB()
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	appmanager.SetDB(db)

	pool := initPgxPool()
	if pool != nil {
		appmanager.SetPgxPool(pool)
	}

	// Shared in-memory state: BCV rate cache and the event feed every
	// service publishes into.
	cache := ratecache.New(ratecache.DefaultTTL)
	feed := notification.NewFeed(notification.DefaultFeedLimit)
	appmanager.SetSharedState(cache, feed)

	// Event fan-out servers, created before any service can publish.
	dashboard.NewSSEServer()
	ws := dashboard.NewWebSocketServer()
	go ws.HandleMessages()

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence("../services.yaml")
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// --- Wire AuthService to Gateway ---
	authSvcIface := manager.GetServiceByName("auth")
	if authSvcIface == nil {
		log.Fatal("Auth service not found in manager")
	}
	realAuthSvc, ok := authSvcIface.(*auth.AuthService)
	if !ok {
		log.Fatal("Auth service type assertion failed")
	}
	api.SetAuthService(realAuthSvc)

	// Register shared handles so the heartbeat reports what this process
	// actually holds.
	if rmIface := manager.GetServiceByName("resourcemanager"); rmIface != nil {
		if rm, ok := rmIface.(*resource.ResourceManager); ok {
			rm.AddResource("authdb", db)
			if pool != nil {
				rm.AddResource("pgxpool", pool)
			}
			rm.AddResource("ratecache", cache)
			rm.AddResource("eventfeed", feed)
		}
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
}
