package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/rl1809/teleshop-ledger/internal/adapter/handler"
	"github.com/rl1809/teleshop-ledger/internal/adapter/storage"
	"github.com/rl1809/teleshop-ledger/internal/core/service"
	"github.com/rl1809/teleshop-ledger/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := getEnv("DB_DRIVER", "sqlite")
	dsn := getEnv("DB_DSN", "teleshop.db")
	httpAddr := getEnv("HTTP_ADDR", ":8080")

	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if driver == "mysql" {
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// The sqlite driver is single-writer; one connection avoids
		// busy errors under concurrent ingests.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := storage.InitSchema(ctx, db); err != nil {
		log.Fatalf("failed to init schema: %v", err)
	}
	log.Printf("connected to %s database", driver)

	store := storage.NewSQLAdapter(db)

	// Redis cache is optional: without it reads go straight to the ledger.
	var cache port.CacheRepository
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		cache = storage.NewRedisAdapter(rdb)
		log.Println("connected to redis")
	}

	ingestService := service.NewIngestService(store, store, cache)
	pickupService := service.NewPickupService(store)
	stockService := service.NewStockService(store, cache)

	httpHandler := handler.NewHTTPHandler(ingestService, pickupService, stockService, store)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Println("connections closed")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
