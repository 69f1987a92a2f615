package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/friendstransport/fleetgo/internal/config"
	"github.com/friendstransport/fleetgo/internal/database"
	"github.com/friendstransport/fleetgo/internal/handlers"
	"github.com/friendstransport/fleetgo/internal/middleware"
	"github.com/friendstransport/fleetgo/internal/store"
	"github.com/friendstransport/fleetgo/internal/store/gormstore"
	"github.com/friendstransport/fleetgo/internal/store/memstore"
	"github.com/friendstransport/fleetgo/internal/websocket"
	"github.com/rs/cors"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the store
	var (
		st store.Store
		db *database.DB
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Println("🧪 Mode: [In-memory store] - data is lost on exit")
		st = memstore.New()
	default:
		// Detects embedded vs external automatically
		db, err = database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		log.Println("🚀 Synchronizing database schema...")
		if err := database.Migrate(db.DB); err != nil {
			db.Close()
			log.Fatalf("Migration failed: %v", err)
		}
		st = gormstore.New(db.DB)
	}

	if _, err := handlers.BootstrapAdmin(ctx, st, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Printf("⚠️ Admin bootstrap failed: %v", err)
	}

	// 3. Event feed
	hub := websocket.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// 4. Set up HTTP router
	router := handlers.NewRouter(cfg, st, hub)
	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(middleware.CaseInsensitiveMiddleware(router))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server (%s) starting on port %s", cfg.NodeEnv, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("⚠️  Shutdown signal received. Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	stopHub()

	// Close database (this also stops embedded PostgreSQL)
	if db != nil {
		log.Println("🛑 Closing database connection...")
		if err := db.Close(); err != nil {
			log.Printf("Database close error: %v", err)
		}
	}

	log.Println("✅ Shutdown complete")
}
