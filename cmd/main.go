package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dispatch-gateway/internal/api"
	"dispatch-gateway/internal/auth"
	"dispatch-gateway/internal/config"
	"dispatch-gateway/internal/events"
	"dispatch-gateway/internal/metrics"
	"dispatch-gateway/internal/namespace"
	"dispatch-gateway/internal/registry"
	"dispatch-gateway/internal/storage"
)

// @title Script Dispatch Gateway API
// @version 1.0
// @description Multi-tenant script upload and dispatch gateway
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded")

	// Setup JWT Secret
	auth.SetSecret(cfg.Auth.JWTSecret)

	// Init PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.DB.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	log.Println("PostgreSQL connected")

	// Init dispatch namespace client
	var ns namespace.Client
	if cfg.Namespace.BaseURL != "" {
		ns = namespace.NewHTTPClient(cfg.Namespace.BaseURL, cfg.Namespace.APIToken)
		log.Printf("Using remote dispatch namespace at %s", cfg.Namespace.BaseURL)
	} else {
		ns = namespace.NewMemoryClient()
		log.Println("Using in-process dispatch namespace (demo mode)")
	}

	// Init optional upload-event publisher
	var pub *events.Publisher
	if cfg.Events.URL != "" {
		pub, err = events.NewPublisher(cfg.Events.URL)
		if err != nil {
			log.Fatalf("Failed to connect event publisher: %v", err)
		}
		defer pub.Close()
		log.Println("Event publisher connected")
	}

	// Init registry workflow
	reg := registry.New(db, ns, pub)

	// Init API
	apiHandler := api.NewAPI(reg, db, ns, cfg)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
	}

	// Graceful Shutdown Setup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Starting gateway on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done() // Wait for interrupt signal
	log.Println("Shutdown initiated...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("Graceful shutdown complete")
}
