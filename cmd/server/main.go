// Package main is the entry point for the building operations engine server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/building-ops/backend/internal/api"
	"github.com/building-ops/backend/internal/compliance"
	"github.com/building-ops/backend/internal/config"
	"github.com/building-ops/backend/internal/notify"
	"github.com/building-ops/backend/internal/schedule"
	"github.com/building-ops/backend/internal/storage"
	"github.com/building-ops/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Parse command-line flags; flags override environment configuration
	addr := flag.String("addr", "", "HTTP server address")
	dataDir := flag.String("data", "", "Data directory for SQLite database")
	staticDir := flag.String("static", "", "Directory for static frontend files")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dataDir != "" {
		cfg.Server.DataDir = *dataDir
	}
	if *staticDir != "" {
		cfg.Server.StaticDir = *staticDir
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Server.Addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting Building Operations Engine (version: %s)...", version)

	// Initialize database
	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", cfg.Server.DataDir, err)
	}
	dbPath := cfg.Server.DataDir + "/building-ops.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	scheduleRepo := storage.NewScheduleRepository(db)
	taskRepo := storage.NewTaskRepository(db)
	contractorRepo := storage.NewContractorRepository(db)
	documentRepo := storage.NewDocumentRepository(db)

	// Pick the notification dispatcher: SendGrid when configured, otherwise
	// log-only so the engine still runs in development
	var dispatcher notify.Dispatcher
	if cfg.Email.APIKey != "" {
		dispatcher = notify.NewEmailDispatcher(cfg.Email.APIKey, cfg.Email.FromName, cfg.Email.FromEmail)
		log.Println("Email notifications enabled via SendGrid")
	} else {
		dispatcher = notify.NewLogDispatcher()
		log.Println("No email provider configured, notifications will be logged only")
	}

	// Initialize engine services
	resolver := schedule.NewAssignmentResolver(cfg.Engine.MinComplianceScore)
	generator := schedule.NewGenerator(scheduleRepo, taskRepo, contractorRepo, resolver, dispatcher, hub)
	complianceService := compliance.NewService(
		contractorRepo, documentRepo, dispatcher, hub,
		cfg.Engine.CooldownDays, cfg.Engine.FollowUpDays,
	)

	// Initialize cron drivers
	maintenanceScheduler := schedule.NewScheduler(generator, cfg.Engine.MaintenanceSpec)
	complianceScheduler := compliance.NewScheduler(complianceService, cfg.Engine.WeeklyReviewSpec, cfg.Engine.DocumentCheckSpec)

	if err := maintenanceScheduler.Start(); err != nil {
		log.Fatalf("Failed to start maintenance scheduler: %v", err)
	}
	if err := complianceScheduler.Start(); err != nil {
		log.Fatalf("Failed to start compliance scheduler: %v", err)
	}

	// Initialize HTTP router with services
	repos := api.Repositories{
		Schedules:   scheduleRepo,
		Tasks:       taskRepo,
		Contractors: contractorRepo,
		Documents:   documentRepo,
	}
	router := api.NewRouter(
		db, repos, hub, cfg.Server.StaticDir,
		generator, complianceService,
		maintenanceScheduler, complianceScheduler,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop schedulers
	maintenanceScheduler.Stop()
	complianceScheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
