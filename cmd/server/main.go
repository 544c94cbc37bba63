package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"orgconsole-backend/internal/admin"
	"orgconsole-backend/internal/auth"
	"orgconsole-backend/internal/cache"
	"orgconsole-backend/internal/db"
	"orgconsole-backend/internal/events"
	"orgconsole-backend/internal/handlers"
	"orgconsole-backend/internal/hub"
	consolemw "orgconsole-backend/internal/middleware"
	"orgconsole-backend/internal/services"
	"orgconsole-backend/internal/storage"
	"orgconsole-backend/internal/workers"
)

func main() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if os.Getenv("SERVICE_ROLE_KEY") == "" {
		// Deliberately not fatal: the admin surface reports this as
		// a 500 on every call until the deployment is fixed.
		log.Println("WARN SERVICE_ROLE_KEY is not set; admin API will refuse requests")
	}

	// Database connection (with retries)
	var sqlDB *sqlx.DB
	var err error
	for i := 0; i < 10; i++ {
		sqlDB, err = sqlx.Connect("postgres", buildDSN())
		if err == nil {
			break
		}
		log.Printf("DB connection attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer sqlDB.Close()
	log.Println("Connected to database")

	if err := db.Migrate(sqlDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis cache
	redisClient, err := cache.NewRedisClient()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// NATS event bus
	bus, err := events.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	// Feed credentials issuer (optional)
	var issuer admin.FeedIssuer
	if seed := os.Getenv("NATS_SIGNING_KEY_SEED"); seed != "" {
		ci, err := events.NewCredentialsIssuer(seed, os.Getenv("NATS_ACCOUNT_PUBLIC_KEY"))
		if err != nil {
			log.Fatalf("Failed to init feed credentials issuer: %v", err)
		}
		issuer = ci
	} else {
		log.Println("WARN NATS_SIGNING_KEY_SEED is not set; feed credentials endpoint disabled")
	}

	// Storage
	store := storage.NewStorage(sqlDB)

	// Live feed hub + fan-out
	feedHub := hub.NewHub()
	fanout := events.NewFanout(feedHub, bus, redisClient)

	// Slack alerts
	slackClient := services.NewSlackClient()

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workers.StartUnreadReconciler(ctx, redisClient, store)

	// HTTP handlers
	authHandler := auth.NewHandler(store)
	publicHandler := handlers.New(store, fanout, slackClient)
	adminHandler := admin.New(store, fanout, redisClient, feedHub, issuer)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	authHandler.RegisterRoutes(r, consolemw.RateLimitLogin(redisClient))
	publicHandler.RegisterRoutes(r, consolemw.RateLimitSignup(redisClient))
	adminHandler.RegisterRoutes(r)

	// API docs + static files (UI)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.json")))
	fileServer := http.FileServer(http.Dir("static"))
	r.Handle("/*", fileServer)

	server := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		_ = server.Shutdown(shutdownCtx)
	}()

	log.Println("Server starting on :8080")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

func buildDSN() string {
	return "host=" + getEnv("DB_HOST", "localhost") +
		" user=" + getEnv("DB_USER", "console_user") +
		" password=" + getEnv("DB_PASSWORD", "console_pass") +
		" dbname=" + getEnv("DB_NAME", "orgconsole") +
		" sslmode=disable"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
