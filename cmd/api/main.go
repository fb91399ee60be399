package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/promptpilot/promptpilot/internal/config"
	"github.com/promptpilot/promptpilot/internal/database"
	"github.com/promptpilot/promptpilot/internal/googleauth"
	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/internal/middleware"
	"github.com/promptpilot/promptpilot/internal/migrate"
	"github.com/promptpilot/promptpilot/internal/optimizer"
	"github.com/promptpilot/promptpilot/internal/provider"
	"github.com/promptpilot/promptpilot/internal/quota"
	"github.com/promptpilot/promptpilot/internal/retention"
	"github.com/promptpilot/promptpilot/internal/tracing"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stdout"}
	if cfg.Environment == "development" {
		logCfg.Format = "console"
	}
	log, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	// Apply schema migrations before accepting traffic
	if err := migrate.Up(context.Background(), database.DSN(cfg.Database)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	ledger := quota.New(db, cfg.Quota.DailyLimit)

	sweeper := retention.New(db.Pool, log, cfg.Quota.RetentionDays)
	sweeper.Start()
	defer sweeper.Stop()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warnf("Redis unavailable, transport rate limiting degraded: %v", err)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer("promptpilot-api", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer closer.Close()
	}

	verifier := googleauth.NewVerifier(cfg.Google.ClientID)
	providerClient := provider.NewClient(cfg.Provider)
	optimizeService := optimizer.NewService(repo, ledger, providerClient, log)

	api := &API{
		repo:      repo,
		optimizer: optimizeService,
		verifier:  verifier,
		cfg: &apiConfig{
			Environment:   cfg.Environment,
			TokenLifetime: cfg.Auth.TokenLifetime,
		},
		started: time.Now(),
	}

	router := setupRouter(api, routerMiddleware{
		Logger: middleware.Logger(log),
		CORS: cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		GlobalLimit: middleware.WindowLimit(middleware.NewWindowLimiter(
			redisClient, "global", cfg.RateLimit.GlobalRequests, cfg.RateLimit.GlobalWindow)),
		AuthLimit: middleware.RateLimit(middleware.NewRateLimiter(
			cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)),
		OptimizeLimit: middleware.WindowLimit(middleware.NewWindowLimiter(
			redisClient, "optimize", cfg.RateLimit.OptimizeRequests, cfg.RateLimit.OptimizeWindow)),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Starting API server on %s (%s)", addr, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
