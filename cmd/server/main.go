package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/application/services"
	"github.com/provia/proofbridge/internal/core/ports"
	memcache "github.com/provia/proofbridge/internal/infrastructure/cache"
	"github.com/provia/proofbridge/internal/infrastructure/db"
	"github.com/provia/proofbridge/internal/infrastructure/email"
	"github.com/provia/proofbridge/internal/infrastructure/health"
	"github.com/provia/proofbridge/internal/infrastructure/httpserver"
	"github.com/provia/proofbridge/internal/infrastructure/pageproof"
	"github.com/provia/proofbridge/internal/infrastructure/powerapps"
	infraRedis "github.com/provia/proofbridge/internal/infrastructure/redis"
	"github.com/provia/proofbridge/internal/infrastructure/repositories"
	"github.com/provia/proofbridge/internal/infrastructure/secrets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting ProofBridge integration service...")

	// Initialize database (delivery bookkeeping)
	database, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	healthCheckers := []ports.HealthChecker{health.NewDBHealthChecker(database)}

	// Initialize the cache backend. The in-memory cache is the default; the
	// Redis backend shares verification results across replicas.
	var appCache ports.Cache
	var memoryCache *memcache.MemoryCache
	switch cfg.Cache.Backend {
	case "redis":
		redisClient, err := infraRedis.NewClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		appCache = infraRedis.NewRedisCache(redisClient, "proofbridge", logger)
		healthCheckers = append(healthCheckers, health.NewRedisHealthChecker(redisClient))
		logger.Info("Connected to Redis successfully")
	default:
		memoryCache = memcache.NewMemoryCache(memcache.Options{
			MaxEntries:    cfg.Cache.MaxEntries,
			SweepInterval: cfg.Cache.SweepInterval,
		}, logger)
		memoryCache.Start()
		defer memoryCache.Stop()
		appCache = memoryCache
		logger.Info("In-memory cache initialized")
	}

	// Operator alerts (optional; nil disables)
	var alertService ports.AlertService
	if cfg.Alerts.Enabled {
		alertService = email.NewAlertService(&cfg.Alerts, logger)
	}

	// Secret store: vault-style HTTP endpoint, or environment variables for
	// local development.
	var secretStore ports.SecretStore
	if cfg.HMAC.StoreURL != "" {
		secretStore = secrets.NewHTTPStore(cfg.HMAC.StoreURL, cfg.HMAC.StoreToken, logger)
	} else {
		logger.Warn("SECRET_STORE_URL not set - resolving secrets from environment")
		secretStore = secrets.NewEnvStore()
	}

	secretProvider := services.NewSecretService(secretStore, &cfg.HMAC, alertService, logger)
	signatureService := services.NewSignatureService(secretProvider, &cfg.HMAC, cfg.PageProof.WebhookSecret, logger)

	platformClient := pageproof.NewClient(&cfg.PageProof, logger)
	proofService := services.NewProofsService(platformClient, appCache, logger)

	deliveryRepo := repositories.NewDeliveryRepository(database, logger)
	relayEndpoint := powerapps.NewEndpoint(&cfg.PowerApps, logger)
	relayService := services.NewRelayService(relayEndpoint, deliveryRepo, alertService, &cfg.PowerApps, logger)

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
		VerifyCacheTTL: cfg.HMAC.CacheTTL,
	}

	deps := httpserver.ServerDeps{
		SignatureService: signatureService,
		SecretProvider:   secretProvider,
		ProofService:     proofService,
		RelayService:     relayService,
		Deliveries:       deliveryRepo,
		Cache:            appCache,
		HealthCheckers:   healthCheckers,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
