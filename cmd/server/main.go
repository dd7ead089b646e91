package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/avicola-track/farm-service/internal/config"
	"github.com/avicola-track/farm-service/internal/database"
	"github.com/avicola-track/farm-service/internal/handlers"
	"github.com/avicola-track/farm-service/internal/notification"
	"github.com/avicola-track/farm-service/internal/repository"
	"github.com/avicola-track/farm-service/internal/service"
	"github.com/avicola-track/farm-service/internal/storage"
	"github.com/avicola-track/farm-service/migrations"
	"github.com/avicola-track/farm-service/pkg/jwt"
	"github.com/avicola-track/farm-service/pkg/logger"
	"github.com/avicola-track/farm-service/pkg/metrics"
	"github.com/avicola-track/farm-service/pkg/tracing"
)

const (
	healthInterval  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Starting farm-service", "config", cfg.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(rootCtx, tracing.Options{Endpoint: cfg.OTELEndpoint, AuthHeader: cfg.OTELAuthHeader})
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	metricsCollector := metrics.New()
	metricsCollector.Initialize()
	defer metricsCollector.Shutdown()

	gin.SetMode(gin.ReleaseMode)

	postgres, err := database.NewPostgresDB(cfg.DatabaseURL, cfg.DatabaseMaxConns, log, metricsCollector)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer postgres.Close()

	if cfg.RunMigrations {
		scripts, err := migrations.Scripts()
		if err == nil {
			err = postgres.Migrate(rootCtx, scripts)
		}
		if err != nil {
			log.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// Redis is optional: without it the cache is in-process and the
	// recompute job runs without a cross-replica lock
	var redisDB *database.RedisDB
	if cfg.RedisURL != "" || cfg.RedisAuthURL != "" {
		cacheURL, authURL := cfg.RedisURL, cfg.RedisAuthURL
		if cacheURL == "" {
			cacheURL, authURL = authURL, ""
		}
		redisDB, err = database.NewRedisDB(cacheURL, authURL, cfg.RedisMaxConns, log, metricsCollector)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		defer redisDB.Close()
	} else {
		log.Warn("Redis is not configured, using in-memory cache and skipping token revocation checks")
	}

	publicKey, err := jwt.LoadPublicKey(cfg.JWTPublicKeyPath, cfg.AuthServiceURL)
	if err != nil {
		log.Error("Failed to load JWT public key, authentication cannot work without it", "error", err)
		os.Exit(1)
	}
	log.Info("JWT public key loaded", "from_file", cfg.JWTPublicKeyPath != "")

	notificationLog := storage.NewNotificationLogStorage(postgres.Pool(), log)
	sink, closeSink, err := notification.NewSink(notification.Options{
		Sink:          cfg.NotificationSink,
		KafkaBrokers:  cfg.KafkaBrokers,
		KafkaTopic:    cfg.KafkaNotificationsTopic,
		TelegramToken: cfg.TelegramBotToken,
	}, notificationLog, log)
	if err != nil {
		log.Error("Failed to initialize notification sink", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeSink(); err != nil {
			log.Error("Failed to close notification sink", "error", err)
		}
	}()

	serviceMetrics := metrics.NewServiceMetrics(metricsCollector)
	directory := storage.NewDirectoryStorage(postgres.Pool(), log)

	deps := &service.ServiceDependencies{
		Repositories: &service.RepositoryInterfaces{
			Transactions: storage.NewTxManager(postgres.Pool(), cfg.DatabaseLockTimeout, log),
			Inventory:    storage.NewInventoryStorage(postgres.Pool(), log, serviceMetrics),
			Flocks:       storage.NewFlockStorage(postgres.Pool(), log),
			Conflicts:    storage.NewConflictStorage(postgres.Pool(), log),
			Directory:    directory,
			Alarms:       directory,
			Reads:        repository.NewReadRepository(postgres.SQLX()),
		},
		Cache:               repository.NewMemoryCache(),
		Metrics:             serviceMetrics,
		Sink:                sink,
		Clock:               service.SystemClock{},
		Logger:              log,
		CacheTTL:            cfg.CacheTTL,
		NotificationTimeout: cfg.NotificationTimeout,
	}

	var locker service.DistributedLocker
	routerConfig := &handlers.RouterConfig{
		PublicKey: publicKey,
		Metrics:   metricsCollector,
		Postgres:  postgres,
		Logger:    log,
	}
	if redisDB != nil {
		deps.Cache = service.NewRedisCache(redisDB.Client())
		locker = service.NewRedisLocker(redisDB.Client())
		routerConfig.Revocations = redisDB
		routerConfig.Redis = redisDB
	}

	routerConfig.Service = service.NewService(deps)

	recomputeJob := service.NewMetricsRecomputeJob(routerConfig.Service.StockMetrics, locker, cfg.MetricsRecomputeInterval, log)
	go recomputeJob.Run(rootCtx)

	publicRouter := gin.New()
	handlers.SetupPublicRoutes(publicRouter, routerConfig)

	internalRouter := gin.New()
	handlers.SetupInternalRoutes(internalRouter, routerConfig)

	publicServer := newServer(cfg.ServiceHost, cfg.ServicePort, publicRouter)
	internalServer := newServer(cfg.ServiceHost, cfg.InternalServicePort, internalRouter)

	go monitorDependencies(rootCtx, postgres, redisDB)

	go serve(publicServer, "Public", log)
	go serve(internalServer, "Internal", log)

	<-rootCtx.Done()
	log.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := publicServer.Shutdown(ctx); err != nil {
		log.Error("Public server forced to shutdown", "error", err)
	}
	if err := internalServer.Shutdown(ctx); err != nil {
		log.Error("Internal server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error("Failed to flush traces", "error", err)
	}

	log.Info("Server exited")
}

func newServer(host, port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func serve(server *http.Server, name string, log *slog.Logger) {
	log.Info(name+" server starting", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(name+" server failed to start", "error", err)
		os.Exit(1)
	}
}

// monitorDependencies refreshes the dependency health gauges; Health updates them itself
func monitorDependencies(ctx context.Context, postgres *database.PostgresDB, redisDB *database.RedisDB) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_ = postgres.Health(checkCtx)
			if redisDB != nil {
				_ = redisDB.Health(checkCtx)
			}
			cancel()
		}
	}
}
