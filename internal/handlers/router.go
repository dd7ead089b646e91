package handlers

import (
	"crypto/rsa"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avicola-track/farm-service/internal/middleware"
	"github.com/avicola-track/farm-service/internal/service"
	"github.com/avicola-track/farm-service/pkg/metrics"
)

// RouterConfig contains configuration for setting up routes
type RouterConfig struct {
	Service     *service.Service
	PublicKey   *rsa.PublicKey
	Revocations middleware.RedisInterface
	Metrics     *metrics.Metrics
	Postgres    HealthChecker
	Redis       HealthChecker
	Logger      *slog.Logger
}

// SetupPublicRoutes registers the JWT-protected farm API
func SetupPublicRoutes(router *gin.Engine, config *RouterConfig) {
	farmHandler := NewFarmHandler(config.Service, config.Logger)
	jwtMiddleware := middleware.NewJWTAuthMiddleware(config.PublicKey, config.Revocations, config.Logger)
	loggingMiddleware := middleware.NewLoggingMiddleware(config.Logger)

	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware(config.Metrics))
	router.Use(loggingMiddleware.LogRequests())

	api := router.Group("/api/farm")
	api.Use(jwtMiddleware.AuthenticateJWT())

	items := api.Group("/inventory/items/:id")
	{
		items.GET("", farmHandler.GetItem)
		items.POST("/stock", farmHandler.AddStock)
		items.POST("/consume", farmHandler.ConsumeStock)
		items.GET("/ledger", farmHandler.GetLedger)
		items.GET("/consumption", farmHandler.GetConsumptionHistory)
		items.POST("/metrics", farmHandler.UpdateMetrics)
	}

	flocks := api.Group("/flocks/:id")
	{
		flocks.POST("/mortality", farmHandler.RegisterMortality)
		flocks.GET("/mortality/stats", farmHandler.GetMortalityStats)
	}

	sync := api.Group("/sync")
	{
		sync.POST("/mortality", farmHandler.SyncMortality)
		sync.POST("/conflicts", farmHandler.ReportConflict)
		sync.GET("/conflicts", farmHandler.ListConflicts)
		sync.GET("/conflicts/:id", farmHandler.GetConflict)
		sync.POST("/conflicts/:id/resolve", farmHandler.ResolveConflict)
	}
}

// SetupInternalRoutes registers health, metrics and the service-token maintenance endpoints.
// The internal router is isolated by network; maintenance additionally requires an internal role.
func SetupInternalRoutes(router *gin.Engine, config *RouterConfig) {
	farmHandler := NewFarmHandler(config.Service, config.Logger)
	healthHandler := NewHealthHandler(config.Logger, config.Postgres, config.Redis)
	loggingMiddleware := middleware.NewLoggingMiddleware(config.Logger)

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware.LogRequests())

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if config.PublicKey == nil {
		config.Logger.Warn("No public key configured, internal maintenance endpoints are disabled")
		return
	}

	serviceAuth := middleware.NewServiceJWTAuthMiddleware(config.PublicKey, config.Revocations, config.Logger)
	maintenance := router.Group("/internal/farm")
	maintenance.Use(serviceAuth.AuthenticateServiceJWT())
	{
		maintenance.POST("/metrics/recompute", farmHandler.RecomputeMetrics)
		maintenance.POST("/cache/clear", farmHandler.ClearCache)
	}
}
