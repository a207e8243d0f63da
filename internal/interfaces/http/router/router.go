package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adsync/backend/internal/infrastructure/config"
	"github.com/adsync/backend/internal/infrastructure/logger"
	"github.com/adsync/backend/internal/interfaces/http/handler"
	"github.com/adsync/backend/internal/interfaces/http/middleware"
)

// Dependencies carries everything the router needs to wire routes
type Dependencies struct {
	Logger    *zap.Logger
	HTTP      config.HTTPConfig
	Telemetry config.TelemetryConfig

	System *handler.SystemHandler
	Sync   *handler.SyncHandler
}

// New builds the gin engine with the common middleware chain and all
// API routes registered
func New(deps Dependencies) *gin.Engine {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: deps.Telemetry.ServiceName,
			Enabled:     deps.Telemetry.Enabled,
		}),
		middleware.TracingAttributes(),
		logger.GinMiddleware(deps.Logger),
		logger.Recovery(deps.Logger),
		middleware.CORSWithConfig(corsConfig(deps.HTTP)),
		middleware.Secure(),
	)
	if deps.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(deps.HTTP.MaxBodySize))
	}

	engine.GET("/healthz", deps.System.Health)

	api := engine.Group("/api/v1")
	{
		api.GET("/system/info", deps.System.GetSystemInfo)
		api.GET("/system/ping", deps.System.Ping)

		deps.Sync.RegisterRoutes(api)
	}

	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORSOrigins
	return corsCfg
}
