// Package router assembles the admin API gin engine.
package router

import (
	"github.com/erp/wmsconnector/internal/infrastructure/logger"
	"github.com/erp/wmsconnector/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LivenessPath is served without authentication
const LivenessPath = "/health"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config wires the engine
type Config struct {
	ServiceName    string
	TracingEnabled bool
	TrustedProxies []string
	Logger         *zap.Logger
	// Tokens validates admin bearer tokens. Nil leaves only the liveness endpoint mounted.
	Tokens     middleware.TokenValidator
	Liveness   gin.HandlerFunc
	Registrars []RouteRegistrar
}

// New builds the engine with the middleware stack in order:
// request id, recovery, request log, security headers, tracing, then admin auth on /api/v1.
func New(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, LivenessPath))
	engine.Use(middleware.Secure())
	if cfg.TracingEnabled {
		engine.Use(middleware.Tracing(cfg.ServiceName))
	}

	if cfg.Liveness != nil {
		engine.GET(LivenessPath, cfg.Liveness)
	}

	if cfg.Tokens == nil {
		log.Warn("Admin API disabled: no admin jwt secret configured")
		return engine
	}

	api := engine.Group("/api/v1", middleware.AdminAuth(cfg.Tokens, log))
	for _, registrar := range cfg.Registrars {
		registrar.RegisterRoutes(api)
	}
	return engine
}
