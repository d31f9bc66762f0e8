package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/olist/dashboard/internal/infrastructure/config"
	"github.com/olist/dashboard/internal/infrastructure/logger"
	"github.com/olist/dashboard/internal/infrastructure/telemetry"
	"github.com/olist/dashboard/internal/interfaces/http/handler"
	"github.com/olist/dashboard/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig holds what the middleware chain needs
type EngineConfig struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	Meter   *telemetry.MeterProvider
	Logger  *zap.Logger
}

// NewEngine creates a gin engine with the middleware chain, in order:
//  1. RequestID
//  2. Recovery
//  3. Tracing, span attributes and error marking
//  4. HTTP metrics
//  5. Logger
//  6. Security headers and CORS
//  7. Request timeout
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	middleware.SetupValidator()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Meter))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))
	return engine, nil
}

// DashboardRoutes mounts the dashboard endpoints under /dashboard
func DashboardRoutes(h *handler.DashboardHandler) *DomainGroup {
	return NewDomainGroup("dashboard", "/dashboard").
		GET("", h.Get).
		GET("/kpis", h.GetKPIs).
		GET("/facets", h.GetFacets).
		GET("/status", h.GetStatus).
		GET("/export", h.Export).
		POST("/reload", h.Reload)
}

// SystemRoutes mounts the system endpoints under /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping).
		GET("/info", h.GetSystemInfo).
		GET("/health", h.Health)
}
