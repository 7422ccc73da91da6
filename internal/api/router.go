package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-impactor/internal/config"
	"github.com/mr1hm/go-impactor/internal/observability"
)

// NewRouter builds the engine with the full middleware chain. metricsHandler
// serves /metrics; pass nil to use the default Prometheus registry.
func NewRouter(cfg config.ServerConfig, h *Handler, m *observability.Metrics, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, "/health", "/metrics"))
	router.Use(MetricsMiddleware(m))

	h.RegisterRoutes(router)

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true // credentials stay off with wildcard origins
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
