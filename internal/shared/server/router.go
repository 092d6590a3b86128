package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"answerpath-backend/internal/shared/config"
	"answerpath-backend/internal/shared/metrics"
	"answerpath-backend/internal/shared/server/middleware"
	"answerpath-backend/internal/shared/server/respond"
)

// RouteRegistrar attaches feature routes to the /api/v1 group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries the feature handlers and health probes.
type RouterDeps struct {
	Routes []RouteRegistrar
	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Env == "production" || cfg.Env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())
	r.GET("/healthz", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				respond.Error(c, http.StatusServiceUnavailable, respond.CodeNotReady, err.Error(), nil)
				return
			}
		}
		respond.OK(c, gin.H{"ok": true})
	})

	secured := api.Group("")
	secured.Use(
		middleware.Identity(cfg.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateLimitGroup,
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 10, Burst: 20},
				"UPLOAD":  {Rate: 0.5, Burst: 5},
			},
		}),
	)
	for _, reg := range deps.Routes {
		if reg != nil {
			reg.RegisterRoutes(secured)
		}
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost {
		return "UPLOAD"
	}
	return "DEFAULT"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
