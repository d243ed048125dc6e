package handlers

import (
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	// RateLimitPerMin is the per-client request budget; 0 disables it.
	RateLimitPerMin int
	Production      bool
}

// NewRouter mounts the device protocol on both "/" and "/exec", next to
// /healthz and /metrics.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	r.GET("/healthz", h.Healthz)

	api := r.Group("/")
	api.Use(h.metrics.Middleware())
	if opts.RateLimitPerMin > 0 {
		api.Use(NewTokenBucket(opts.RateLimitPerMin, opts.RateLimitPerMin).Middleware())
	}
	for _, path := range []string{"/", "/exec"} {
		api.GET(path, h.Get)
		api.POST(path, h.Post)
	}
	return r
}
