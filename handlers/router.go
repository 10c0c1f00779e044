package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RouterConfig wires the handlers into an engine
type RouterConfig struct {
	Ask            *AskHandler
	Log            *LogHandler
	Metrics        http.Handler // optional
	RateLimitRPS   float64      // <= 0 disables the /ask limiter
	RateLimitBurst int
	RequestTimeout time.Duration // 0 disables the per-request deadline
}

// NewRouter builds the gin engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	if cfg.Ask != nil {
		r.POST("/ask",
			RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
			RequestTimeout(cfg.RequestTimeout),
			cfg.Ask.Ask,
		)
	}
	if cfg.Log != nil {
		r.POST("/log", cfg.Log.Log)
	}

	return r
}

// RateLimit rejects requests with 429 once the shared token bucket is empty
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = max(int(rps), 1)
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// RequestTimeout bounds the request context so collaborator calls give up
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
