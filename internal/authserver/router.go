package authserver

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Router creates and configures the Gin router.
func (s *Server) Router() *gin.Engine {
	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())

	// Browser-facing flow
	router.GET("/", s.Index)
	router.GET("/login", s.Login)
	router.GET("/callback", s.Callback)

	// API for scripts and the launcher
	api := router.Group("/api/v1")
	{
		api.GET("/health", s.Health)
		api.GET("/status", s.Status)
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
		)
	}
}
