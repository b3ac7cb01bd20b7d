package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	sessionHandler := NewSessionHandler(services, cfg.Auth, log)
	dashboardHandler := NewDashboardHandler(services, log)
	exportHandler := NewExportHandler(services, log)
	importHandler := NewImportHandler(services, cfg, log)
	modelHandler := NewModelHandler(services, cfg, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	// API v1
	v1 := router.Group("/v1")
	v1.Use(sessionMiddleware(services.Session, cfg.Auth))
	{
		session := v1.Group("/session")
		{
			session.GET("", sessionHandler.Current)
			session.POST("/login", sessionHandler.Login)
			session.POST("/logout", sessionHandler.Logout)
		}

		v1.GET("/modules", dashboardHandler.Modules)
		v1.GET("/modules/:module", dashboardHandler.Module)
		v1.GET("/forms", dashboardHandler.Forms)
		v1.POST("/forms/:form_id", dashboardHandler.Submit)

		collections := v1.Group("/collections")
		{
			collections.GET("/:collection", dashboardHandler.Records)
			collections.PATCH("/:collection/:record_id", dashboardHandler.UpdateRecord)
		}

		// Export endpoints
		exports := v1.Group("/exports")
		{
			exports.GET("", exportHandler.RecentExports)
			exports.GET("/:collection", exportHandler.Download)
		}
		v1.GET("/archives/:archive_id", exportHandler.Archived)

		// Import endpoints
		imports := v1.Group("/imports")
		{
			imports.POST("/:collection/preview", importHandler.Preview)
			imports.POST("/:collection", importHandler.Import)
		}

		v1.POST("/water/analyze", importHandler.AnalyzeWater)

		model := v1.Group("/model")
		{
			model.GET("", modelHandler.Status)
			model.POST("/artifacts", modelHandler.Replace)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "tally-dashboard",
	})
}

// metricsHandler returns session and model metrics
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"sessions": gin.H{
				"active": services.Session.ActiveSessions(),
			},
			"model":     services.Model.Status(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+sessionHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", sessionHeader+", Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
