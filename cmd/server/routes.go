package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"cccd-api.backend/internal/interfaces/http/handlers"
	"cccd-api.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	apiKeyHandler       *handlers.ApiKeyHandler
	usageHandler        *handlers.UsageHandler
	cccdHandler         *handlers.CCCDHandler
	authMiddleware      gin.HandlerFunc
	admissionMiddleware gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Request-ID, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Parse route: api-key admission, no user auth
		cccd := v1.Group("/cccd")
		cccd.Use(d.admissionMiddleware)
		{
			cccd.POST("/parse", d.cccdHandler.ParseCCCD)
		}

		// Key management routes (protected)
		keys := v1.Group("/keys")
		keys.Use(d.authMiddleware)
		{
			keys.POST("", middleware.IdempotencyMiddleware(), d.apiKeyHandler.CreateApiKey)
			keys.GET("", d.apiKeyHandler.ListApiKeys)
			keys.GET("/:id", d.apiKeyHandler.GetApiKey)
			keys.POST("/:id/rotate", middleware.IdempotencyMiddleware(), d.apiKeyHandler.RotateApiKey)
			keys.POST("/:id/suspend", d.apiKeyHandler.SuspendApiKey)
			keys.POST("/:id/resume", d.apiKeyHandler.ResumeApiKey)
			keys.DELETE("/:id", d.apiKeyHandler.DeleteApiKey)
			keys.PATCH("/:id/label", d.apiKeyHandler.UpdateApiKeyLabel)
			keys.GET("/:id/history", d.apiKeyHandler.GetApiKeyHistory)
			keys.GET("/:id/usage", d.usageHandler.GetKeyUsage)
		}

		// Usage rollup across all of the caller's keys
		usage := v1.Group("/usage")
		usage.Use(d.authMiddleware)
		{
			usage.GET("", d.usageHandler.GetOwnerUsage)
		}
	}
}
