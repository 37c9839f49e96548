package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	api := r.Group("/api")
	{
		api.GET("/feed", handler.GetFeed)
		api.GET("/reddit", handler.GetReddit)
		api.GET("/hackernews", handler.GetHackerNews)
		api.GET("/news", handler.GetNews)
		api.GET("/guardian", handler.GetGuardian)
		api.GET("/rss", handler.GetRSS)
		api.GET("/comments", handler.GetComments)

		api.GET("/status", handler.GetStatus)
		api.GET("/config", handler.GetConfig)
		api.GET("/catalog", handler.GetCatalog)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", handler.PostSignUp)
			auth.POST("/signin", handler.PostSignIn)
			auth.POST("/signout", handler.PostSignOut)
			auth.POST("/password", handler.PostPassword)
			auth.GET("/user", handler.GetUser)
		}

		sync := api.Group("/sync")
		{
			sync.GET("/pull", handler.GetSyncPull)
			sync.POST("/push", handler.PostSyncPush)
			sync.GET("/status", handler.GetSyncStatus)
		}

		personal := api.Group("/personal")
		{
			personal.GET("/feed", handler.GetPersonalFeed)
			personal.GET("/bookmarks", handler.GetBookmarks)
			personal.POST("/bookmarks", handler.PostBookmark)
			personal.DELETE("/bookmarks/:id", handler.DeleteBookmark)
			personal.POST("/reactions", handler.PostReaction)
			personal.DELETE("/reactions/:id", handler.DeleteReaction)
			personal.POST("/blocked", handler.PostBlock)
			personal.POST("/showless", handler.PostShowLess)
			personal.POST("/clicks", handler.PostClick)
			personal.GET("/subscriptions", handler.GetSubscriptions)
			personal.POST("/subscriptions/toggle", handler.PostToggleSubscription)
			personal.POST("/subscriptions/custom", handler.PostCustomSubscription)
			personal.DELETE("/subscriptions/custom/:name", handler.DeleteCustomSubscription)
			personal.GET("/settings", handler.GetSettings)
			personal.POST("/settings", handler.PostSetting)
			personal.POST("/wipe", handler.PostWipe)
		}
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Sentinel",
			"description": "News aggregation and personalization service",
			"endpoints": map[string]string{
				"feed":     "/api/feed",
				"comments": "/api/comments",
				"status":   "/api/status",
				"catalog":  "/api/catalog",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
