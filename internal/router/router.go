package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tutorium/tutorium-backend/internal/config"
	"github.com/tutorium/tutorium-backend/internal/handler"
	"github.com/tutorium/tutorium-backend/internal/middleware"
	"github.com/tutorium/tutorium-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Session creation is rate limited per IP to keep a misbehaving
	// client from flooding the cache before the sweeper can catch up.
	startLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── Test Sessions ─────────────────────────────────────────────────
	tests := router.Group("/api/v1/tests")
	{
		tests.POST("/:test_id/sessions", startLimiter.Middleware(), handlers.Session.StartSession)
		tests.POST("/:test_id/sessions/:session_id/submit", handlers.Session.SubmitSession)
	}

	// ─── Diagnostics ───────────────────────────────────────────────────
	system := router.Group("/api/v1/system")
	{
		system.GET("/sessions", handlers.System.GetSessionStats)
	}

	return router
}
