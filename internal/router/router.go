package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/kuisku-participant/internal/config"
	"github.com/stemsi/kuisku-participant/internal/handler"
	"github.com/stemsi/kuisku-participant/internal/middleware"
	"github.com/stemsi/kuisku-participant/internal/response"
	"github.com/stemsi/kuisku-participant/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Participant *handler.ParticipantHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	identity *service.IdentityService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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

	// Apply brotli middleware globally. Snapshots repeat a lot of text,
	// so compression pays for itself on slow school networks.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the join route (30 requests per minute per IP).
	joinLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Join (Public, Rate Limited) ────────────────────────────────
	public := router.Group("/api/v1/participant")
	{
		public.POST("/join", joinLimiter.Middleware(), handlers.Participant.Join)
	}

	// ─── 2. Participant Group (JWT + Single Device) ────────────────────
	participantAPI := router.Group("/api/v1/participant")
	participantAPI.Use(
		middleware.RequireParticipant(identity),
		middleware.CheckParticipantSession(identity),
	)
	{
		participantAPI.GET("/state", handlers.Participant.GetState)
		participantAPI.POST("/answer", handlers.Participant.SelectOption)
		participantAPI.PUT("/confidence", handlers.Participant.SetConfidence)
		participantAPI.PUT("/reasoning", handlers.Participant.SetReasoning)
		participantAPI.POST("/submit", handlers.Participant.Submit)
		participantAPI.POST("/discussion/keep", handlers.Participant.KeepAnswer)
		participantAPI.POST("/discussion/revote", handlers.Participant.Revote)
		participantAPI.POST("/discussion/message", handlers.Participant.SendMessage)
		participantAPI.PUT("/code", handlers.Participant.SetCode)
		participantAPI.POST("/code/run", handlers.Participant.RunCode)
		participantAPI.POST("/code/analyze", handlers.Participant.AnalyzeCode)
		participantAPI.POST("/navigate", handlers.Participant.Navigate)
		participantAPI.POST("/leave", handlers.Participant.Leave)
	}

	// ─── 3. WebSocket Group (Token via Query) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWS(identity))
	{
		ws.GET("/participant/stream", handlers.WS.ParticipantStream)
	}

	return router
}
