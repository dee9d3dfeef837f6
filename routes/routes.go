package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eternity-backend/config"
	"eternity-backend/handlers"
	"eternity-backend/middleware"
	"eternity-backend/services"
)

// RSVP submissions per client IP.
const (
	rsvpPerMinute = 10
	rsvpBurst     = 5
	rsvpIdleTTL   = 10 * time.Minute
)

func SetupRouter(store *services.WeddingStore, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	h := handlers.New(store, cfg)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.AppName,
			"mode":    store.Mode(),
			"state":   store.Status(),
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.Session)
	}

	// ==========================================
	// GUEST ROUTES (public)
	// ==========================================
	rsvpLimiter := middleware.NewIPRateLimiter(rsvpPerMinute, rsvpBurst, rsvpIdleTTL)

	r.GET("/settings", h.GetSettings)
	r.GET("/invite", h.GetInvitation)
	r.GET("/invite/:slug", h.GetInvitation)
	r.POST("/invite/:slug/rsvp", middleware.RateLimitByIP(rsvpLimiter), h.SubmitRSVP)

	// ==========================================
	// ADMIN ROUTES (session cookie)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AdminRequired(cfg.JWTSecret))
	{
		// Invitees
		api.GET("/invitees", h.ListInvitees)
		api.POST("/invitees", h.CreateInvitee)
		api.POST("/invitees/batch", h.CreateInviteeBatch)
		api.PATCH("/invitees/:id", h.UpdateInvitee)
		api.DELETE("/invitees/:id", h.DeleteInvitee)

		// Settings
		api.PUT("/settings", h.UpdateSettings)

		// Dashboard
		api.GET("/summary", h.GetSummary)
		api.GET("/activity", h.GetActivity)
	}

	return r
}
