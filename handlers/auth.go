package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eternity-backend/middleware"
	"eternity-backend/utils"
)

type LoginRequest struct {
	Passcode string `json:"passcode" binding:"required"`
}

type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if !h.Store.Login(req.Passcode) {
		utils.Unauthorized(c, "Incorrect passcode")
		return
	}

	token, err := utils.GenerateSessionToken(h.Config.JWTSecret)
	if err != nil {
		utils.InternalError(c, "Failed to start session")
		return
	}

	// MaxAge 0 makes it a session cookie: it lasts until the browser closes.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookie, token, 0, "/", "", h.Config.AppEnv == "production", true)

	utils.SuccessResponse(c, http.StatusOK, "Login successful", SessionResponse{Authenticated: true})
}

// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookie, "", -1, "/", "", h.Config.AppEnv == "production", true)
	utils.SuccessResponse(c, http.StatusOK, "Logged out", SessionResponse{Authenticated: false})
}

// GET /auth/session
func (h *Handler) Session(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", SessionResponse{
		Authenticated: middleware.IsAdmin(c, h.Config.JWTSecret),
	})
}
