package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eternity-backend/utils"
)

const CtxAdmin = "admin"

// IsAdmin reports whether the request carries a valid admin session cookie.
func IsAdmin(c *gin.Context, secret string) bool {
	token, err := c.Cookie(utils.SessionCookie)
	if err != nil || token == "" {
		return false
	}
	_, err = utils.VerifySessionToken(secret, token)
	return err == nil
}

// AdminRequired guards the admin API with the session cookie set at login.
func AdminRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c, secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.APIResponse{
				Success: false,
				Message: "Admin login required",
			})
			return
		}
		c.Set(CtxAdmin, true)
		c.Next()
	}
}
