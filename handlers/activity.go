package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eternity-backend/utils"
)

// GET /api/activity
func (h *Handler) GetActivity(c *gin.Context) {
	var pagination utils.PaginationQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	all := h.Store.Activities(0)
	start := pagination.Offset()
	if start < 0 || start > len(all) {
		start = len(all)
	}
	end := start + pagination.Limit
	if end < start || end > len(all) {
		end = len(all)
	}

	utils.SuccessResponse(c, http.StatusOK, "", all[start:end])
}
