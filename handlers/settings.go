package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eternity-backend/models"
	"eternity-backend/services"
	"eternity-backend/utils"
)

const settingsSaveWarning = "Failed to save settings to database. If you are uploading an image, it might be too large even after compression."

// GET /settings
func (h *Handler) GetSettings(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", h.Store.Settings())
}

// PUT /api/settings
//
// The change is applied locally before the backend confirms it. When the
// write fails the response still carries the local settings plus a warning.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	settings, err := h.Store.UpdateSettings(c.Request.Context(), patch)
	if errors.Is(err, services.ErrBackendWrite) {
		utils.WarningResponse(c, http.StatusOK, "Settings updated locally", settings, settingsSaveWarning)
		return
	}
	if err != nil {
		utils.InternalError(c, "Failed to update settings")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings updated", settings)
}
