package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eternity-backend/models"
	"eternity-backend/services"
	"eternity-backend/utils"
)

const loadingMessage = "Invitation is still loading, please retry shortly"

// GET /invite/:slug
//
// Unknown slugs get the generic invitation rather than an error.
func (h *Handler) GetInvitation(c *gin.Context) {
	if h.Store.Status() != services.StateReady {
		utils.ServiceUnavailable(c, loadingMessage)
		return
	}

	view := models.InvitationView{
		Settings:     h.Store.Settings(),
		Greeting:     models.DefaultGreeting,
		TitleOptions: models.BuildTitleOptions(""),
	}

	if inv, ok := h.Store.GetInvitee(c.Param("slug")); ok {
		form := services.Prefill(inv)
		view.Invitee = &inv
		view.Greeting = inv.Greeting()
		view.TitleOptions = models.BuildTitleOptions(inv.Title)
		view.RSVPForm = &form
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

// POST /invite/:slug/rsvp
func (h *Handler) SubmitRSVP(c *gin.Context) {
	if h.Store.Status() != services.StateReady {
		utils.ServiceUnavailable(c, loadingMessage)
		return
	}

	var req models.RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	inv, err := h.Store.SubmitRSVP(c.Request.Context(), c.Param("slug"), services.Submission{
		Status:              req.Status,
		GuestCount:          req.GuestCount,
		DietaryRestrictions: req.DietaryRestrictions,
		ChangeResponse:      req.ChangeResponse,
	})
	if err != nil && !notSaved(err) {
		respondStoreError(c, err, "Failed to save your response, please try again.")
		return
	}

	data := gin.H{
		"invitee":  inv,
		"rsvpForm": services.Prefill(inv),
	}
	if err != nil {
		utils.WarningResponse(c, http.StatusOK, "Thank you for your response", data, notSavedWarning)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Thank you for your response", data)
}
