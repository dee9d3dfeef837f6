package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eternity-backend/models"
	"eternity-backend/utils"
)

type ListInviteesQuery struct {
	Query  string            `form:"q"`
	Status models.RSVPStatus `form:"status"`
}

// GET /api/invitees
func (h *Handler) ListInvitees(c *gin.Context) {
	var query ListInviteesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	needle := strings.ToLower(strings.TrimSpace(query.Query))

	responses := make([]models.InviteeResponse, 0)
	for _, inv := range h.Store.Invitees() {
		if needle != "" && !strings.Contains(strings.ToLower(inv.Name), needle) && !strings.Contains(inv.Slug, needle) {
			continue
		}
		if query.Status != "" && inv.Status() != query.Status {
			continue
		}
		responses = append(responses, h.toResponse(inv))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// POST /api/invitees
func (h *Handler) CreateInvitee(c *gin.Context) {
	var req models.NewInvitee
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	inv, err := h.Store.AddInvitee(c.Request.Context(), req.Name, req.Title)
	if notSaved(err) {
		utils.WarningResponse(c, http.StatusCreated, "Guest added", h.toResponse(inv), notSavedWarning)
		return
	}
	if err != nil {
		respondStoreError(c, err, "Failed to add guest to database.")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Guest added", h.toResponse(inv))
}

// POST /api/invitees/batch
func (h *Handler) CreateInviteeBatch(c *gin.Context) {
	var req []models.NewInvitee
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	invs, err := h.Store.AddBatchInvitees(c.Request.Context(), req)
	if err != nil && !notSaved(err) {
		respondStoreError(c, err, "Failed to save batch guests to database.")
		return
	}

	responses := make([]models.InviteeResponse, 0, len(invs))
	for _, inv := range invs {
		responses = append(responses, h.toResponse(inv))
	}
	if err != nil {
		utils.WarningResponse(c, http.StatusCreated, "Guests added", responses, notSavedWarning)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Guests added", responses)
}

// PATCH /api/invitees/:id
func (h *Handler) UpdateInvitee(c *gin.Context) {
	id := c.Param("id")

	var patch models.InviteePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	current, ok := h.Store.GetInvitee(id)
	if !ok || current.ID != id {
		utils.NotFound(c, "Guest not found")
		return
	}

	err := h.Store.UpdateInvitee(c.Request.Context(), id, patch)
	if err != nil && !notSaved(err) {
		respondStoreError(c, err, "Failed to update guest.")
		return
	}

	updated := h.toResponse(patch.Apply(current))
	if err != nil {
		utils.WarningResponse(c, http.StatusOK, "Guest updated", updated, notSavedWarning)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Guest updated", updated)
}

// DELETE /api/invitees/:id
func (h *Handler) DeleteInvitee(c *gin.Context) {
	err := h.Store.DeleteInvitee(c.Request.Context(), c.Param("id"))
	if notSaved(err) {
		utils.WarningResponse(c, http.StatusOK, "Guest deleted", nil, notSavedWarning)
		return
	}
	if err != nil {
		respondStoreError(c, err, "Failed to delete guest.")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Guest deleted", nil)
}

// GET /api/summary
func (h *Handler) GetSummary(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"mode":    h.Store.Mode(),
		"status":  h.Store.Status(),
		"summary": h.Store.Summary(),
	})
}
