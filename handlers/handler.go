package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eternity-backend/config"
	"eternity-backend/models"
	"eternity-backend/services"
	"eternity-backend/utils"
)

// Handler serves the HTTP API from a single wedding store.
type Handler struct {
	Store  *services.WeddingStore
	Config *config.Config
}

func New(store *services.WeddingStore, cfg *config.Config) *Handler {
	return &Handler{Store: store, Config: cfg}
}

func (h *Handler) toResponse(inv models.Invitee) models.InviteeResponse {
	return models.InviteeResponse{
		Invitee:   inv,
		Status:    inv.Status(),
		InviteURL: h.Store.InviteURL(inv.Slug),
	}
}

const notSavedWarning = "The change is applied but could not be saved to local storage."

// notSaved reports a local-mode change that took effect in memory even though
// the save failed. Such requests succeed with a warning.
func notSaved(err error) bool {
	return errors.Is(err, services.ErrNotPersisted)
}

// respondStoreError maps store errors onto HTTP statuses. Backend failures
// are reported as a bad gateway with the given message.
func respondStoreError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidPatch),
		errors.Is(err, services.ErrInvalidRSVPStatus),
		errors.Is(err, services.ErrGuestCountRequired),
		errors.Is(err, services.ErrBatchTooLarge):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInviteeNotFound):
		utils.NotFound(c, "Guest not found")
	case errors.Is(err, services.ErrAlreadyResponded):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrBackendWrite):
		utils.BadGateway(c, message)
	default:
		utils.InternalError(c, message)
	}
}
