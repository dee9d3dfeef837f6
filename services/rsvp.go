package services

import (
	"errors"
	"strings"

	"eternity-backend/models"
)

var (
	ErrInvalidRSVPStatus  = errors.New("rsvp status must be attending or declined")
	ErrGuestCountRequired = errors.New("attending requires a guest count of at least 1")
	ErrAlreadyResponded   = errors.New("a response is already recorded, change response to edit it")
)

// Submission is a guest's RSVP form post. ChangeResponse marks the explicit
// "change response" action that re-opens an answered invitation.
type Submission struct {
	Status              models.RSVPStatus
	GuestCount          int
	DietaryRestrictions string
	ChangeResponse      bool
}

// CanRespond reports whether a new submission is accepted from the current
// status. Answered invitations only re-open through ChangeResponse.
func CanRespond(current models.RSVPStatus, changeResponse bool) bool {
	if current == "" || current == models.RSVPPending {
		return true
	}
	return changeResponse
}

// ApplyRSVP validates sub against inv's current state and returns the patch
// that records it. Every RSVP field is overwritten; nothing from an earlier
// response is merged in.
func ApplyRSVP(inv models.Invitee, sub Submission) (models.InviteePatch, error) {
	if !CanRespond(inv.RSVPStatus, sub.ChangeResponse) {
		return models.InviteePatch{}, ErrAlreadyResponded
	}

	var (
		count   int
		dietary string
	)
	switch sub.Status {
	case models.RSVPAttending:
		if sub.GuestCount < 1 {
			return models.InviteePatch{}, ErrGuestCountRequired
		}
		count = sub.GuestCount
		dietary = strings.TrimSpace(sub.DietaryRestrictions)
	case models.RSVPDeclined:
		// declining always clears the head count and dietary notes
	default:
		return models.InviteePatch{}, ErrInvalidRSVPStatus
	}

	status := sub.Status
	return models.InviteePatch{
		RSVPStatus:          &status,
		GuestCount:          &count,
		DietaryRestrictions: &dietary,
	}, nil
}

// Prefill returns the form values shown to the guest: the last known answer,
// with at least one guest suggested.
func Prefill(inv models.Invitee) models.RSVPForm {
	count := inv.GuestCount
	if count < 1 {
		count = 1
	}
	return models.RSVPForm{
		Status:              inv.Status(),
		GuestCount:          count,
		DietaryRestrictions: inv.DietaryRestrictions,
		Editable:            inv.Status() == models.RSVPPending,
	}
}
