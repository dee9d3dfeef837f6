package models

import (
	"time"
)

type ActivityType string

const (
	ActivityGuestAdded      ActivityType = "guest_added"
	ActivityGuestsImported  ActivityType = "guests_imported"
	ActivityGuestUpdated    ActivityType = "guest_updated"
	ActivityGuestDeleted    ActivityType = "guest_deleted"
	ActivityRSVPSubmitted   ActivityType = "rsvp_submitted"
	ActivitySettingsUpdated ActivityType = "settings_updated"
)

type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	InviteeID   string       `json:"inviteeId,omitempty"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
}
