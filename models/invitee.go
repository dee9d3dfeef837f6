package models

// RSVPStatus is the lifecycle state of a guest's response.
type RSVPStatus string

const (
	RSVPPending   RSVPStatus = "pending"
	RSVPAttending RSVPStatus = "attending"
	RSVPDeclined  RSVPStatus = "declined"
)

// Valid reports whether s is one of the known statuses. The empty status is
// accepted and read as pending.
func (s RSVPStatus) Valid() bool {
	switch s {
	case "", RSVPPending, RSVPAttending, RSVPDeclined:
		return true
	}
	return false
}

// Invitee is a guest record. The JSON and Firestore field names are the
// persisted document shape and must not change.
type Invitee struct {
	ID                  string     `json:"id" firestore:"id"`
	Slug                string     `json:"slug" firestore:"slug"`
	Name                string     `json:"name" firestore:"name"`
	Title               string     `json:"title,omitempty" firestore:"title,omitempty"`
	Message             string     `json:"message,omitempty" firestore:"message,omitempty"`
	Viewed              bool       `json:"viewed" firestore:"viewed"`
	RSVPStatus          RSVPStatus `json:"rsvpStatus,omitempty" firestore:"rsvpStatus,omitempty"`
	GuestCount          int        `json:"guestCount,omitempty" firestore:"guestCount,omitempty"`
	DietaryRestrictions string     `json:"dietaryRestrictions,omitempty" firestore:"dietaryRestrictions,omitempty"`
}

// Status returns the RSVP status with absent treated as pending.
func (i Invitee) Status() RSVPStatus {
	if i.RSVPStatus == "" {
		return RSVPPending
	}
	return i.RSVPStatus
}

// InviteePatch is a partial update. Nil fields are left untouched.
// ID and slug are immutable and therefore not part of a patch.
type InviteePatch struct {
	Name                *string     `json:"name,omitempty"`
	Title               *string     `json:"title,omitempty"`
	Message             *string     `json:"message,omitempty"`
	Viewed              *bool       `json:"viewed,omitempty"`
	RSVPStatus          *RSVPStatus `json:"rsvpStatus,omitempty"`
	GuestCount          *int        `json:"guestCount,omitempty"`
	DietaryRestrictions *string     `json:"dietaryRestrictions,omitempty"`
}

func (p InviteePatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the set fields keyed by their persisted names.
func (p InviteePatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Message != nil {
		fields["message"] = *p.Message
	}
	if p.Viewed != nil {
		fields["viewed"] = *p.Viewed
	}
	if p.RSVPStatus != nil {
		fields["rsvpStatus"] = string(*p.RSVPStatus)
	}
	if p.GuestCount != nil {
		fields["guestCount"] = *p.GuestCount
	}
	if p.DietaryRestrictions != nil {
		fields["dietaryRestrictions"] = *p.DietaryRestrictions
	}
	return fields
}

// Apply returns a copy of inv with the patch merged in.
func (p InviteePatch) Apply(inv Invitee) Invitee {
	if p.Name != nil {
		inv.Name = *p.Name
	}
	if p.Title != nil {
		inv.Title = *p.Title
	}
	if p.Message != nil {
		inv.Message = *p.Message
	}
	if p.Viewed != nil {
		inv.Viewed = *p.Viewed
	}
	if p.RSVPStatus != nil {
		inv.RSVPStatus = *p.RSVPStatus
	}
	if p.GuestCount != nil {
		inv.GuestCount = *p.GuestCount
	}
	if p.DietaryRestrictions != nil {
		inv.DietaryRestrictions = *p.DietaryRestrictions
	}
	return inv
}

// Request structs
type NewInvitee struct {
	Name  string `json:"name" binding:"required"`
	Title string `json:"title"`
}

type RSVPRequest struct {
	Status              RSVPStatus `json:"status" binding:"required"`
	GuestCount          int        `json:"guestCount"`
	DietaryRestrictions string     `json:"dietaryRestrictions"`
	ChangeResponse      bool       `json:"changeResponse"`
}

// Response structs
type InviteeResponse struct {
	Invitee
	Status    RSVPStatus `json:"status"`
	InviteURL string     `json:"inviteUrl"`
}

type GuestSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Attending int `json:"attending"`
	Declined  int `json:"declined"`
	Viewed    int `json:"viewed"`
	HeadCount int `json:"headCount"`
}
