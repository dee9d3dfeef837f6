package models

// TitleOptions are the salutations printed on every invitation. The one that
// does not match the guest's title is struck through.
var TitleOptions = []string{"Ven", "Mr & Mrs", "Mr", "Mrs", "Family"}

const DefaultGreeting = "We invite you to celebrate our wedding."

type TitleOption struct {
	Label  string `json:"label"`
	Struck bool   `json:"struck"`
}

// RSVPForm holds the values the guest page pre-populates the form with.
type RSVPForm struct {
	Status              RSVPStatus `json:"status"`
	GuestCount          int        `json:"guestCount"`
	DietaryRestrictions string     `json:"dietaryRestrictions"`
	Editable            bool       `json:"editable"`
}

// InvitationView is everything the guest page needs to render. Invitee is nil
// for unknown slugs, which render the generic invitation.
type InvitationView struct {
	Settings     WeddingSettings `json:"settings"`
	Invitee      *Invitee        `json:"invitee"`
	Greeting     string          `json:"greeting"`
	TitleOptions []TitleOption   `json:"titleOptions"`
	RSVPForm     *RSVPForm       `json:"rsvpForm,omitempty"`
}

// BuildTitleOptions marks every option other than title as struck. Nothing is
// struck when the title is empty.
func BuildTitleOptions(title string) []TitleOption {
	options := make([]TitleOption, 0, len(TitleOptions))
	for _, opt := range TitleOptions {
		options = append(options, TitleOption{
			Label:  opt,
			Struck: title != "" && title != opt,
		})
	}
	return options
}

// Greeting returns the personalised message or the default one.
func (i Invitee) Greeting() string {
	if i.Message != "" {
		return i.Message
	}
	return DefaultGreeting
}
