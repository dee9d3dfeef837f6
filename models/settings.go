package models

import "encoding/json"

// WeddingSettings is the singleton deployment record.
type WeddingSettings struct {
	InviteImage  *string `json:"inviteImage" firestore:"inviteImage"`
	CoupleName   string  `json:"coupleName" firestore:"coupleName"`
	WeddingDate  string  `json:"weddingDate" firestore:"weddingDate"`
	VenueName    string  `json:"venueName" firestore:"venueName"`
	VenueAddress string  `json:"venueAddress" firestore:"venueAddress"`
	MapURL       string  `json:"mapUrl" firestore:"mapUrl"`
}

// DefaultSettings seeds the singleton on first load.
func DefaultSettings() WeddingSettings {
	return WeddingSettings{
		CoupleName:   "Anna & James",
		WeddingDate:  "2024-12-24",
		VenueName:    "The Grand Ballroom",
		VenueAddress: "123 Celebration Avenue, Wedding City",
		MapURL:       "https://www.google.com/maps/embed?pb=!1m18!1m12!1m3!1d3151.835434509374!2d144.9537353153169!3d-37.816279742021665!2m3!1f0!2f0!3f0!3m2!1i1024!2i768!4f13.1!3m3!1m2!1s0x6ad642af0f11fd81%3A0xf577d6a32f7f1f81!2sFederation%20Square!5e0!3m2!1sen!2sau!4v1600000000000!5m2!1sen!2sau",
	}
}

// NullableString distinguishes an absent field from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// SettingsPatch is a partial settings update. InviteImage may be set to an
// explicit null to clear the image.
type SettingsPatch struct {
	InviteImage  NullableString `json:"inviteImage"`
	CoupleName   *string        `json:"coupleName,omitempty"`
	WeddingDate  *string        `json:"weddingDate,omitempty"`
	VenueName    *string        `json:"venueName,omitempty"`
	VenueAddress *string        `json:"venueAddress,omitempty"`
	MapURL       *string        `json:"mapUrl,omitempty"`
}

func (p SettingsPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the set fields keyed by their persisted names.
func (p SettingsPatch) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if p.InviteImage.Set {
		if p.InviteImage.Value == nil {
			fields["inviteImage"] = nil
		} else {
			fields["inviteImage"] = *p.InviteImage.Value
		}
	}
	if p.CoupleName != nil {
		fields["coupleName"] = *p.CoupleName
	}
	if p.WeddingDate != nil {
		fields["weddingDate"] = *p.WeddingDate
	}
	if p.VenueName != nil {
		fields["venueName"] = *p.VenueName
	}
	if p.VenueAddress != nil {
		fields["venueAddress"] = *p.VenueAddress
	}
	if p.MapURL != nil {
		fields["mapUrl"] = *p.MapURL
	}
	return fields
}

// Apply returns a copy of s with the patch merged in.
func (p SettingsPatch) Apply(s WeddingSettings) WeddingSettings {
	if p.InviteImage.Set {
		if p.InviteImage.Value == nil {
			s.InviteImage = nil
		} else {
			img := *p.InviteImage.Value
			s.InviteImage = &img
		}
	}
	if p.CoupleName != nil {
		s.CoupleName = *p.CoupleName
	}
	if p.WeddingDate != nil {
		s.WeddingDate = *p.WeddingDate
	}
	if p.VenueName != nil {
		s.VenueName = *p.VenueName
	}
	if p.VenueAddress != nil {
		s.VenueAddress = *p.VenueAddress
	}
	if p.MapURL != nil {
		s.MapURL = *p.MapURL
	}
	return s
}

// FullSettingsPatch sets every field of s.
func FullSettingsPatch(s WeddingSettings) SettingsPatch {
	return SettingsPatch{
		InviteImage:  NullableString{Set: true, Value: s.InviteImage},
		CoupleName:   &s.CoupleName,
		WeddingDate:  &s.WeddingDate,
		VenueName:    &s.VenueName,
		VenueAddress: &s.VenueAddress,
		MapURL:       &s.MapURL,
	}
}
