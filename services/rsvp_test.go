package services

import (
	"errors"
	"testing"

	"eternity-backend/models"
)

func TestApplyRSVPAttending(t *testing.T) {
	inv := models.Invitee{ID: "a", RSVPStatus: models.RSVPPending}

	patch, err := ApplyRSVP(inv, Submission{Status: models.RSVPAttending, GuestCount: 3, DietaryRestrictions: " vegan "})
	if err != nil {
		t.Fatalf("ApplyRSVP: %v", err)
	}
	got := patch.Apply(inv)
	if got.RSVPStatus != models.RSVPAttending || got.GuestCount != 3 || got.DietaryRestrictions != "vegan" {
		t.Errorf("got %+v", got)
	}
}

func TestApplyRSVPAttendingNeedsGuests(t *testing.T) {
	_, err := ApplyRSVP(models.Invitee{}, Submission{Status: models.RSVPAttending, GuestCount: 0})
	if !errors.Is(err, ErrGuestCountRequired) {
		t.Errorf("err = %v, want ErrGuestCountRequired", err)
	}
}

func TestApplyRSVPDeclinedClearsFields(t *testing.T) {
	inv := models.Invitee{GuestCount: 4, DietaryRestrictions: "nuts"}

	patch, err := ApplyRSVP(inv, Submission{Status: models.RSVPDeclined, GuestCount: 5, DietaryRestrictions: "gluten"})
	if err != nil {
		t.Fatalf("ApplyRSVP: %v", err)
	}
	got := patch.Apply(inv)
	if got.RSVPStatus != models.RSVPDeclined || got.GuestCount != 0 || got.DietaryRestrictions != "" {
		t.Errorf("got %+v", got)
	}
}

func TestApplyRSVPRejectsPendingTarget(t *testing.T) {
	for _, status := range []models.RSVPStatus{models.RSVPPending, "", "maybe"} {
		if _, err := ApplyRSVP(models.Invitee{}, Submission{Status: status}); !errors.Is(err, ErrInvalidRSVPStatus) {
			t.Errorf("status %q: err = %v, want ErrInvalidRSVPStatus", status, err)
		}
	}
}

func TestApplyRSVPTerminalNeedsChangeResponse(t *testing.T) {
	inv := models.Invitee{RSVPStatus: models.RSVPAttending, GuestCount: 3}

	_, err := ApplyRSVP(inv, Submission{Status: models.RSVPDeclined})
	if !errors.Is(err, ErrAlreadyResponded) {
		t.Fatalf("err = %v, want ErrAlreadyResponded", err)
	}

	patch, err := ApplyRSVP(inv, Submission{Status: models.RSVPDeclined, ChangeResponse: true})
	if err != nil {
		t.Fatalf("change response: %v", err)
	}
	got := patch.Apply(inv)
	if got.RSVPStatus != models.RSVPDeclined || got.GuestCount != 0 || got.DietaryRestrictions != "" {
		t.Errorf("got %+v, want declined with cleared fields", got)
	}
}

func TestPrefill(t *testing.T) {
	form := Prefill(models.Invitee{})
	if form.Status != models.RSVPPending || form.GuestCount != 1 || !form.Editable {
		t.Errorf("pending prefill = %+v", form)
	}

	form = Prefill(models.Invitee{RSVPStatus: models.RSVPAttending, GuestCount: 2, DietaryRestrictions: "halal"})
	if form.Editable || form.GuestCount != 2 || form.DietaryRestrictions != "halal" {
		t.Errorf("attending prefill = %+v", form)
	}
}
