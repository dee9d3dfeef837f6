package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"eternity-backend/models"
	"eternity-backend/utils"
)

// EmailNotifier mails the couple whenever a guest answers their invitation.
type EmailNotifier struct {
	client  *sendgrid.Client
	from    string
	to      string
	appName string
}

// NewEmailNotifier returns nil when SendGrid is not configured, in which case
// RSVPs are recorded without email.
func NewEmailNotifier(apiKey, from, to, appName string) *EmailNotifier {
	if apiKey == "" || to == "" {
		return nil
	}
	return &EmailNotifier{
		client:  sendgrid.NewSendClient(apiKey),
		from:    from,
		to:      to,
		appName: appName,
	}
}

func (n *EmailNotifier) NotifyRSVP(ctx context.Context, settings models.WeddingSettings, inv models.Invitee) error {
	subject := rsvpSubject(inv)
	htmlBody, err := buildRSVPEmailHTML(settings, inv)
	if err != nil {
		return fmt.Errorf("failed to render rsvp email: %w", err)
	}

	msg := mail.NewSingleEmail(
		mail.NewEmail(n.appName, n.from),
		subject,
		mail.NewEmail(settings.CoupleName, n.to),
		rsvpPlainText(inv),
		htmlBody,
	)

	resp, err := n.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	utils.Logger.WithField("slug", inv.Slug).Info("✅ RSVP email sent")
	return nil
}

func rsvpSubject(inv models.Invitee) string {
	if inv.Status() == models.RSVPAttending {
		return fmt.Sprintf("%s is coming (%d)", inv.Name, inv.GuestCount)
	}
	return fmt.Sprintf("%s can't make it", inv.Name)
}

func rsvpPlainText(inv models.Invitee) string {
	text := fmt.Sprintf("%s replied: %s.", inv.Name, inv.Status())
	if inv.Status() == models.RSVPAttending {
		text += fmt.Sprintf(" Guests: %d.", inv.GuestCount)
		if inv.DietaryRestrictions != "" {
			text += " Dietary notes: " + inv.DietaryRestrictions
		}
	}
	return text
}

var rsvpEmailTemplate = template.Must(template.New("rsvp").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Georgia, 'Times New Roman', serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #faf7f2;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.08);">
		<h2 style="color: #8c6d46; margin-top: 0;">New RSVP for {{.CoupleName}}</h2>
		<p><strong>{{if .Title}}{{.Title}} {{end}}{{.Name}}</strong> replied <strong>{{.Status}}</strong>.</p>
		{{if .Attending}}
		<div style="background: #f8f5ef; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0;">Guests: <strong>{{.GuestCount}}</strong></p>
			{{if .Dietary}}<p style="margin: 4px 0;">Dietary notes: {{.Dietary}}</p>{{end}}
		</div>
		{{end}}
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.WeddingDate}} · {{.VenueName}}</p>
	</div>
</body>
</html>`))

func buildRSVPEmailHTML(settings models.WeddingSettings, inv models.Invitee) (string, error) {
	var buf bytes.Buffer
	err := rsvpEmailTemplate.Execute(&buf, map[string]interface{}{
		"CoupleName":  settings.CoupleName,
		"WeddingDate": settings.WeddingDate,
		"VenueName":   settings.VenueName,
		"Title":       inv.Title,
		"Name":        inv.Name,
		"Status":      string(inv.Status()),
		"Attending":   inv.Status() == models.RSVPAttending,
		"GuestCount":  inv.GuestCount,
		"Dietary":     inv.DietaryRestrictions,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
