package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailDispatcher sends notifications as email via SendGrid.
type EmailDispatcher struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewEmailDispatcher creates a SendGrid-backed dispatcher.
func NewEmailDispatcher(apiKey, fromName, fromEmail string) *EmailDispatcher {
	return &EmailDispatcher{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// Notify sends a plain-text email to the recipient.
func (d *EmailDispatcher) Notify(ctx context.Context, to Recipient, subject, body string) error {
	from := mail.NewEmail(d.fromName, d.fromEmail)
	recipient := mail.NewEmail(to.Name, to.Email)
	message := mail.NewSingleEmailPlainText(from, subject, recipient, body)

	response, err := d.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email via SendGrid: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	log.Printf("Notification emailed to %s <%s>: %s", to.Name, to.Email, subject)
	return nil
}
