package core

import "net/mail"

type (
	// EmailMessage is a plain notification email. Course milestone and
	// completion notices are single-part text; anything fancier (branded
	// templates, attachments) belongs to the frontend mailers.
	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		TextContent string
		HTMLContent string
	}

	// EmailService is any service that can send emails.
	// Delivery is fire-and-forget: implementations send concurrently and
	// must never surface delivery failures to callers.
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }
