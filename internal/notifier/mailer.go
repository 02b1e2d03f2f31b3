// Package notifier turns user events into outgoing mail.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/rs/zerolog/log"
	"github.com/vinocellar/account-service/internal/events"
)

// Message is one plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const resetSubject = "Reset your password"

var resetBody = template.Must(template.New("reset").Parse(`Hello {{.Name}},

Someone asked to reset the password of your cellar account.
Follow this link to choose a new password:

{{.ResetLink}}

If you did not ask for this, you can ignore this message.
`))

// Mailer consumes user events and sends the mail they call for.
type Mailer struct {
	sender Sender
}

func NewMailer(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

// Handlers returns the event types the mailer consumes.
func (m *Mailer) Handlers() map[string]events.Handler {
	return map[string]events.Handler{
		events.UserPasswordResetRequested: m.HandlePasswordResetRequested,
	}
}

func (m *Mailer) HandlePasswordResetRequested(ctx context.Context, event events.Event) error {
	var data events.PasswordResetRequestedEvent
	if err := event.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode %s: %w", event.Type, err)
	}
	return m.sendPasswordReset(ctx, data)
}

func (m *Mailer) sendPasswordReset(ctx context.Context, data events.PasswordResetRequestedEvent) error {
	var body bytes.Buffer
	if err := resetBody.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render reset mail: %w", err)
	}

	err := m.sender.Send(ctx, Message{To: data.Email, Subject: resetSubject, Body: body.String()})
	if err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	log.Ctx(ctx).Info().Str("user_id", data.UserID).Msg("password reset mail sent")
	return nil
}
