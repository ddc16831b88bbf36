package identity

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/dmitrymomot/tourkit/pkg/email"
)

// Notifier delivers identity lifecycle messages. The service treats any
// returned error as a delivery failure; for password resets that triggers a
// token rollback.
type Notifier interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}

// EmailNotifier renders identity messages and delivers them through an
// email.Sender.
type EmailNotifier struct {
	sender  email.Sender
	appName string
	support string
}

// NewEmailNotifier creates a notifier delivering via the given sender.
// appName appears in subjects and bodies; support is the address users are
// told to contact when they did not request a reset.
func NewEmailNotifier(sender email.Sender, appName, support string) *EmailNotifier {
	return &EmailNotifier{sender: sender, appName: appName, support: support}
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<h1>Welcome to {{.AppName}}, {{.Name}}!</h1>
<p>Your account is ready. Log in any time to start exploring.</p>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<h1>Forgot your password?</h1>
<p>Hi {{.Name}},</p>
<p>Submit a new password at the link below. The link is valid for {{.Validity}}.</p>
<p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
<p>If you didn't request a password reset, ignore this email or contact {{.Support}}.</p>
`))

func (n *EmailNotifier) SendWelcome(ctx context.Context, to, name string) error {
	var body strings.Builder
	if err := welcomeTmpl.Execute(&body, map[string]string{
		"AppName": n.appName,
		"Name":    name,
	}); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	return n.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("Welcome to %s!", n.appName),
		BodyHTML: body.String(),
		Tag:      "welcome",
	})
}

func (n *EmailNotifier) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	var body strings.Builder
	if err := resetTmpl.Execute(&body, map[string]string{
		"Name":     name,
		"ResetURL": resetURL,
		"Validity": "10 minutes",
		"Support":  n.support,
	}); err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}

	return n.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  "Your password reset token (valid for 10 minutes)",
		BodyHTML: body.String(),
		Tag:      "password-reset",
	})
}
