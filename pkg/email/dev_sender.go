package email

import (
	"context"
	"log/slog"
)

// DevSender implements Sender for local development: it logs the message
// instead of delivering it, so the reset link shows up in the console.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a development sender writing through the given logger.
func NewDevSender(log *slog.Logger) Sender {
	return &DevSender{log: log}
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.log.InfoContext(ctx, "email (dev sender, not delivered)",
		slog.String("to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
		slog.String("body_html", params.BodyHTML),
	)
	return nil
}
