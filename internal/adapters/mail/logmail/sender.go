package logmail

import (
	"context"

	"docsign/internal/platform/logger"
	"docsign/internal/ports/mailer"
)

// Sender no entrega nada: deja el mensaje en el log. Se usa cuando no hay SMTP configurado.
type Sender struct {
	log logger.Logger
}

func New(log logger.Logger) *Sender {
	if log == nil {
		log = logger.NewNop()
	}
	return &Sender{log: log.With(map[string]any{"component": "mail"})}
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info("email not sent (no smtp configured)", map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Text,
	})
	return nil
}
