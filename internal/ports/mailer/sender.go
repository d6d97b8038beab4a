package mailer

import "context"

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender entrega correo. Best-effort: quien llama decide qué hacer con el error.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
