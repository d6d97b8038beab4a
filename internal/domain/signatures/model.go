package signatures

import (
	"context"
	"time"
)

const StatusValid = "Valid"

// Signature es una firma guardada por el usuario para reutilizarla.
type Signature struct {
	ID         string
	UserID     string
	DocumentID string // opcional
	Data       string // data URI (image/png o image/jpeg)
	X          float64
	Y          float64
	Page       int
	Status     string
	Origin     string
	SignedAt   time.Time
}

type Repository interface {
	Create(ctx context.Context, s Signature) error
	ListByUser(ctx context.Context, userID string) ([]Signature, error)
}
