package tokens

import (
	"errors"
	"time"
)

// ErrInvalidToken cubre token malformado, expirado o con firma inválida.
var ErrInvalidToken = errors.New("invalid token")

// ShareClaims es lo único que autoriza un link compartido: un documento, un email.
type ShareClaims struct {
	DocumentID string
	Email      string
	ExpiresAt  time.Time
}

type Codec interface {
	Sign(claims ShareClaims, ttl time.Duration) (string, error)
	Verify(token string) (ShareClaims, error)
}
