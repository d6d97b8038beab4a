package jwtcodec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"docsign/internal/ports/tokens"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "docsign/share"

// shareClaims es el payload del link compartido. Los nombres siguen lo que ya consumen los clientes.
type shareClaims struct {
	DocumentID string `json:"documentId"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// Codec firma y verifica tokens de compartición (HS256).
type Codec struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("share token secret required")
	}
	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

func (c *Codec) Sign(in tokens.ShareClaims, ttl time.Duration) (string, error) {
	if strings.TrimSpace(in.DocumentID) == "" || strings.TrimSpace(in.Email) == "" || ttl <= 0 {
		return "", errors.New("share token: document, email and ttl required")
	}

	now := c.now()
	claims := shareClaims{
		DocumentID: in.DocumentID,
		Email:      in.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   in.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("share token: sign: %w", err)
	}
	return s, nil
}

// Verify rechaza firma inválida, algoritmo distinto de HS256, token vencido o sin documento/email.
func (c *Codec) Verify(token string) (tokens.ShareClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return tokens.ShareClaims{}, tokens.ErrInvalidToken
	}

	claims := &shareClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return tokens.ShareClaims{}, fmt.Errorf("%w: %v", tokens.ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.DocumentID) == "" || strings.TrimSpace(claims.Email) == "" {
		return tokens.ShareClaims{}, tokens.ErrInvalidToken
	}

	return tokens.ShareClaims{
		DocumentID: claims.DocumentID,
		Email:      claims.Email,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
