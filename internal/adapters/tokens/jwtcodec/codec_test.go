package jwtcodec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"docsign/internal/ports/tokens"

	"github.com/golang-jwt/jwt/v5"
)

func newTestCodec(t *testing.T, secret string, now time.Time) *Codec {
	t.Helper()
	c, err := New(secret)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time { return now }
	return c
}

func TestSignVerify(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	c := newTestCodec(t, "s3cret", now)

	tok, err := c.Sign(tokens.ShareClaims{DocumentID: "doc-1", Email: "a@x.com"}, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	got, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.DocumentID != "doc-1" || got.Email != "a@x.com" || !got.ExpiresAt.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("unexpected claims %#v", got)
	}
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	c := newTestCodec(t, "s3cret", now)
	tok, _ := c.Sign(tokens.ShareClaims{DocumentID: "doc-1", Email: "a@x.com"}, time.Hour)

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := c.Verify(tok); !errors.Is(err, tokens.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, "s3cret", now)
	tok, _ := c.Sign(tokens.ShareClaims{DocumentID: "doc-1", Email: "a@x.com"}, time.Hour)

	parts := strings.Split(tok, ".")
	forged := newTestCodec(t, "s3cret", now)
	other, _ := forged.Sign(tokens.ShareClaims{DocumentID: "doc-2", Email: "a@x.com"}, time.Hour)
	// payload de otro token con la firma del primero
	swapped := parts[0] + "." + strings.Split(other, ".")[1] + "." + parts[2]

	cases := map[string]string{
		"garbage":   "not-a-jwt",
		"empty":     "  ",
		"swapped":   swapped,
		"other key": mustSign(t, "different", now),
		"alg none":  noneToken(t),
	}
	for name, in := range cases {
		if _, err := c.Verify(in); !errors.Is(err, tokens.ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestSign_Validates(t *testing.T) {
	c := newTestCodec(t, "s3cret", time.Now())
	if _, err := c.Sign(tokens.ShareClaims{Email: "a@x.com"}, time.Hour); err == nil {
		t.Fatalf("expected error without document")
	}
	if _, err := c.Sign(tokens.ShareClaims{DocumentID: "d", Email: "a@x.com"}, 0); err == nil {
		t.Fatalf("expected error without ttl")
	}
	if _, err := New(" "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func mustSign(t *testing.T, secret string, now time.Time) string {
	t.Helper()
	tok, err := newTestCodec(t, secret, now).Sign(tokens.ShareClaims{DocumentID: "doc-1", Email: "a@x.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tok
}

func noneToken(t *testing.T) string {
	t.Helper()
	claims := shareClaims{
		DocumentID: "doc-1",
		Email:      "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("none token: %v", err)
	}
	return tok
}
