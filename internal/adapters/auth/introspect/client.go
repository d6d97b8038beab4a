package introspect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docsign/internal/platform/httpclient"
	"docsign/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("introspection client not configured")
	ErrUnauthorized  = errors.New("introspection: token rejected")
	ErrUpstream      = errors.New("introspection upstream error")
)

const verifyPath = "/v1/tokens/verify"

// Config del servicio de identidad que verifica tokens opacos.
type Config struct {
	BaseURL string
	APIKey  string

	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

type verifyResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// VerifyToken manda el token al servicio de identidad y devuelve sus claims.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	headers := map[string]string{
		c.apiKeyHeader:  c.apiKey,
		"Authorization": "Bearer " + token,
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, verifyPath, headers, map[string]string{"token": token}, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return auth.Claims{
		UserID: strings.TrimSpace(out.UserID),
		Email:  strings.TrimSpace(out.Email),
		Name:   strings.TrimSpace(out.Name),
	}, nil
}
