package jwks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docsign/internal/platform/logger"
	"docsign/internal/ports/auth"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid bearer token")

type Config struct {
	URL             string
	Issuer          string // opcional
	Leeway          time.Duration
	RefreshInterval time.Duration
	Timeout         time.Duration
}

// idpClaims son los campos que leemos del access token del IdP.
type idpClaims struct {
	jwt.RegisteredClaims
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

// Verifier implementa auth.AuthVerifier validando la firma contra un JWKS remoto.
type Verifier struct {
	kf     keyfunc.Keyfunc
	issuer string
	leeway time.Duration
}

// New arranca aunque el IdP no responda todavía; el refresco en background reintenta.
// ctx corta la goroutine de refresco.
func New(ctx context.Context, cfg Config, log logger.Logger) (*Verifier, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("jwks url required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	storage, err := jwkset.NewStorageFromHTTP(url, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: cfg.Timeout},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			log.Error("jwks refresh failed", map[string]any{"url": url, "error": err})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks storage: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("jwks keyfunc: %w", err)
	}
	return NewWithKeyfunc(kf, cfg.Issuer, cfg.Leeway), nil
}

// NewWithKeyfunc permite inyectar un keyfunc (tests).
func NewWithKeyfunc(kf keyfunc.Keyfunc, issuer string, leeway time.Duration) *Verifier {
	return &Verifier{kf: kf, issuer: strings.TrimSpace(issuer), leeway: leeway}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &idpClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.kf.KeyfuncCtx(ctx), opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = strings.TrimSpace(claims.PreferredUsername)
	}
	return auth.Claims{
		UserID: sub,
		Email:  strings.TrimSpace(claims.Email),
		Name:   name,
	}, nil
}
