// Package config carga la configuración desde variables de entorno,
// opcionalmente sobre un archivo YAML (CONFIG_FILE). El entorno gana.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AuthMode string

const (
	AuthDev        AuthMode = "dev"
	AuthJWKS       AuthMode = "jwks"
	AuthIntrospect AuthMode = "introspect"
)

type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Vacío => repos in-memory.
	DBDSN     string
	DBMigrate bool

	AuthMode         AuthMode
	JWKSURL          string
	JWTIssuer        string
	JWTLeeway        time.Duration
	IntrospectURL    string
	IntrospectAPIKey string

	ShareTokenSecret string
	ShareTokenTTL    time.Duration
	FrontendURL      string

	// Vacío => blobs en memoria.
	BlobDir       string
	BlobBaseURL   string
	BlobCacheSize int
	BlobCacheTTL  time.Duration

	// Vacío => sender que sólo loguea.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	MaxUploadMB int

	LogLevel  string
	LogFormat string
	AppName   string
}

// source resuelve una key: entorno primero, después el archivo.
type source struct {
	file map[string]string
}

func (s source) get(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	v, ok := s.file[key]
	return v, ok && v != ""
}

// Load arma la configuración y la valida.
func Load() (*Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	cfg := &Config{}
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.Port, err = src.getEnvInt("PORT", 8080)
	collect(err)
	cfg.ReadTimeout, err = src.getEnvDuration("READ_TIMEOUT", 15*time.Second)
	collect(err)
	cfg.WriteTimeout, err = src.getEnvDuration("WRITE_TIMEOUT", 60*time.Second)
	collect(err)
	cfg.ShutdownTimeout, err = src.getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	collect(err)

	cfg.DBDSN = src.getEnv("DB_DSN", "")
	cfg.DBMigrate, err = src.getEnvBool("DB_MIGRATE", true)
	collect(err)

	cfg.AuthMode = AuthMode(strings.ToLower(src.getEnv("AUTH_MODE", string(AuthDev))))
	cfg.JWKSURL = src.getEnv("JWKS_URL", "")
	cfg.JWTIssuer = src.getEnv("JWT_ISSUER", "")
	cfg.JWTLeeway, err = src.getEnvDuration("JWT_LEEWAY", 30*time.Second)
	collect(err)
	cfg.IntrospectURL = src.getEnv("INTROSPECT_URL", "")
	cfg.IntrospectAPIKey = src.getEnv("INTROSPECT_API_KEY", "")

	cfg.ShareTokenSecret = src.getEnv("SHARE_TOKEN_SECRET", "")
	cfg.ShareTokenTTL, err = src.getEnvDuration("SHARE_TOKEN_TTL", 168*time.Hour)
	collect(err)
	cfg.FrontendURL = strings.TrimRight(src.getEnv("FRONTEND_URL", "http://localhost:3000"), "/")

	cfg.BlobDir = src.getEnv("BLOB_DIR", "")
	cfg.BlobBaseURL = strings.TrimRight(src.getEnv("BLOB_BASE_URL", ""), "/")
	cfg.BlobCacheSize, err = src.getEnvInt("BLOB_CACHE_SIZE", 32)
	collect(err)
	cfg.BlobCacheTTL, err = src.getEnvDuration("BLOB_CACHE_TTL", 10*time.Minute)
	collect(err)

	cfg.SMTPHost = src.getEnv("SMTP_HOST", "")
	cfg.SMTPPort, err = src.getEnvInt("SMTP_PORT", 587)
	collect(err)
	cfg.SMTPUser = src.getEnv("SMTP_USER", "")
	cfg.SMTPPassword = src.getEnv("SMTP_PASSWORD", "")
	cfg.SMTPFrom = src.getEnv("SMTP_FROM", "")

	cfg.MaxUploadMB, err = src.getEnvInt("MAX_UPLOAD_MB", 20)
	collect(err)

	cfg.LogLevel = src.getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = src.getEnv("LOG_FORMAT", "text")
	cfg.AppName = src.getEnv("APP_NAME", "docsign")

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rechaza combinaciones que no pueden arrancar.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: out of range: %d", c.Port))
	}
	if strings.TrimSpace(c.ShareTokenSecret) == "" {
		errs = append(errs, errors.New("SHARE_TOKEN_SECRET: required"))
	}
	if c.ShareTokenTTL <= 0 {
		errs = append(errs, errors.New("SHARE_TOKEN_TTL: must be positive"))
	}

	switch c.AuthMode {
	case AuthDev:
	case AuthJWKS:
		if c.JWKSURL == "" {
			errs = append(errs, errors.New("JWKS_URL: required when AUTH_MODE=jwks"))
		}
	case AuthIntrospect:
		if c.IntrospectURL == "" {
			errs = append(errs, errors.New("INTROSPECT_URL: required when AUTH_MODE=introspect"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE: unknown mode %q", c.AuthMode))
	}

	if c.SMTPHost != "" && c.SMTPFrom == "" {
		errs = append(errs, errors.New("SMTP_FROM: required when SMTP_HOST is set"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB: must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// readFile lee un YAML plano (KEY: valor) con las mismas keys que el entorno.
func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out, nil
}

func (s source) getEnv(key, def string) string {
	if v, ok := s.get(key); ok {
		return v
	}
	return def
}

func (s source) getEnvInt(key string, def int) (int, error) {
	v, ok := s.get(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func (s source) getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := s.get(key)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func (s source) getEnvBool(key string, def bool) (bool, error) {
	v, ok := s.get(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q", key, v)
	}
	return b, nil
}
