package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docsign/internal/adapters/auth/introspect"
	"docsign/internal/adapters/auth/jwks"
	"docsign/internal/adapters/blob/filesystem"
	"docsign/internal/adapters/mail/smtp"
	pg "docsign/internal/adapters/storage/postgres"
	"docsign/internal/adapters/tokens/jwtcodec"
	"docsign/internal/config"
	"docsign/internal/platform/logger"
	"docsign/internal/ports/auth"
	"docsign/internal/ports/mailer"
	"docsign/internal/router"
)

// @title DocSign API
// @version 1.0
// @description Upload PDFs, place signatures, share signing links and review the audit trail.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid configuration", map[string]any{"error": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	defer logger.Sync(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err})
		logger.Sync(log)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBDSN != "" {
		if cfg.DBMigrate {
			if err := pg.Migrate(cfg.DBDSN); err != nil {
				return err
			}
			log.Info("migrations applied", nil)
		}
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return err
		}
		defer opened.Close()
		db = opened
	} else {
		log.Warn("DB_DSN not set, using in-memory repositories", nil)
	}

	verifier, err := newVerifier(ctx, cfg, log)
	if err != nil {
		return err
	}

	codec, err := jwtcodec.New(cfg.ShareTokenSecret)
	if err != nil {
		return err
	}

	sender, err := newMailer(cfg)
	if err != nil {
		return err
	}

	opts := router.Options{
		AuthVerifier:   verifier,
		DB:             db,
		Logger:         log,
		BlobCacheSize:  cfg.BlobCacheSize,
		BlobCacheTTL:   cfg.BlobCacheTTL,
		Mailer:         sender,
		ShareTokens:    codec,
		ShareTokenTTL:  cfg.ShareTokenTTL,
		FrontendURL:    cfg.FrontendURL,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}
	if cfg.BlobDir != "" {
		blobs, err := filesystem.New(cfg.BlobDir, cfg.BlobBaseURL, nil)
		if err != nil {
			return err
		}
		opts.Blobs = blobs
		opts.BlobHandler = blobs
	} else {
		log.Warn("BLOB_DIR not set, blobs are kept in memory", nil)
	}

	h, err := router.NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "auth_mode": string(cfg.AuthMode)})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newVerifier devuelve nil en modo dev (headers X-Debug-User-*).
func newVerifier(ctx context.Context, cfg *config.Config, log logger.Logger) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthJWKS:
		return jwks.New(ctx, jwks.Config{
			URL:    cfg.JWKSURL,
			Issuer: cfg.JWTIssuer,
			Leeway: cfg.JWTLeeway,
		}, log)
	case config.AuthIntrospect:
		client, err := introspect.NewClient(introspect.Config{
			BaseURL: cfg.IntrospectURL,
			APIKey:  cfg.IntrospectAPIKey,
			Timeout: 5 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return introspect.NewVerifier(client), nil
	default:
		log.Warn("AUTH_MODE=dev, trusting X-Debug-User-* headers", nil)
		return nil, nil
	}
}

// newMailer devuelve nil sin SMTP_HOST; el router cae al sender que sólo loguea.
func newMailer(cfg *config.Config) (mailer.Sender, error) {
	if cfg.SMTPHost == "" {
		return nil, nil
	}
	return smtp.New(smtp.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Timeout:  10 * time.Second,
	})
}
