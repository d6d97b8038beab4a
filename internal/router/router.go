package router

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"docsign/internal/adapters/blob/cache"
	blobmem "docsign/internal/adapters/blob/memory"
	"docsign/internal/adapters/mail/logmail"
	"docsign/internal/adapters/pdf/fpdfrender"
	mem "docsign/internal/adapters/storage/memory"
	pg "docsign/internal/adapters/storage/postgres"
	"docsign/internal/domain/audit"
	"docsign/internal/domain/documents"
	"docsign/internal/domain/sharing"
	"docsign/internal/domain/signatures"
	"docsign/internal/middleware"
	"docsign/internal/platform/logger"
	"docsign/internal/ports/auth"
	"docsign/internal/ports/blobstore"
	"docsign/internal/ports/mailer"
	"docsign/internal/ports/tokens"

	_ "docsign/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger

	// Blobs nil => store en memoria. BlobHandler sirve /blobs/* (filesystem).
	Blobs         blobstore.Store
	BlobHandler   http.Handler
	BlobCacheSize int
	BlobCacheTTL  time.Duration

	Mailer        mailer.Sender // nil => sólo log
	ShareTokens   tokens.Codec  // requerido
	ShareTokenTTL time.Duration
	FrontendURL   string

	MaxUploadBytes int64
}

func NewRouter(opts Options) (http.Handler, error) {
	if opts.ShareTokens == nil {
		return nil, errors.New("router: share token codec required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		docRepo   documents.Repository
		auditRepo audit.Repository
		sigRepo   signatures.Repository
	)
	if opts.DB != nil {
		docRepo = pg.NewDocumentsRepo(opts.DB)
		auditRepo = pg.NewAuditRepo(opts.DB)
		sigRepo = pg.NewSignaturesRepo(opts.DB)
	} else {
		docRepo = mem.NewDocumentRepo()
		auditRepo = mem.NewAuditRepo()
		sigRepo = mem.NewSignatureRepo()
	}

	blobs := opts.Blobs
	if blobs == nil {
		blobs = blobmem.New()
	}
	blobs = cache.New(blobs, opts.BlobCacheSize, opts.BlobCacheTTL)
	if opts.BlobHandler != nil {
		r.Handle("/blobs/*", opts.BlobHandler)
	}

	sender := opts.Mailer
	if sender == nil {
		sender = logmail.New(log)
	}

	// Services por módulo
	auditSvc := audit.NewService(auditRepo, log)
	docsSvc := documents.NewService(docRepo, blobs, fpdfrender.New(log), auditSvc, log)
	sharingSvc := sharing.NewService(docsSvc, opts.ShareTokens, sender, auditSvc, log, sharing.Options{
		FrontendURL: opts.FrontendURL,
		TokenTTL:    opts.ShareTokenTTL,
	})
	sigSvc := signatures.NewService(sigRepo, docsSvc)

	// Rutas por módulo
	documents.RegisterRoutes(r, docsSvc, opts.MaxUploadBytes)
	sharing.RegisterRoutes(r, sharingSvc)
	audit.RegisterRoutes(r, auditSvc, docsSvc)
	signatures.RegisterRoutes(r, sigSvc)

	return r, nil
}
