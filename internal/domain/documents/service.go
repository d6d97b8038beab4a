package documents

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"path"
	"strings"
	"time"

	"docsign/internal/domain/annotations"
	"docsign/internal/domain/audit"
	"docsign/internal/platform/logger"
	"docsign/internal/ports/blobstore"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("document not found")
	ErrUnauthorized      = errors.New("not allowed on this document")
	ErrInvalidState      = errors.New("invalid document state")
	ErrConflict          = errors.New("document was modified concurrently")
	ErrSourceFetchFailed = errors.New("could not fetch source pdf")
	ErrInvalidPDF        = errors.New("invalid pdf")
	ErrStorageFailure    = errors.New("could not store pdf")
)

const (
	folderUploads = "uploads"
	folderSigned  = "signed"
)

// Renderer es el motor PDF (ver adapters/pdf/fpdfrender).
type Renderer interface {
	Pages(src []byte) ([]annotations.Page, error)
	Render(ctx context.Context, src []byte, items []annotations.Annotation, opts annotations.Options) ([]byte, annotations.Report, error)
}

// AuditRecorder evita depender del servicio concreto; Record no devuelve error.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	repo     Repository
	blobs    blobstore.Store
	renderer Renderer
	audit    AuditRecorder
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, blobs blobstore.Store, renderer Renderer, rec AuditRecorder, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:     repo,
		blobs:    blobs,
		renderer: renderer,
		audit:    rec,
		log:      log.With(map[string]any{"component": "documents"}),
		now:      time.Now,
	}
}

// Viewer es quien lee un documento: dueño por id o destinatario por email.
type Viewer struct {
	UserID string
	Email  string
}

type UploadInput struct {
	OwnerUserID string
	FileName    string
	Data        []byte
	Origin      string
}

func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	owner := strings.TrimSpace(in.OwnerUserID)
	if owner == "" || len(in.Data) == 0 {
		return Document{}, ErrInvalidInput
	}
	name := cleanFileName(in.FileName)
	if name == "" {
		return Document{}, ErrInvalidInput
	}

	pages, err := s.renderer.Pages(in.Data)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	obj, err := s.blobs.Put(ctx, in.Data, folderUploads)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	now := s.now().UTC()
	d := Document{
		ID:          uuid.NewString(),
		FileName:    name,
		Original:    Blob{ID: obj.ID, URL: obj.URL},
		Status:      StatusPending,
		OwnerUserID: owner,
		SharedWith:  []Grant{},
		Pages:       len(pages),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.deleteBlob(ctx, obj.ID, "upload rollback")
		return Document{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		DocumentID: d.ID,
		Action:     audit.ActionUploaded,
		ActorID:    audit.Actor(owner),
		Detail:     "Uploaded from " + in.Origin,
		Origin:     in.Origin,
	})
	return d, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Document, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, ownerUserID)
}

func (s *Service) ListSharedWith(ctx context.Context, email string) ([]Document, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListSharedWith(ctx, email)
}

// Get aplica permisos de lectura: dueño o cualquier destinatario.
func (s *Service) Get(ctx context.Context, id string, v Viewer) (Document, error) {
	d, err := s.Lookup(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !d.CanView(v.UserID, v.Email) {
		return Document{}, ErrUnauthorized
	}
	return d, nil
}

// Lookup no aplica permisos; lo usan flujos que ya autorizaron por otra vía (token).
func (s *Service) Lookup(ctx context.Context, id string) (Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Reject(ctx context.Context, id, actorID, reason, origin string) (Document, error) {
	d, err := s.ownedBy(ctx, id, actorID)
	if err != nil {
		return Document{}, err
	}
	if d.Status != StatusPending {
		return Document{}, ErrInvalidState
	}

	d.Status = StatusRejected
	d.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		return Document{}, err
	}

	detail := "Rejected by owner. IP: " + origin
	if r := strings.TrimSpace(reason); r != "" {
		detail = "Rejected by owner. Reason: " + r
	}
	s.audit.Record(ctx, audit.Entry{
		DocumentID: d.ID,
		Action:     audit.ActionRejected,
		ActorID:    audit.Actor(d.OwnerUserID),
		Detail:     detail,
		Origin:     origin,
	})
	return updated, nil
}

// Reset deshace la firma: vuelve a Pending y libera el PDF firmado.
// Sobre un documento Pending no cambia nada, pero igual queda un evento.
func (s *Service) Reset(ctx context.Context, id, actorID, origin string) (Document, error) {
	d, err := s.ownedBy(ctx, id, actorID)
	if err != nil {
		return Document{}, err
	}

	out := d
	switch d.Status {
	case StatusRejected:
		return Document{}, ErrInvalidState
	case StatusSigned:
		prev := d.Signed
		d.Status = StatusPending
		d.Signed = nil
		d.SignatureConfig = nil
		d.UpdatedAt = s.now().UTC()
		out, err = s.repo.Update(ctx, d)
		if err != nil {
			return Document{}, err
		}
		if prev != nil {
			s.deleteBlob(ctx, prev.ID, "reset")
		}
	}

	s.audit.Record(ctx, audit.Entry{
		DocumentID: d.ID,
		Action:     audit.ActionReset,
		ActorID:    audit.Actor(d.OwnerUserID),
		Detail:     "Signatures cleared by owner.",
		Origin:     origin,
	})
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID, origin string) error {
	d, err := s.ownedBy(ctx, id, actorID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}

	s.deleteBlob(ctx, d.Original.ID, "delete")
	if d.Signed != nil {
		s.deleteBlob(ctx, d.Signed.ID, "delete")
	}

	s.audit.Record(ctx, audit.Entry{
		DocumentID: d.ID,
		Action:     audit.ActionDeleted,
		ActorID:    audit.Actor(d.OwnerUserID),
		Detail:     "Deleted by owner. IP: " + origin,
		Origin:     origin,
	})
	return nil
}

// UpsertGrant agrega o actualiza la invitación de email (una por documento).
// Permiso vacío => view.
func (s *Service) UpsertGrant(ctx context.Context, id, ownerUserID, email string, perm Permission) (Document, Grant, error) {
	email, err := ParseEmail(email)
	if err != nil {
		return Document{}, Grant{}, err
	}
	if perm == "" {
		perm = PermissionView
	}
	if !perm.Valid() {
		return Document{}, Grant{}, ErrInvalidInput
	}

	d, err := s.ownedBy(ctx, id, ownerUserID)
	if err != nil {
		return Document{}, Grant{}, err
	}

	g := Grant{Email: email, Permission: perm}
	grants := make([]Grant, 0, len(d.SharedWith)+1)
	replaced := false
	for _, cur := range d.SharedWith {
		if cur.Email == email {
			grants = append(grants, g)
			replaced = true
			continue
		}
		grants = append(grants, cur)
	}
	if !replaced {
		grants = append(grants, g)
	}

	d.SharedWith = grants
	d.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		return Document{}, Grant{}, err
	}
	return updated, g, nil
}

// OwnerOf expone el ownerUserID de un documento.
// Se usa para evitar ciclos de imports (audit -> documents).
func (s *Service) OwnerOf(ctx context.Context, id string) (string, error) {
	d, err := s.Lookup(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("%w: %w", ErrNotFound, audit.ErrDocumentNotFound)
	}
	if err != nil {
		return "", err
	}
	return d.OwnerUserID, nil
}

// ParseEmail valida y devuelve la forma canónica.
func ParseEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", ErrInvalidInput
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidInput
	}
	return email, nil
}

func (s *Service) ownedBy(ctx context.Context, id, actorID string) (Document, error) {
	d, err := s.Lookup(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !d.IsOwner(actorID) {
		return Document{}, ErrUnauthorized
	}
	return d, nil
}

func (s *Service) deleteBlob(ctx context.Context, blobID, reason string) {
	if strings.TrimSpace(blobID) == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), blobID); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.log.Warn("blob delete failed", map[string]any{
			"blob_id": blobID,
			"reason":  reason,
			"error":   err,
		})
	}
}

func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
