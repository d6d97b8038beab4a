package sharing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsign/internal/domain/annotations"
	"docsign/internal/domain/audit"
	"docsign/internal/domain/documents"
	"docsign/internal/platform/logger"
	"docsign/internal/ports/mailer"
	"docsign/internal/ports/tokens"
)

// ErrInvalidToken: token malformado, vencido, falsificado o sin acceso vigente.
var ErrInvalidToken = tokens.ErrInvalidToken

const DefaultTokenTTL = 7 * 24 * time.Hour

// Documents es lo que sharing necesita del módulo de documentos.
type Documents interface {
	Lookup(ctx context.Context, id string) (documents.Document, error)
	UpsertGrant(ctx context.Context, id, ownerUserID, email string, perm documents.Permission) (documents.Document, documents.Grant, error)
	Finalize(ctx context.Context, id string, actor documents.Actor, in annotations.Input, origin string) (documents.Document, error)
}

type Options struct {
	FrontendURL string
	TokenTTL    time.Duration
}

type Service struct {
	docs        Documents
	tokens      tokens.Codec
	mail        mailer.Sender
	audit       documents.AuditRecorder
	log         logger.Logger
	frontendURL string
	ttl         time.Duration
}

func NewService(docs Documents, codec tokens.Codec, sender mailer.Sender, rec documents.AuditRecorder, log logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		docs:        docs,
		tokens:      codec,
		mail:        sender,
		audit:       rec,
		log:         log.With(map[string]any{"component": "sharing"}),
		frontendURL: strings.TrimRight(strings.TrimSpace(opts.FrontendURL), "/"),
		ttl:         ttl,
	}
}

// Sharer es el dueño que comparte (el nombre va en el asunto del correo).
type Sharer struct {
	UserID string
	Name   string
	Email  string
}

type ShareInput struct {
	Email      string
	Permission documents.Permission
	Message    string
	Origin     string
}

type ShareResult struct {
	Link      string
	EmailSent bool
	Grant     documents.Grant
}

// PublicView es lo que ve quien abre un link compartido.
type PublicView struct {
	ID         string
	FileName   string
	Status     documents.Status
	FileURL    string
	Email      string
	Permission documents.Permission
}

// Share registra la invitación, emite el link y avisa por correo.
// El correo es best-effort: si falla, el grant y el link siguen siendo válidos.
func (s *Service) Share(ctx context.Context, docID string, by Sharer, in ShareInput) (ShareResult, error) {
	d, g, err := s.docs.UpsertGrant(ctx, docID, by.UserID, in.Email, in.Permission)
	if err != nil {
		return ShareResult{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		DocumentID: d.ID,
		Action:     audit.ActionShared,
		ActorID:    audit.Actor(by.UserID),
		Detail:     fmt.Sprintf("Shared with %s (%s)", g.Email, g.Permission),
		Origin:     in.Origin,
	})

	tok, err := s.tokens.Sign(tokens.ShareClaims{DocumentID: d.ID, Email: g.Email}, s.ttl)
	if err != nil {
		return ShareResult{}, fmt.Errorf("share token: %w", err)
	}
	link := s.frontendURL + "/share/" + tok

	res := ShareResult{Link: link, Grant: g}
	if err := s.mail.Send(ctx, shareEmail(d, by, g, link, in.Message)); err != nil {
		s.log.Warn("share email failed", map[string]any{
			"document_id": d.ID,
			"to":          g.Email,
			"error":       err,
		})
		return res, nil
	}
	res.EmailSent = true
	return res, nil
}

// Resolve no deja rastro en auditoría: solo lectura.
func (s *Service) Resolve(ctx context.Context, token string) (PublicView, error) {
	claims, d, g, err := s.resolve(ctx, token)
	if err != nil {
		return PublicView{}, err
	}
	return PublicView{
		ID:         d.ID,
		FileName:   d.FileName,
		Status:     d.Status,
		FileURL:    d.FileURL(),
		Email:      claims.Email,
		Permission: g.Permission,
	}, nil
}

// SignAsGuest firma con exactamente una anotación en nombre del email del token.
// Las imágenes se dibujan tal cual; el texto se reemplaza por el sello del invitado.
func (s *Service) SignAsGuest(ctx context.Context, token string, a annotations.Annotation, origin string) (PublicView, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return PublicView{}, ErrInvalidToken
	}

	if a.Kind == "" {
		a.Kind = annotations.KindText
	}
	// el texto del invitado siempre es el sello con su email, nunca lo que mande el cliente
	if a.Kind == annotations.KindText {
		a.Content = fmt.Sprintf("Signed by Guest (%s)", claims.Email)
	}

	d, err := s.docs.Finalize(ctx, claims.DocumentID, documents.GuestActor(claims.Email),
		annotations.Input{Annotations: []annotations.Annotation{a}}, origin)
	if err != nil {
		return PublicView{}, err
	}

	g, _ := d.GrantFor(claims.Email)
	return PublicView{
		ID:         d.ID,
		FileName:   d.FileName,
		Status:     d.Status,
		FileURL:    d.FileURL(),
		Email:      claims.Email,
		Permission: g.Permission,
	}, nil
}

func (s *Service) resolve(ctx context.Context, token string) (tokens.ShareClaims, documents.Document, documents.Grant, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return tokens.ShareClaims{}, documents.Document{}, documents.Grant{}, ErrInvalidToken
	}
	d, err := s.docs.Lookup(ctx, claims.DocumentID)
	if err != nil {
		return tokens.ShareClaims{}, documents.Document{}, documents.Grant{}, err
	}
	g, ok := d.GrantFor(claims.Email)
	if !ok {
		return tokens.ShareClaims{}, documents.Document{}, documents.Grant{}, ErrInvalidToken
	}
	return claims, d, g, nil
}
