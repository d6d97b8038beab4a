package documents

import (
	"context"
	"fmt"
	"strings"

	"docsign/internal/domain/annotations"
	"docsign/internal/domain/audit"
)

type ActorKind string

const (
	ActorOwner        ActorKind = "owner"
	ActorCollaborator ActorKind = "collaborator"
	ActorGuest        ActorKind = "guest"
)

// Actor es quien firma. Para usuarios autenticados el Kind se resuelve
// contra el documento (dueño o colaborador); el invitado llega ya verificado por token.
type Actor struct {
	Kind   ActorKind
	UserID string
	Email  string
}

func UserActor(userID, email string) Actor {
	return Actor{UserID: strings.TrimSpace(userID), Email: NormalizeEmail(email)}
}

func GuestActor(email string) Actor {
	return Actor{Kind: ActorGuest, Email: NormalizeEmail(email)}
}

// Finalize quema las anotaciones sobre el PDF original y deja el resultado como firmado.
// Siempre parte del original: re-firmar reemplaza la firma anterior, no la acumula.
// Ante cualquier error el documento queda como estaba.
func (s *Service) Finalize(ctx context.Context, id string, actor Actor, in annotations.Input, origin string) (Document, error) {
	d, err := s.Lookup(ctx, id)
	if err != nil {
		return Document{}, err
	}

	kind, err := authorizeSign(d, actor)
	if err != nil {
		return Document{}, err
	}
	if d.Status == StatusRejected {
		return Document{}, ErrInvalidState
	}

	items := in.Normalize()

	src, err := s.blobs.Get(ctx, d.Original.URL)
	if err != nil {
		s.log.Error("source pdf fetch failed", map[string]any{
			"document_id": d.ID,
			"error":       err.Error(),
		})
		return Document{}, fmt.Errorf("%w: %v", ErrSourceFetchFailed, err)
	}

	opts := annotations.Options{Now: s.now, DateSize: annotations.DateSize}
	if kind == ActorGuest {
		opts.DateSize = annotations.GuestDateSize
	}
	out, rep, err := s.renderer.Render(ctx, src, items, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Document{}, ctxErr
		}
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	for _, sk := range rep.Skipped {
		s.log.Warn("annotation skipped", map[string]any{
			"document_id": d.ID,
			"index":       sk.Index,
			"page":        sk.Page,
			"reason":      sk.Reason,
		})
	}

	obj, err := s.blobs.Put(ctx, out, folderSigned)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	prev := d.Signed
	d.Status = StatusSigned
	d.Signed = &Blob{ID: obj.ID, URL: obj.URL}
	d.SignatureConfig = in.Config(items)
	d.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		s.deleteBlob(ctx, obj.ID, "finalize rollback")
		return Document{}, err
	}
	if prev != nil && prev.ID != obj.ID {
		s.deleteBlob(ctx, prev.ID, "re-sign")
	}

	s.audit.Record(ctx, signedEntry(d, kind, actor, origin))
	return updated, nil
}

func authorizeSign(d Document, actor Actor) (ActorKind, error) {
	switch {
	case actor.Kind == ActorGuest:
		if g, ok := d.GrantFor(actor.Email); ok && g.Permission == PermissionEdit {
			return ActorGuest, nil
		}
	case d.IsOwner(actor.UserID):
		return ActorOwner, nil
	case strings.TrimSpace(actor.UserID) != "":
		if g, ok := d.GrantFor(actor.Email); ok && g.Permission == PermissionEdit {
			return ActorCollaborator, nil
		}
	}
	return "", ErrUnauthorized
}

func signedEntry(d Document, kind ActorKind, actor Actor, origin string) audit.Entry {
	e := audit.Entry{
		DocumentID: d.ID,
		Action:     audit.ActionSigned,
		Origin:     origin,
	}
	switch kind {
	case ActorOwner:
		e.ActorID = audit.Actor(actor.UserID)
		e.Detail = "Signed by owner. IP: " + origin
	case ActorCollaborator:
		e.ActorID = audit.Actor(actor.UserID)
		e.Detail = "Signed by " + actor.Email + ". IP: " + origin
	case ActorGuest:
		e.Action = audit.ActionSignedPublic
		e.Detail = "Signed by Guest " + actor.Email + ". IP: " + origin
	}
	return e
}
