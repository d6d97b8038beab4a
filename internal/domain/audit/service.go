package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"docsign/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrDocumentNotFound lo devuelve (envuelto) DocumentOwnerLookup cuando el documento no existe.
	ErrDocumentNotFound = errors.New("document not found")
)

const (
	recordTimeout = 3 * time.Second
	maxPageSize   = 200
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "audit"}),
		now:  time.Now,
	}
}

// Record nunca falla hacia el llamador: el fallo se loguea y se sigue.
// No hereda la cancelación del request.
func (s *Service) Record(ctx context.Context, in Entry) {
	if strings.TrimSpace(in.DocumentID) == "" || strings.TrimSpace(in.Action) == "" {
		s.log.Warn("audit entry dropped", map[string]any{"action": in.Action, "document_id": in.DocumentID})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	e := Event{
		ID:         uuid.NewString(),
		DocumentID: in.DocumentID,
		Action:     in.Action,
		ActorID:    in.ActorID,
		Detail:     in.Detail,
		Origin:     in.Origin,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Append(ctx, e); err != nil {
		s.log.Error("audit append failed", map[string]any{
			"action":      in.Action,
			"document_id": in.DocumentID,
			"error":       err,
		})
	}
}

func (s *Service) List(ctx context.Context, documentID string) ([]Event, error) {
	return s.ListPage(ctx, documentID, "", 0)
}

func (s *Service) ListPage(ctx context.Context, documentID, after string, limit int) ([]Event, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, ErrInvalidInput
	}
	if limit < 0 || limit > maxPageSize {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByDocument(ctx, documentID, ListFilter{
		After: strings.TrimSpace(after),
		Limit: limit,
	})
}
