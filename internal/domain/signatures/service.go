package signatures

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docsign/internal/domain/annotations"
	"docsign/internal/domain/documents"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// DocumentReader evita depender del servicio concreto de documentos.
type DocumentReader interface {
	Get(ctx context.Context, id string, v documents.Viewer) (documents.Document, error)
}

type Service struct {
	repo Repository
	docs DocumentReader
	now  func() time.Time
}

func NewService(repo Repository, docs DocumentReader) *Service {
	return &Service{
		repo: repo,
		docs: docs,
		now:  time.Now,
	}
}

type SaveInput struct {
	UserID     string
	Email      string
	DocumentID string
	Data       string
	X          float64
	Y          float64
	Page       int
	Origin     string
}

// Save valida la imagen con el mismo decodificador que usa el render.
func (s *Service) Save(ctx context.Context, in SaveInput) (Signature, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" || in.Page < 0 {
		return Signature{}, ErrInvalidInput
	}
	if _, err := annotations.DecodeDataURI(in.Data); err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	docID := strings.TrimSpace(in.DocumentID)
	if docID != "" && s.docs != nil {
		if _, err := s.docs.Get(ctx, docID, documents.Viewer{UserID: userID, Email: in.Email}); err != nil {
			return Signature{}, err
		}
	}

	page := in.Page
	if page == 0 {
		page = 1
	}

	sig := Signature{
		ID:         uuid.NewString(),
		UserID:     userID,
		DocumentID: docID,
		Data:       strings.TrimSpace(in.Data),
		X:          in.X,
		Y:          in.Y,
		Page:       page,
		Status:     StatusValid,
		Origin:     in.Origin,
		SignedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, sig); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Signature, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, userID)
}
