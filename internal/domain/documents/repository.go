package documents

import "context"

// Repository persiste documentos.
// Update aplica control optimista: sólo escribe si la versión guardada es d.Version,
// y devuelve el documento con Version+1. Mismatch => ErrConflict; inexistente => ErrNotFound.
type Repository interface {
	Create(ctx context.Context, d Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	Update(ctx context.Context, d Document) (Document, error)
	Delete(ctx context.Context, id string) error

	ListByOwner(ctx context.Context, ownerUserID string) ([]Document, error)
	ListSharedWith(ctx context.Context, email string) ([]Document, error)
}
