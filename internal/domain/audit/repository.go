package audit

import "context"

// Repository es append-only. ListByDocument devuelve en orden de registro
// (created_at y, a igual timestamp, orden de inserción).
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByDocument(ctx context.Context, documentID string, filter ListFilter) ([]Event, error)
}

type ListFilter struct {
	After string // id del último evento ya leído; "" = desde el inicio
	Limit int    // <= 0 => sin límite
}
