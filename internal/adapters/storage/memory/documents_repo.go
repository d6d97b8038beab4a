package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"docsign/internal/domain/documents"
)

type documentRepo struct {
	mu   sync.RWMutex
	byID map[string]documents.Document
}

func NewDocumentRepo() documents.Repository {
	return &documentRepo{
		byID: make(map[string]documents.Document),
	}
}

func (r *documentRepo) Create(ctx context.Context, d documents.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("document already exists")
	}
	r.byID[d.ID] = cloneDocument(d)
	return nil
}

// Update compara versión igual que el UPDATE ... WHERE version = $n de postgres.
func (r *documentRepo) Update(ctx context.Context, d documents.Document) (documents.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[d.ID]
	if !ok {
		return documents.Document{}, documents.ErrNotFound
	}
	if cur.Version != d.Version {
		return documents.Document{}, documents.ErrConflict
	}

	d.OwnerUserID = cur.OwnerUserID
	d.CreatedAt = cur.CreatedAt
	d.Version++
	r.byID[d.ID] = cloneDocument(d)
	return cloneDocument(d), nil
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return documents.Document{}, documents.ErrNotFound
	}
	return cloneDocument(d), nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return documents.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *documentRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]documents.Document, error) {
	return r.list(func(d documents.Document) bool { return d.OwnerUserID == ownerUserID }), nil
}

func (r *documentRepo) ListSharedWith(ctx context.Context, email string) ([]documents.Document, error) {
	email = documents.NormalizeEmail(email)
	return r.list(func(d documents.Document) bool {
		_, ok := d.GrantFor(email)
		return ok
	}), nil
}

func (r *documentRepo) list(match func(documents.Document) bool) []documents.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]documents.Document, 0)
	for _, d := range r.byID {
		if match(d) {
			out = append(out, cloneDocument(d))
		}
	}

	// Más reciente primero; id como desempate para orden estable.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// cloneDocument evita que quien llama mute el estado guardado a través de slices/punteros.
func cloneDocument(d documents.Document) documents.Document {
	if d.Signed != nil {
		b := *d.Signed
		d.Signed = &b
	}
	if d.SignatureConfig != nil {
		a := *d.SignatureConfig
		d.SignatureConfig = &a
	}
	d.SharedWith = append([]documents.Grant(nil), d.SharedWith...)
	return d
}
