package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"docsign/internal/domain/audit"
)

type auditRepo struct {
	mu    sync.RWMutex
	byDoc map[string][]audit.Event // orden de inserción
	ids   map[string]struct{}
}

func NewAuditRepo() audit.Repository {
	return &auditRepo{
		byDoc: make(map[string][]audit.Event),
		ids:   make(map[string]struct{}),
	}
}

func (r *auditRepo) Append(ctx context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("event id required")
	}
	if _, exists := r.ids[e.ID]; exists {
		return errors.New("event already exists")
	}
	r.ids[e.ID] = struct{}{}
	r.byDoc[e.DocumentID] = append(r.byDoc[e.DocumentID], e)
	return nil
}

func (r *auditRepo) ListByDocument(ctx context.Context, documentID string, filter audit.ListFilter) ([]audit.Event, error) {
	r.mu.RLock()
	items := append([]audit.Event(nil), r.byDoc[documentID]...)
	r.mu.RUnlock()

	// created_at asc; a igual timestamp manda el orden de inserción.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	if filter.After != "" {
		start := len(items)
		for i, e := range items {
			if e.ID == filter.After {
				start = i + 1
				break
			}
		}
		items = items[start:]
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}

	out := make([]audit.Event, 0, len(items))
	return append(out, items...), nil
}
