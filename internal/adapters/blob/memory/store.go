package memory

import (
	"context"
	"sync"

	"docsign/internal/ports/blobstore"

	"github.com/google/uuid"
)

const scheme = "mem://"

// Store guarda blobs en memoria (dev y tests).
type Store struct {
	mu   sync.RWMutex
	byID map[string][]byte
}

func New() *Store {
	return &Store{byID: map[string][]byte{}}
}

func (s *Store) Put(ctx context.Context, data []byte, folder string) (blobstore.Object, error) {
	id := folder + "/" + uuid.NewString()
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = cp
	return blobstore.Object{ID: id, URL: scheme + id}, nil
}

func (s *Store) Get(ctx context.Context, url string) ([]byte, error) {
	if len(url) <= len(scheme) || url[:len(scheme)] != scheme {
		return nil, blobstore.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[url[len(scheme):]]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return blobstore.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// Len es útil en tests para verificar limpieza de artefactos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
