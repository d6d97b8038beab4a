package cache

import (
	"context"
	"time"

	"docsign/internal/ports/blobstore"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsign_blob_cache_hits_total",
		Help: "Blob reads served from the LRU cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docsign_blob_cache_misses_total",
		Help: "Blob reads that went to the backing store.",
	})
)

// Store envuelve otro blobstore.Store con un LRU por URL.
// Los artefactos son inmutables (cada Put genera un ID nuevo), así que sólo Delete invalida.
type Store struct {
	next  blobstore.Store
	lru   *expirable.LRU[string, []byte]
	urlOf *expirable.LRU[string, string] // id -> url, para invalidar en Delete
}

func New(next blobstore.Store, size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 32
	}
	return &Store{
		next:  next,
		lru:   expirable.NewLRU[string, []byte](size, nil, ttl),
		urlOf: expirable.NewLRU[string, string](size*4, nil, ttl),
	}
}

func (s *Store) Put(ctx context.Context, data []byte, folder string) (blobstore.Object, error) {
	obj, err := s.next.Put(ctx, data, folder)
	if err != nil {
		return obj, err
	}
	s.urlOf.Add(obj.ID, obj.URL)
	return obj, nil
}

func (s *Store) Get(ctx context.Context, url string) ([]byte, error) {
	if b, ok := s.lru.Get(url); ok {
		cacheHitsTotal.Inc()
		return b, nil
	}
	cacheMissesTotal.Inc()

	b, err := s.next.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	s.lru.Add(url, b)
	return b, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if url, ok := s.urlOf.Get(id); ok {
		s.lru.Remove(url)
		s.urlOf.Remove(id)
	}
	return s.next.Delete(ctx, id)
}
