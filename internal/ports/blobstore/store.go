package blobstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Object identifica un artefacto guardado: ID opaco para borrar, URL para leer.
type Object struct {
	ID  string
	URL string
}

type Store interface {
	Put(ctx context.Context, data []byte, folder string) (Object, error)
	Get(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
