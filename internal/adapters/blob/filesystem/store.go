package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"docsign/internal/platform/httpclient"
	"docsign/internal/ports/blobstore"

	"github.com/google/uuid"
)

const (
	routePrefix  = "/blobs/"
	maxRemoteGet = 50 << 20
)

var (
	folderRe = regexp.MustCompile(`^[a-z0-9_-]+$`)
	idRe     = regexp.MustCompile(`^[a-z0-9_-]+/[0-9a-f-]{36}\.pdf$`)
)

// Store guarda artefactos en disco y los expone en <baseURL>/blobs/<id>.
// URLs fuera de baseURL se descargan por HTTP (artefactos migrados de otro store).
type Store struct {
	root    string
	baseURL string
	remote  *httpclient.Client
}

func New(root, baseURL string, remote *httpclient.Client) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob root dir required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", root, err)
	}
	if remote == nil {
		remote = httpclient.New(0)
	}
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		remote:  remote,
	}, nil
}

func (s *Store) Put(ctx context.Context, data []byte, folder string) (blobstore.Object, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.Object{}, err
	}
	folder = strings.ToLower(strings.TrimSpace(folder))
	if !folderRe.MatchString(folder) {
		return blobstore.Object{}, fmt.Errorf("invalid folder %q", folder)
	}

	id := folder + "/" + uuid.NewString() + ".pdf"
	full := s.fullPath(id)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return blobstore.Object{}, fmt.Errorf("create folder: %w", err)
	}

	// temp => write => fsync => rename atómico
	tmp := full + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return blobstore.Object{}, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return blobstore.Object{}, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return blobstore.Object{}, fmt.Errorf("fsync blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return blobstore.Object{}, fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return blobstore.Object{}, fmt.Errorf("rename blob: %w", err)
	}

	return blobstore.Object{ID: id, URL: s.URL(id)}, nil
}

func (s *Store) Get(ctx context.Context, url string) ([]byte, error) {
	if id, ok := s.idFromURL(url); ok {
		b, err := os.ReadFile(s.fullPath(id))
		if errors.Is(err, os.ErrNotExist) {
			return nil, blobstore.ErrNotFound
		}
		return b, err
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return s.remote.GetBytes(ctx, url, maxRemoteGet)
	}
	return nil, blobstore.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if !idRe.MatchString(id) {
		return blobstore.ErrNotFound
	}
	err := os.Remove(s.fullPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return blobstore.ErrNotFound
	}
	return err
}

func (s *Store) URL(id string) string {
	return s.baseURL + routePrefix + id
}

// ServeHTTP sirve GET /blobs/<folder>/<uuid>.pdf.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(path.Clean(r.URL.Path), routePrefix)
	if !idRe.MatchString(id) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	f, err := os.Open(s.fullPath(id))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeContent(w, r, path.Base(id), st.ModTime(), f)
}

func (s *Store) idFromURL(url string) (string, bool) {
	prefix := s.baseURL + routePrefix
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(url, prefix)
	return id, idRe.MatchString(id)
}

func (s *Store) fullPath(id string) string {
	return filepath.Join(s.root, filepath.FromSlash(id))
}
