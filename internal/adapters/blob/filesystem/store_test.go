package filesystem

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docsign/internal/ports/blobstore"
)

func TestStore_PutGetDelete(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost:8080/", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	obj, err := s.Put(ctx, []byte("%PDF-1.4 data"), "signed")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasPrefix(obj.ID, "signed/") || obj.URL != "http://localhost:8080/blobs/"+obj.ID {
		t.Fatalf("unexpected object %#v", obj)
	}

	got, err := s.Get(ctx, obj.URL)
	if err != nil || string(got) != "%PDF-1.4 data" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := s.Delete(ctx, obj.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, obj.URL); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, obj.ID); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_RejectsBadFolderAndTraversal(t *testing.T) {
	s, _ := New(t.TempDir(), "http://x", nil)
	if _, err := s.Put(context.Background(), []byte("x"), "../etc"); err == nil {
		t.Fatalf("expected error for bad folder")
	}
	if err := s.Delete(context.Background(), "../../etc/passwd"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ServeHTTP(t *testing.T) {
	s, _ := New(t.TempDir(), "http://x", nil)
	obj, err := s.Put(context.Background(), []byte("%PDF-1.7"), "uploads")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blobs/"+obj.ID, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.7" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blobs/uploads/../../secret", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStore_GetRemoteURL(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "%PDF-remote")
	}))
	defer remote.Close()

	s, _ := New(t.TempDir(), "http://local", nil)
	got, err := s.Get(context.Background(), remote.URL+"/some/file.pdf")
	if err != nil || string(got) != "%PDF-remote" {
		t.Fatalf("Get remote = %q, %v", got, err)
	}
	if _, err := s.Get(context.Background(), "ftp://nope"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown scheme, got %v", err)
	}
}
