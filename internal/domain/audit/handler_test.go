package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"docsign/internal/middleware"
	"docsign/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

type ownerLookup struct {
	owner string
	err   error
}

func (o ownerLookup) OwnerOf(ctx context.Context, documentID string) (string, error) {
	return o.owner, o.err
}

func getEvents(t *testing.T, owners DocumentOwnerLookup, userID string) int {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, newTestService(&testRepo{}), owners)

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/audit", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), auth.Claims{UserID: userID}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestListEventsHandler_OwnerLookupErrors(t *testing.T) {
	cases := []struct {
		name   string
		owners ownerLookup
		want   int
	}{
		{"owner", ownerLookup{owner: "u1"}, http.StatusOK},
		{"other user", ownerLookup{owner: "u2"}, http.StatusForbidden},
		{"missing", ownerLookup{err: fmt.Errorf("lookup: %w", ErrDocumentNotFound)}, http.StatusNotFound},
		{"db down", ownerLookup{err: errors.New("pq: connection refused")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := getEvents(t, tc.owners, "u1"); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}
