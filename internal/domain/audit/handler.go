package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docsign/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// DocumentOwnerLookup evita importar el paquete documents (rompe ciclos).
// Un documento inexistente se informa con un error que envuelva ErrDocumentNotFound.
type DocumentOwnerLookup interface {
	OwnerOf(ctx context.Context, documentID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, owners DocumentOwnerLookup) {
	r.Get("/documents/{docID}/audit", listEventsHandler(svc, owners))
}

// eventResponse es una entrada del historial de un documento.
type eventResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Action     string    `json:"action"`
	ActorID    *string   `json:"actor_id"`
	Detail     string    `json:"detail"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
}

// listEventsHandler godoc
// @Summary Historial de auditoría de un documento
// @Description Lista los eventos del documento en orden cronológico ascendente. Solo el dueño puede verlo. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod). Admite paginación con `after` (id del último evento leído) y `limit`.
// @Tags audit
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Param after query string false "ID del último evento ya leído"
// @Param limit query int false "Máximo de eventos (1-200). Sin valor devuelve todo"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "invalid limit"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Failure 500 {string} string "internal error"
// @Router /documents/{docID}/audit [get]
func listEventsHandler(svc *Service, owners DocumentOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		docID := chi.URLParam(r, "docID")

		ownerID, err := owners.OwnerOf(r.Context(), docID)
		switch {
		case errors.Is(err, ErrDocumentNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		case strings.TrimSpace(ownerID) == "":
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		if ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > maxPageSize {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.ListPage(r.Context(), docID, r.URL.Query().Get("after"), limit)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toEventResponse(e Event) eventResponse {
	return eventResponse{
		ID:         e.ID,
		DocumentID: e.DocumentID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		Detail:     e.Detail,
		IPAddress:  e.Origin,
		CreatedAt:  e.CreatedAt,
	}
}

// writeJSON está duplicado intencionalmente en cada paquete de dominio.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
