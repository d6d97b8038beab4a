package signatures

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"docsign/internal/domain/documents"
	"docsign/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const maxSignatureBody = 2 << 20

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/signatures", func(sr chi.Router) {
		sr.Post("/", saveSignatureHandler(svc))
		sr.Get("/", listSignaturesHandler(svc))
	})
}

type saveSignatureRequest struct {
	DocumentID    string  `json:"document_id"` // opcional
	SignatureData string  `json:"signature_data"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Page          int     `json:"page"`
}

type signatureResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	DocumentID    string    `json:"document_id,omitempty"`
	SignatureData string    `json:"signature_data"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	Page          int       `json:"page"`
	Status        string    `json:"status"`
	IPAddress     string    `json:"ip_address"`
	SignedAt      time.Time `json:"signed_at"`
}

// saveSignatureHandler godoc
// @Summary Guardar una firma
// @Description Guarda una firma (data URI PNG o JPEG) para reutilizarla. Si se indica `document_id`, el usuario debe poder ver ese documento.
// @Tags signatures
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param body body saveSignatureRequest true "Firma"
// @Success 201 {object} signatureResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /signatures [post]
func saveSignatureHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req saveSignatureRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSignatureBody)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sig, err := svc.Save(r.Context(), SaveInput{
			UserID:     claims.UserID,
			Email:      claims.Email,
			DocumentID: req.DocumentID,
			Data:       req.SignatureData,
			X:          req.X,
			Y:          req.Y,
			Page:       req.Page,
			Origin:     middleware.ClientIP(r),
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			documents.WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSignatureResponse(sig))
	}
}

// listSignaturesHandler godoc
// @Summary Mis firmas guardadas
// @Description Lista las firmas del usuario autenticado, más recientes primero.
// @Tags signatures
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} signatureResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /signatures [get]
func listSignaturesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]signatureResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toSignatureResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toSignatureResponse(s Signature) signatureResponse {
	return signatureResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		DocumentID:    s.DocumentID,
		SignatureData: s.Data,
		X:             s.X,
		Y:             s.Y,
		Page:          s.Page,
		Status:        s.Status,
		IPAddress:     s.Origin,
		SignedAt:      s.SignedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
