package sharing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"docsign/internal/domain/documents"
	"docsign/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	maxShareBody     = 64 << 10
	maxGuestSignBody = 2 << 20
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Dueño: invitar por email
	r.Post("/documents/{docID}/share", shareDocumentHandler(svc))

	// Acceso por link (sin cuenta)
	r.Route("/public/{token}", func(pr chi.Router) {
		pr.Get("/", getSharedDocumentHandler(svc))
		pr.Post("/sign", guestSignHandler(svc))
	})
}

type shareRequest struct {
	Email      string               `json:"email"`
	Permission documents.Permission `json:"permission" enums:"view,edit"` // opcional, default view
	Message    string               `json:"message"`
}

type shareResponse struct {
	Message   string `json:"message"`
	Link      string `json:"link"`
	EmailSent bool   `json:"email_sent"`
}

// publicDocumentResponse es la vista restringida de un documento compartido.
type publicDocumentResponse struct {
	ID         string               `json:"id"`
	FileName   string               `json:"file_name"`
	Status     documents.Status     `json:"status"`
	FileURL    string               `json:"file_url"`
	Email      string               `json:"email"`
	Permission documents.Permission `json:"permission"`
}

type guestSignResponse struct {
	Message  string                 `json:"message"`
	Document publicDocumentResponse `json:"document"`
}

// shareDocumentHandler godoc
// @Summary Compartir un documento
// @Description Solo el dueño. Agrega o actualiza la invitación del email, genera un link válido por 7 días y envía un correo (best-effort: `email_sent` indica si salió). En modo dev el nombre del remitente llega por `X-Debug-User-Name`.
// @Tags sharing
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Name header string false "Solo en modo dev, nombre del usuario"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Param body body shareRequest true "Invitación"
// @Success 200 {object} shareResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Failure 409 {string} string "document was modified concurrently"
// @Router /documents/{docID}/share [post]
func shareDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req shareRequest
		if !documents.DecodeBody(w, r, maxShareBody, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			http.Error(w, "email required", http.StatusBadRequest)
			return
		}

		res, err := svc.Share(r.Context(), chi.URLParam(r, "docID"),
			Sharer{UserID: claims.UserID, Name: claims.Name, Email: claims.Email},
			ShareInput{
				Email:      req.Email,
				Permission: req.Permission,
				Message:    req.Message,
				Origin:     middleware.ClientIP(r),
			})
		if err != nil {
			documents.WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, shareResponse{
			Message:   "Document shared successfully",
			Link:      res.Link,
			EmailSent: res.EmailSent,
		})
	}
}

// getSharedDocumentHandler godoc
// @Summary Abrir un link compartido
// @Description Devuelve la vista restringida del documento (el PDF firmado si existe, si no el original). No requiere cuenta.
// @Tags sharing
// @Produce json
// @Param token path string true "Token del link"
// @Success 200 {object} publicDocumentResponse
// @Failure 401 {string} string "invalid token"
// @Failure 404 {string} string "document not found"
// @Router /public/{token} [get]
func getSharedDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Resolve(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPublicResponse(v))
	}
}

// guestSignHandler godoc
// @Summary Firmar como invitado
// @Description Firma con una sola anotación en nombre del email del link. Requiere que la invitación tenga permiso `edit`. Texto vacío => "Signed by Guest (<email>)".
// @Tags sharing
// @Accept json
// @Produce json
// @Param token path string true "Token del link"
// @Param body body documents.AnnotationRequest false "Anotación"
// @Success 200 {object} guestSignResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "invalid token"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Failure 409 {string} string "invalid document state"
// @Failure 413 {string} string "request body too large"
// @Failure 502 {string} string "could not fetch source pdf / could not store pdf"
// @Router /public/{token}/sign [post]
func guestSignHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req documents.AnnotationRequest
		if !documents.DecodeBody(w, r, maxGuestSignBody, &req) {
			return
		}

		v, err := svc.SignAsGuest(r.Context(), chi.URLParam(r, "token"), req.Annotation(), middleware.ClientIP(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, guestSignResponse{
			Message:  "Document signed successfully",
			Document: toPublicResponse(v),
		})
	}
}

func toPublicResponse(v PublicView) publicDocumentResponse {
	return publicDocumentResponse{
		ID:         v.ID,
		FileName:   v.FileName,
		Status:     v.Status,
		FileURL:    v.FileURL,
		Email:      v.Email,
		Permission: v.Permission,
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidToken) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	documents.WriteError(w, err)
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
