package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"docsign/internal/domain/annotations"
	"docsign/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const (
	DefaultMaxUploadBytes = 20 << 20
	multipartMemory       = 8 << 20

	// MaxSignBody limita el JSON de anotaciones (incluye imágenes base64).
	MaxSignBody = 10 << 20
)

var pdfMagic = []byte("%PDF-")

func RegisterRoutes(r chi.Router, svc *Service, maxUploadBytes int64) {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}

	r.Route("/documents", func(dr chi.Router) {
		dr.Post("/", uploadDocumentHandler(svc, maxUploadBytes))
		dr.Get("/", listDocumentsHandler(svc))

		// Compartidos conmigo (por email)
		dr.Get("/shared", listSharedDocumentsHandler(svc))

		dr.Get("/{docID}", getDocumentHandler(svc))
		dr.Delete("/{docID}", deleteDocumentHandler(svc))

		// Firma (dueño o colaborador con edit)
		dr.Post("/{docID}/sign", signDocumentHandler(svc))
		dr.Delete("/{docID}/signatures", resetSignaturesHandler(svc))
		dr.Put("/{docID}/reject", rejectDocumentHandler(svc))
	})
}

// AnnotationRequest es una marca colocada en la UI (origen arriba-izquierda).
type AnnotationRequest struct {
	Type    annotations.Kind `json:"type" enums:"text,image"`
	Content string           `json:"content"` // texto o data URI (image/png, image/jpeg)
	X       float64          `json:"x"`
	Y       float64          `json:"y"`
	Page    int              `json:"page"` // 1-based; 0 => 1
}

func (a AnnotationRequest) Annotation() annotations.Annotation {
	return annotations.Annotation{Kind: a.Type, Content: a.Content, X: a.X, Y: a.Y, Page: a.Page}
}

// positionRequest es el formato legacy (un solo ítem).
type positionRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Page  int     `json:"page"`
	Text  string  `json:"text"`
	Image string  `json:"image"`
}

type signRequest struct {
	Annotations []AnnotationRequest `json:"annotations"`
	Position    *positionRequest    `json:"position"`
}

func (req signRequest) input() annotations.Input {
	in := annotations.Input{}
	for _, a := range req.Annotations {
		in.Annotations = append(in.Annotations, a.Annotation())
	}
	if p := req.Position; p != nil {
		in.Position = &annotations.Position{X: p.X, Y: p.Y, Page: p.Page, Text: p.Text, Image: p.Image}
	}
	return in
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type grantResponse struct {
	Email      string     `json:"email"`
	Permission Permission `json:"permission"`
}

// DocumentResponse es la vista de un documento. shared_with solo se incluye para el dueño.
type DocumentResponse struct {
	ID              string             `json:"id"`
	FileName        string             `json:"file_name"`
	FileURL         string             `json:"file_url"`
	SignedFileURL   *string            `json:"signed_file_url,omitempty"`
	Status          Status             `json:"status"`
	OwnerUserID     string             `json:"owner_user_id"`
	SharedWith      []grantResponse    `json:"shared_with,omitempty"`
	SignatureConfig *AnnotationRequest `json:"signature_config,omitempty"`
	Pages           int                `json:"pages"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// uploadDocumentHandler godoc
// @Summary Subir un PDF
// @Description Sube un PDF (campo multipart `file`) y crea el documento en estado Pending. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param file formData file true "Archivo PDF"
// @Success 201 {object} DocumentResponse
// @Failure 400 {string} string "file must be a PDF"
// @Failure 401 {string} string "unauthorized"
// @Failure 413 {string} string "file too large"
// @Failure 422 {string} string "invalid pdf"
// @Failure 502 {string} string "could not store pdf"
// @Router /documents [post]
func uploadDocumentHandler(svc *Service, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartMemory)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}

		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			http.Error(w, "invalid file", http.StatusBadRequest)
			return
		}
		if int64(len(data)) > maxBytes {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		if !bytes.HasPrefix(data, pdfMagic) {
			http.Error(w, "file must be a PDF", http.StatusBadRequest)
			return
		}

		d, err := svc.Upload(r.Context(), UploadInput{
			OwnerUserID: claims.UserID,
			FileName:    hdr.Filename,
			Data:        data,
			Origin:      middleware.ClientIP(r),
		})
		if err != nil {
			WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToResponse(d, true))
	}
}

// listDocumentsHandler godoc
// @Summary Listar mis documentos
// @Description Lista los documentos del usuario autenticado, más recientes primero.
// @Tags documents
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} DocumentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /documents [get]
func listDocumentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			WriteError(w, err)
			return
		}

		out := make([]DocumentResponse, 0, len(items))
		for _, d := range items {
			out = append(out, ToResponse(d, true))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listSharedDocumentsHandler godoc
// @Summary Documentos compartidos conmigo
// @Description Lista los documentos compartidos con el email del usuario autenticado. En modo dev el email llega por `X-Debug-User-Email`.
// @Tags documents
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Email header string false "Solo en modo dev, email del usuario"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} DocumentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /documents/shared [get]
func listSharedDocumentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		out := make([]DocumentResponse, 0)
		if NormalizeEmail(claims.Email) == "" {
			writeJSON(w, http.StatusOK, out)
			return
		}

		items, err := svc.ListSharedWith(r.Context(), claims.Email)
		if err != nil {
			WriteError(w, err)
			return
		}
		for _, d := range items {
			out = append(out, ToResponse(d, false))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getDocumentHandler godoc
// @Summary Ver un documento
// @Description El dueño o cualquier destinatario (por email) puede verlo.
// @Tags documents
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Email header string false "Solo en modo dev, email del usuario"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Success 200 {object} DocumentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{docID} [get]
func getDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.Get(r.Context(), chi.URLParam(r, "docID"), Viewer{UserID: claims.UserID, Email: claims.Email})
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(d, d.IsOwner(claims.UserID)))
	}
}

// deleteDocumentHandler godoc
// @Summary Borrar un documento
// @Description Solo el dueño. Libera el PDF original y el firmado; el historial de auditoría se conserva.
// @Tags documents
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Router /documents/{docID} [delete]
func deleteDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "docID"), claims.UserID, middleware.ClientIP(r)); err != nil {
			WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// signDocumentHandler godoc
// @Summary Firmar un documento
// @Description Dibuja las anotaciones sobre el PDF original y guarda el resultado como firmado. Acepta `annotations[]` o el formato legacy `position`; sin ninguno produce una copia sin marcas. Puede firmar el dueño o un destinatario con permiso `edit`. Re-firmar reemplaza la firma anterior.
// @Tags documents
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-User-Email header string false "Solo en modo dev, email del usuario"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Param body body signRequest false "Anotaciones"
// @Success 200 {object} DocumentResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Failure 409 {string} string "invalid document state"
// @Failure 413 {string} string "request body too large"
// @Failure 502 {string} string "could not fetch source pdf / could not store pdf"
// @Router /documents/{docID}/sign [post]
func signDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req signRequest
		if !DecodeBody(w, r, MaxSignBody, &req) {
			return
		}

		d, err := svc.Finalize(r.Context(), chi.URLParam(r, "docID"), UserActor(claims.UserID, claims.Email), req.input(), middleware.ClientIP(r))
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(d, d.IsOwner(claims.UserID)))
	}
}

// resetSignaturesHandler godoc
// @Summary Borrar firmas
// @Description Solo el dueño. Vuelve el documento a Pending y libera el PDF firmado. Sobre un documento Pending no cambia nada.
// @Tags documents
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Success 200 {object} DocumentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Failure 409 {string} string "invalid document state"
// @Router /documents/{docID}/signatures [delete]
func resetSignaturesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.Reset(r.Context(), chi.URLParam(r, "docID"), claims.UserID, middleware.ClientIP(r))
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(d, true))
	}
}

// rejectDocumentHandler godoc
// @Summary Rechazar un documento
// @Description Solo el dueño y solo desde Pending. El motivo es opcional.
// @Tags documents
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param docID path string true "ID del documento"
// @Param body body rejectRequest false "Motivo"
// @Success 200 {object} DocumentResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "document not found"
// @Failure 409 {string} string "invalid document state"
// @Router /documents/{docID}/reject [put]
func rejectDocumentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req rejectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.Reject(r.Context(), chi.URLParam(r, "docID"), claims.UserID, req.Reason, middleware.ClientIP(r))
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(d, true))
	}
}

// ToResponse arma la vista JSON; withGrants solo para el dueño.
func ToResponse(d Document, withGrants bool) DocumentResponse {
	out := DocumentResponse{
		ID:          d.ID,
		FileName:    d.FileName,
		FileURL:     d.Original.URL,
		Status:      d.Status,
		OwnerUserID: d.OwnerUserID,
		Pages:       d.Pages,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Signed != nil {
		u := d.Signed.URL
		out.SignedFileURL = &u
	}
	if withGrants {
		out.SharedWith = make([]grantResponse, 0, len(d.SharedWith))
		for _, g := range d.SharedWith {
			out.SharedWith = append(out.SharedWith, grantResponse{Email: g.Email, Permission: g.Permission})
		}
	}
	if a := d.SignatureConfig; a != nil {
		out.SignatureConfig = &AnnotationRequest{Type: a.Kind, Content: a.Content, X: a.X, Y: a.Y, Page: a.Page}
	}
	return out
}

// WriteError traduce errores del dominio a HTTP. Lo reutilizan otros módulos que orquestan documentos.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidPDF):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrSourceFetchFailed):
		http.Error(w, ErrSourceFetchFailed.Error(), http.StatusBadGateway)
	case errors.Is(err, ErrStorageFailure):
		http.Error(w, ErrStorageFailure.Error(), http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// DecodeBody lee un JSON opcional acotado a limit bytes. Escribe la respuesta de error y devuelve false si falla.
func DecodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	http.Error(w, "invalid json", http.StatusBadRequest)
	return false
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
