package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docsign/internal/domain/annotations"
	"docsign/internal/domain/documents"
)

type DocumentsRepo struct {
	db *sql.DB
}

func NewDocumentsRepo(db *sql.DB) *DocumentsRepo {
	return &DocumentsRepo{db: db}
}

// grantRow / annotationRow son la forma JSONB de las columnas shared_with y signature_config.
type grantRow struct {
	Email      string `json:"email"`
	Permission string `json:"permission"`
}

type annotationRow struct {
	Type    string  `json:"type"`
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Page    int     `json:"page"`
}

const documentColumns = `
	id, file_name,
	original_id, original_url,
	signed_id, signed_url,
	status, owner_user_id,
	shared_with, signature_config,
	pages, version,
	created_at, updated_at`

func (r *DocumentsRepo) Create(ctx context.Context, d documents.Document) error {
	shared, cfg, err := encodeDocumentJSON(d)
	if err != nil {
		return err
	}
	signedID, signedURL := signedColumns(d)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		d.ID,
		d.FileName,
		d.Original.ID,
		d.Original.URL,
		signedID,
		signedURL,
		string(d.Status),
		d.OwnerUserID,
		shared,
		cfg,
		d.Pages,
		d.Version,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return err
}

// Update es optimista: sólo escribe si la versión guardada coincide con d.Version.
func (r *DocumentsRepo) Update(ctx context.Context, d documents.Document) (documents.Document, error) {
	shared, cfg, err := encodeDocumentJSON(d)
	if err != nil {
		return documents.Document{}, err
	}
	signedID, signedURL := signedColumns(d)

	row := r.db.QueryRowContext(ctx, `
		UPDATE documents SET
			file_name = $3,
			signed_id = $4,
			signed_url = $5,
			status = $6,
			shared_with = $7,
			signature_config = $8,
			pages = $9,
			updated_at = $10,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING `+documentColumns,
		d.ID,
		d.Version,
		d.FileName,
		signedID,
		signedURL,
		string(d.Status),
		shared,
		cfg,
		d.Pages,
		d.UpdatedAt,
	)

	out, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		// 0 filas: o no existe o alguien escribió antes.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, d.ID).Scan(&exists); err != nil {
			return documents.Document{}, err
		}
		if exists {
			return documents.Document{}, documents.ErrConflict
		}
		return documents.Document{}, documents.ErrNotFound
	}
	return out, err
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return documents.Document{}, documents.ErrNotFound
	}

	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return documents.Document{}, documents.ErrNotFound
	}
	return d, err
}

func (r *DocumentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return documents.ErrNotFound
	}
	return nil
}

func (r *DocumentsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]documents.Document, error) {
	return r.list(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE owner_user_id = $1
		ORDER BY created_at DESC, id ASC
	`, ownerUserID)
}

// ListSharedWith usa contención JSONB; los emails se guardan normalizados.
func (r *DocumentsRepo) ListSharedWith(ctx context.Context, email string) ([]documents.Document, error) {
	probe, err := json.Marshal([]map[string]string{{"email": documents.NormalizeEmail(email)}})
	if err != nil {
		return nil, err
	}
	return r.list(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE shared_with @> $1::jsonb
		ORDER BY created_at DESC, id ASC
	`, string(probe))
}

func (r *DocumentsRepo) list(ctx context.Context, query string, args ...any) ([]documents.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]documents.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (documents.Document, error) {
	var d documents.Document
	var signedID, signedURL, cfg sql.NullString
	var status, shared string

	if err := s.Scan(
		&d.ID,
		&d.FileName,
		&d.Original.ID,
		&d.Original.URL,
		&signedID,
		&signedURL,
		&status,
		&d.OwnerUserID,
		&shared,
		&cfg,
		&d.Pages,
		&d.Version,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return documents.Document{}, err
	}

	d.Status = documents.Status(status)
	if signedID.Valid {
		d.Signed = &documents.Blob{ID: signedID.String, URL: signedURL.String}
	}

	var grants []grantRow
	if err := json.Unmarshal([]byte(shared), &grants); err != nil {
		return documents.Document{}, fmt.Errorf("decode shared_with: %w", err)
	}
	for _, g := range grants {
		d.SharedWith = append(d.SharedWith, documents.Grant{Email: g.Email, Permission: documents.Permission(g.Permission)})
	}

	if cfg.Valid && cfg.String != "" && cfg.String != "null" {
		var a annotationRow
		if err := json.Unmarshal([]byte(cfg.String), &a); err != nil {
			return documents.Document{}, fmt.Errorf("decode signature_config: %w", err)
		}
		d.SignatureConfig = &annotations.Annotation{
			Kind:    annotations.Kind(a.Type),
			Content: a.Content,
			X:       a.X,
			Y:       a.Y,
			Page:    a.Page,
		}
	}

	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func encodeDocumentJSON(d documents.Document) (string, *string, error) {
	grants := make([]grantRow, 0, len(d.SharedWith))
	for _, g := range d.SharedWith {
		grants = append(grants, grantRow{Email: documents.NormalizeEmail(g.Email), Permission: string(g.Permission)})
	}
	shared, err := json.Marshal(grants)
	if err != nil {
		return "", nil, fmt.Errorf("encode shared_with: %w", err)
	}

	if d.SignatureConfig == nil {
		return string(shared), nil, nil
	}
	a := d.SignatureConfig
	raw, err := json.Marshal(annotationRow{Type: string(a.Kind), Content: a.Content, X: a.X, Y: a.Y, Page: a.Page})
	if err != nil {
		return "", nil, fmt.Errorf("encode signature_config: %w", err)
	}
	cfg := string(raw)
	return string(shared), &cfg, nil
}

func signedColumns(d documents.Document) (*string, *string) {
	if d.Signed == nil {
		return nil, nil
	}
	return &d.Signed.ID, &d.Signed.URL
}
