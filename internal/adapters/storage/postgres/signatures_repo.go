package postgres

import (
	"context"
	"database/sql"

	"docsign/internal/domain/signatures"
)

type SignaturesRepo struct {
	db *sql.DB
}

func NewSignaturesRepo(db *sql.DB) *SignaturesRepo {
	return &SignaturesRepo{db: db}
}

func (r *SignaturesRepo) Create(ctx context.Context, s signatures.Signature) error {
	var docID *string
	if s.DocumentID != "" {
		docID = &s.DocumentID
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signatures (
			id, user_id, document_id,
			data, x, y, page,
			status, origin, signed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		s.ID,
		s.UserID,
		docID,
		s.Data,
		s.X,
		s.Y,
		s.Page,
		s.Status,
		s.Origin,
		s.SignedAt,
	)
	return err
}

func (r *SignaturesRepo) ListByUser(ctx context.Context, userID string) ([]signatures.Signature, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, document_id, data, x, y, page, status, origin, signed_at
		FROM signatures
		WHERE user_id = $1
		ORDER BY signed_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]signatures.Signature, 0)
	for rows.Next() {
		var s signatures.Signature
		var docID sql.NullString
		if err := rows.Scan(&s.ID, &s.UserID, &docID, &s.Data, &s.X, &s.Y, &s.Page, &s.Status, &s.Origin, &s.SignedAt); err != nil {
			return nil, err
		}
		s.DocumentID = docID.String
		s.SignedAt = s.SignedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
