package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docsign/internal/domain/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, e audit.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, document_id,
			action, actor_id,
			detail, origin,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		e.ID,
		e.DocumentID,
		e.Action,
		e.ActorID,
		e.Detail,
		e.Origin,
		e.CreatedAt,
	)
	return err
}

// ListByDocument ordena por created_at y seq (orden de inserción) como desempate.
func (r *AuditRepo) ListByDocument(ctx context.Context, documentID string, filter audit.ListFilter) ([]audit.Event, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return []audit.Event{}, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT id, document_id, action, actor_id, detail, origin, created_at
		FROM audit_events
		WHERE document_id = $1
	`)

	args := []any{documentID}
	argN := 2

	// cursor desconocido => la subconsulta da NULL y no hay filas.
	if strings.TrimSpace(filter.After) != "" {
		sb.WriteString(fmt.Sprintf(` AND (created_at, seq) > (
			SELECT created_at, seq FROM audit_events WHERE id = $%d AND document_id = $1
		)`, argN))
		args = append(args, strings.TrimSpace(filter.After))
		argN++
	}

	sb.WriteString(" ORDER BY created_at ASC, seq ASC")
	if filter.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Event, 0)
	for rows.Next() {
		var e audit.Event
		var actor sql.NullString
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Action, &actor, &e.Detail, &e.Origin, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			e.ActorID = &actor.String
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
