// Package accesslogs persists audit events in PostgreSQL and aggregates them.
package accesslogs

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/ShubhamGupta2412/vaultboard/internal/dbx"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

// valueCasts types each VALUES column so parameters are not inferred as text.
var valueCasts = []string{"::uuid", "::uuid", "::uuid", "::text", "::text", "::text", "::timestamptz"}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Write inserts logs in one statement. Events for entries that no longer
// exist are skipped so a delete racing its own audit event does not fail
// the whole batch.
func (r *PostgresRepository) Write(ctx context.Context, logs []models.AccessLog) error {
	if len(logs) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args = make([]any, 0, len(logs)*7)
	)
	sb.WriteString(`INSERT INTO access_logs (id, entry_id, principal_id, action, origin, client, created_at)
		SELECT v.id, v.entry_id, v.principal_id, v.action, v.origin, v.client, v.created_at
		FROM (VALUES `)
	for i, l := range logs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		sb.WriteString("(")
		for j, cast := range valueCasts {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(base+j+1) + cast)
		}
		sb.WriteString(")")

		var principal sql.NullString
		if l.PrincipalID != nil {
			principal = sql.NullString{String: *l.PrincipalID, Valid: true}
		}
		args = append(args, l.ID, l.EntryID, principal, string(l.Action), l.Origin, l.Client, l.CreatedAt)
	}
	sb.WriteString(`) AS v (id, entry_id, principal_id, action, origin, client, created_at)
		WHERE EXISTS (SELECT 1 FROM entries e WHERE e.id = v.entry_id)`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Stats(ctx context.Context, entryID string) (models.AccessStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE action = 'view'),
			COUNT(*) FILTER (WHERE action = 'create'),
			COUNT(*) FILTER (WHERE action = 'update'),
			COUNT(*) FILTER (WHERE action = 'delete'),
			COUNT(*) FILTER (WHERE action = 'export'),
			COUNT(DISTINCT principal_id),
			MAX(created_at)
		FROM access_logs
		WHERE entry_id = $1`

	var (
		st                                   = models.AccessStats{EntryID: entryID}
		view, create, update, remove, export int
		last                                 sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, entryID).Scan(
		&st.Total, &view, &create, &update, &remove, &export, &st.DistinctPrincipals, &last,
	)
	if err != nil {
		return models.AccessStats{}, fmt.Errorf("db error: %w", err)
	}

	st.ByAction = map[models.AuditAction]int{
		models.AuditView:   view,
		models.AuditCreate: create,
		models.AuditUpdate: update,
		models.AuditDelete: remove,
		models.AuditExport: export,
	}
	if last.Valid {
		t := last.Time
		st.LastAccessAt = &t
	}
	return st, nil
}

func (r *PostgresRepository) Recent(ctx context.Context, entryID string, limit int) ([]models.AccessLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entry_id, principal_id, action, origin, client, created_at
		FROM access_logs
		WHERE entry_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`, entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.AccessLog, 0, limit)
	for rows.Next() {
		var (
			l         models.AccessLog
			principal sql.NullString
			action    string
		)
		if err := rows.Scan(&l.ID, &l.EntryID, &principal, &action, &l.Origin, &l.Client, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Action = models.AuditAction(action)
		if principal.Valid {
			p := principal.String
			l.PrincipalID = &p
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
