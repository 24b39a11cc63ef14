// Package entries provides the PostgreSQL-backed entry store.
package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/dbx"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

const columns = `id, owner_id, title, content, category, classification, tags, is_sensitive,
	expiration_date, created_at, updated_at, last_accessed_at,
	file_key, file_name, file_content_type, file_size`

var sortColumns = map[models.SortField]string{
	models.SortUpdatedAt:  "updated_at",
	models.SortCreatedAt:  "created_at",
	models.SortTitle:      "title",
	models.SortExpiration: "expiration_date",
}

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) error {
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entries (id, owner_id, title, content, category, classification, tags, is_sensitive, expiration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		e.ID, e.OwnerID, e.Title, e.Content, string(e.Category), string(e.Classification),
		tags, e.IsSensitive, nullTime(e.ExpirationDate),
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown owner", common.ErrorValidation)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Update rewrites the mutable columns and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, e *models.Entry) error {
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE entries SET
			title = $2, content = $3, category = $4, classification = $5,
			tags = $6::jsonb, is_sensitive = $7, expiration_date = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.QueryRowContext(ctx, query,
		e.ID, e.Title, e.Content, string(e.Category), string(e.Classification),
		tags, e.IsSensitive, nullTime(e.ExpirationDate),
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the entry; its access logs go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE entries SET last_accessed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) SetFile(ctx context.Context, id string, f *models.FileRef) error {
	var key, name, ctype sql.NullString
	var size sql.NullInt64
	if f != nil {
		key = sql.NullString{String: f.Key, Valid: true}
		name = sql.NullString{String: f.Name, Valid: true}
		ctype = sql.NullString{String: f.ContentType, Valid: true}
		size = sql.NullInt64{Int64: f.Size, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE entries SET file_key = $2, file_name = $3, file_content_type = $4, file_size = $5, updated_at = now()
		WHERE id = $1`, id, key, name, ctype, size)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// List returns one page of entries matching q and the total match count.
func (r *PostgresRepository) List(ctx context.Context, q models.ListQuery) ([]*models.Entry, int, error) {
	where, args := buildWhere(q)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	page := q.Page.Normalize()
	args = append(args, page.Size, page.Offset())
	query := `SELECT ` + columns + ` FROM entries WHERE ` + where +
		` ORDER BY ` + orderBy(q.Sort) +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0, page.Size)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM entries
		WHERE expiration_date IS NOT NULL AND expiration_date <= $1
		ORDER BY expiration_date, id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expiring entries: %w", err)
	}
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// buildWhere renders the scope and filter as a SQL predicate with $n
// placeholders. The scope clause mirrors access.InScope.
func buildWhere(q models.ListQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	visible := "FALSE"
	if len(q.Scope.Classifications) > 0 {
		ph := make([]string, 0, len(q.Scope.Classifications))
		for _, c := range q.Scope.Classifications {
			ph = append(ph, arg(string(c)))
		}
		visible = "classification IN (" + strings.Join(ph, ", ") + ")"
		if !q.Scope.IncludeSensitive {
			visible += " AND NOT is_sensitive"
		}
	}
	if q.Scope.OwnerID != "" {
		clauses = append(clauses, "(owner_id = "+arg(q.Scope.OwnerID)+" OR ("+visible+"))")
	} else {
		clauses = append(clauses, "("+visible+")")
	}

	f := q.Filter
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		clauses = append(clauses, "(title ILIKE "+p+" OR tags::text ILIKE "+p+")")
	}
	if f.Category != "" {
		clauses = append(clauses, "category = "+arg(string(f.Category)))
	}
	if f.Classification != "" {
		clauses = append(clauses, "classification = "+arg(string(f.Classification)))
	}
	if f.Tag != "" {
		clauses = append(clauses, "tags ? "+arg(f.Tag))
	}
	if f.OwnerID != "" {
		clauses = append(clauses, "owner_id = "+arg(f.OwnerID))
	}

	return strings.Join(clauses, " AND "), args
}

func orderBy(s models.Sort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "updated_at"
		s.Desc = true
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return col + " " + dir + " NULLS LAST, id ASC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e                    models.Entry
		category, class      string
		tags                 []byte
		expiration, accessed sql.NullTime
		fileKey, name, ctype sql.NullString
		size                 sql.NullInt64
	)
	if err := s.Scan(
		&e.ID, &e.OwnerID, &e.Title, &e.Content, &category, &class, &tags, &e.IsSensitive,
		&expiration, &e.CreatedAt, &e.UpdatedAt, &accessed,
		&fileKey, &name, &ctype, &size,
	); err != nil {
		return nil, err
	}

	e.Category = models.Category(category)
	e.Classification = models.Classification(class)
	e.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &e.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", e.ID, err)
		}
	}
	if expiration.Valid {
		t := expiration.Time
		e.ExpirationDate = &t
	}
	if accessed.Valid {
		t := accessed.Time
		e.LastAccessedAt = &t
	}
	if fileKey.Valid {
		e.File = &models.FileRef{Key: fileKey.String, Name: name.String, ContentType: ctype.String, Size: size.Int64}
	}
	return &e, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
