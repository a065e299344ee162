// Package records is the storage side of the user-scoped CRUD gate.
// Every statement filters by user_id in addition to whatever row-level
// security the database enforces, and every identifier is checked against a
// static allowlist before it is interpolated into SQL.
package records

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/contentdex/contentdex/internal/domain"
)

// dbtx is the consumer interface over the pgx pool (ISP).
type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo implements usecase/records.Repository over Postgres.
type Repo struct {
	db     dbtx
	schema Schema
}

// New creates a records repository over the given schema allowlist.
func New(db dbtx, schema Schema) *Repo {
	return &Repo{db: db, schema: schema}
}

// Select returns rows owned by userID, narrowed by allowlisted filters.
func (r *Repo) Select(ctx context.Context, table, userID string, filters map[string]any) ([]map[string]any, error) {
	query, args, err := r.buildSelect(table, userID, filters)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect %s rows: %w", table, err)
	}
	return out, nil
}

// Insert creates a row owned by userID. Any id/user_id in data is ignored;
// ownership always comes from the authenticated identity.
func (r *Repo) Insert(ctx context.Context, table, userID string, data map[string]any) (map[string]any, error) {
	query, args, err := r.buildInsert(table, userID, data)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect inserted %s row: %w", table, err)
	}
	return row, nil
}

// Update modifies the row matching both id and user_id.
func (r *Repo) Update(ctx context.Context, table, userID, id string, data map[string]any) (map[string]any, error) {
	query, args, err := r.buildUpdate(table, userID, id, data)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update %s %s: %w", table, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("collect updated %s row: %w", table, err)
	}
	return row, nil
}

// Delete removes the row matching both id and user_id.
func (r *Repo) Delete(ctx context.Context, table, userID, id string) error {
	if _, err := r.tableFor(table); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, table), id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s %s: %w", table, id, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) tableFor(name string) (Table, error) {
	t, ok := r.schema[name]
	if !ok {
		return Table{}, fmt.Errorf("table %q: %w", name, domain.ErrUnknownTable)
	}
	return t, nil
}

// stripOwnership copies a payload without its ownership fields. Ownership
// always comes from the authenticated identity, and the caller's map must
// stay untouched.
func stripOwnership(data map[string]any) map[string]any {
	fields := make(map[string]any, len(data))
	for name, value := range data {
		if name == "user_id" || name == "id" {
			continue
		}
		fields[name] = value
	}
	return fields
}

// checkColumns validates caller-supplied column names against the allowlist.
func checkColumns(t Table, table string, m map[string]any) ([]string, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		if _, ok := t.Columns[name]; !ok {
			return nil, fmt.Errorf("column %q on %s: %w", name, table, domain.ErrUnknownColumn)
		}
		names = append(names, name)
	}
	sort.Strings(names) // deterministic statements
	return names, nil
}

func (r *Repo) buildSelect(table, userID string, filters map[string]any) (string, []any, error) {
	t, err := r.tableFor(table)
	if err != nil {
		return "", nil, err
	}
	names, err := checkColumns(t, table, filters)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE user_id = $1`, table)
	args := []any{userID}
	for _, name := range names {
		args = append(args, filters[name])
		query += fmt.Sprintf(` AND %s = $%d`, name, len(args))
	}
	return query, args, nil
}

func (r *Repo) buildInsert(table, userID string, data map[string]any) (string, []any, error) {
	t, err := r.tableFor(table)
	if err != nil {
		return "", nil, err
	}
	fields := stripOwnership(data)

	names, err := checkColumns(t, table, fields)
	if err != nil {
		return "", nil, err
	}

	columns := "user_id"
	placeholders := "$1"
	args := []any{userID}
	for _, name := range names {
		args = append(args, fields[name])
		columns += ", " + name
		placeholders += fmt.Sprintf(", $%d", len(args))
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING *`, table, columns, placeholders)
	return query, args, nil
}

func (r *Repo) buildUpdate(table, userID, id string, data map[string]any) (string, []any, error) {
	t, err := r.tableFor(table)
	if err != nil {
		return "", nil, err
	}
	fields := stripOwnership(data)

	names, err := checkColumns(t, table, fields)
	if err != nil {
		return "", nil, err
	}
	if len(names) == 0 {
		return "", nil, fmt.Errorf("update %s with no columns: %w", table, domain.ErrInvalidParameters)
	}

	args := []any{id, userID}
	set := ""
	for _, name := range names {
		args = append(args, fields[name])
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", name, len(args))
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 AND user_id = $2 RETURNING *`, table, set)
	return query, args, nil
}
