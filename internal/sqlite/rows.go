package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/purchase/pkg/contract"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

// Insert adds one row to table and returns the engine-assigned row id.
// Column names must belong to the table and values must match the column
// types (ErrInvalidData otherwise). On any failure the returned id is
// types.InvalidRowID; engine rejections wrap types.ErrInsertFailed.
func (b *Backend) Insert(table string, values types.Values) (int64, error) {
	entry, ok := contract.Lookup(table)
	if !ok {
		return types.InvalidRowID, types.ErrTableNotFound
	}
	if len(values) == 0 {
		return types.InvalidRowID, types.ErrInvalidData
	}
	cols, err := sortedColumns(entry, values)
	if err != nil {
		return types.InvalidRowID, err
	}

	args := make([]any, len(cols))
	for i, c := range cols {
		kind := columnKinds[entry.Table][c]
		if !kind.accepts(values[c]) {
			return types.InvalidRowID, fmt.Errorf("%w: %s.%s: %T is not %s", types.ErrInvalidData, entry.Table, c, values[c], kind)
		}
		args[i] = values[c]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		entry.Table, strings.Join(cols, ", "), placeholders(len(cols)))

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return types.InvalidRowID, types.ErrClosed
	}

	res, err := b.db.Exec(query, args...)
	if err != nil {
		return types.InvalidRowID, fmt.Errorf("%w: %s: %w", types.ErrInsertFailed, entry.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.InvalidRowID, fmt.Errorf("%w: %s: reading row id: %w", types.ErrInsertFailed, entry.Table, err)
	}
	return id, nil
}

// Query returns every column of the rows in table matching all filter
// values, ordered by row id. An empty filter returns every row.
func (b *Backend) Query(table string, filter types.Values) ([]types.Values, error) {
	entry, ok := contract.Lookup(table)
	if !ok {
		return nil, types.ErrTableNotFound
	}
	where, args, err := whereClause(entry, filter)
	if err != nil {
		return nil, err
	}
	columns := entry.Columns()
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(columns, ", "), entry.Table, where, contract.ColumnID)

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return nil, types.ErrClosed
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", entry.Table, err)
	}
	defer rows.Close()

	var out []types.Values
	for rows.Next() {
		v, err := scanValues(rows, columns)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", entry.Table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying %s: %w", entry.Table, err)
	}
	return out, nil
}

// Delete removes the row with the given id. Rows in other tables that refer
// to it are left alone unless foreign_keys is enabled, in which case the
// engine rejects the delete.
func (b *Backend) Delete(table string, id int64) error {
	entry, ok := contract.Lookup(table)
	if !ok {
		return types.ErrTableNotFound
	}
	if id <= 0 {
		return types.ErrInvalidID
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return types.ErrClosed
	}

	res, err := b.db.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", entry.Table, contract.ColumnID), id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", entry.Table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", entry.Table, id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Tables returns the names of the user tables in the database. Engine
// bookkeeping tables (sqlite_ prefix) are excluded.
func (b *Backend) Tables() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return nil, types.ErrClosed
	}

	rows, err := b.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Columns returns the column names of table in declaration order, as
// reported by the engine.
func (b *Backend) Columns(table string) ([]string, error) {
	entry, ok := contract.Lookup(table)
	if !ok {
		return nil, types.ErrTableNotFound
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return nil, types.ErrClosed
	}

	rows, err := b.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", entry.Table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", entry.Table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid      int
			name     string
			ctype    string
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defValue, &pk); err != nil {
			return nil, fmt.Errorf("scanning table info %s: %w", entry.Table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, types.ErrTableNotFound
	}
	return cols, nil
}

// sortedColumns checks every key against the entry and returns them sorted so
// generated SQL is stable.
func sortedColumns(entry contract.Entry, values types.Values) ([]string, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		if !entry.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s.%s", types.ErrUnknownColumn, entry.Table, c)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols, nil
}

func whereClause(entry contract.Entry, filter types.Values) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	cols, err := sortedColumns(entry, filter)
	if err != nil {
		return "", nil, err
	}
	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		conds[i] = c + " = ?"
		args[i] = filter[c]
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// scanValues reads one row into a Values map keyed by cols. Text that the
// driver returns as []byte is converted to string.
func scanValues(rows *sql.Rows, cols []string) (types.Values, error) {
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	v := make(types.Values, len(cols))
	for i, c := range cols {
		if b, ok := raw[i].([]byte); ok {
			v[c] = string(b)
			continue
		}
		v[c] = raw[i]
	}
	return v, nil
}
