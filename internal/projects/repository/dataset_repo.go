package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

// DatasetRepository manages the per-project data tables under the datos
// schema. Table and column names come from user-defined schemas, so every
// identifier is quoted and DDL is built at runtime over database/sql.
type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// TableExists reports whether a data table already exists.
func (r *DatasetRepository) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `
select exists (
    select from information_schema.tables
    where table_schema = 'datos'
    and table_name = $1
);
`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, strings.ToLower(table)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %q: %w", table, err)
	}
	return exists, nil
}

// CreateTable creates the data table for a project schema.
func (r *DatasetRepository) CreateTable(ctx context.Context, table string, fields []domain.FieldDefinition) error {
	columns := make([]string, 0, len(fields)+1)
	columns = append(columns, "id SERIAL PRIMARY KEY")
	for _, f := range fields {
		columns = append(columns, fmt.Sprintf("%s %s", pq.QuoteIdentifier(f.Name), sqlType(f.DataType)))
	}

	ddl := fmt.Sprintf("CREATE TABLE datos.%s (%s);", pq.QuoteIdentifier(strings.ToLower(table)), strings.Join(columns, ", "))
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %q: %w", table, err)
	}
	return nil
}

// ReplaceRows clears the data table and loads the given rows. Values arrive
// as CSV cells, one slice per row in header order.
func (r *DatasetRepository) ReplaceRows(ctx context.Context, table string, headers []string, rows [][]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	qualified := "datos." + pq.QuoteIdentifier(strings.ToLower(table))
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s;", qualified)); err != nil {
		return fmt.Errorf("clear table %q: %w", table, err)
	}

	quoted := make([]string, len(headers))
	params := make([]string, len(headers))
	for i, h := range headers {
		quoted[i] = pq.QuoteIdentifier(h)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		qualified, strings.Join(quoted, ", "), strings.Join(params, ", "))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := make([]any, len(row))
		for j, cell := range row {
			args[j] = cell
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// FetchRows reads the data table back for display.
func (r *DatasetRepository) FetchRows(ctx context.Context, table string) ([]map[string]any, error) {
	exists, err := r.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrTableNotFound
	}

	query := fmt.Sprintf("SELECT * FROM datos.%s;", pq.QuoteIdentifier(strings.ToLower(table)))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select from %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, 32)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// sqlType maps a schema data type to its SQL column type.
func sqlType(dataType string) string {
	switch dataType {
	case domain.TypeInteger:
		return "INTEGER"
	case domain.TypeVarchar:
		return "VARCHAR(255)"
	case domain.TypeDate:
		return "DATE"
	case domain.TypeNumber:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
