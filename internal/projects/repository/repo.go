package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

// ProjectRepository persists projects with their schemas and rules.
type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a project with its schema fields and validation rules in
// one transaction and returns the assigned id.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
insert into datos.proyecto_validaciones (nombre_proyecto, nombre_tabla, usuario_modificacion, fecha_creacion, fecha_actualizacion)
values ($1, $2, $3, now(), now())
returning id;
`
	var id int64
	err = tx.QueryRow(ctx, q, p.Name, p.TableName, p.ModifiedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("project %q: %w", p.Name, domain.ErrDuplicateProject)
		}
		return 0, fmt.Errorf("insert project: %w", err)
	}

	if err := insertFields(ctx, tx, id, p.Schema); err != nil {
		return 0, err
	}
	if err := insertRules(ctx, tx, id, p.Rules); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetByID fetches a project with its schema fields and validation rules.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `
select id, nombre_proyecto, nombre_tabla, usuario_modificacion, fecha_creacion, fecha_actualizacion
from datos.proyecto_validaciones
where id = $1;
`
	var (
		p                    domain.Project
		createdAt, updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.TableName, &p.ModifiedBy, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}
	p.CreatedBy = p.ModifiedBy
	p.CreatedAt = createdAt.Format(time.RFC3339)
	p.UpdatedAt = updatedAt.Format(time.RFC3339)

	if p.Schema, err = r.fieldsFor(ctx, id); err != nil {
		return nil, err
	}
	if p.Rules, err = r.rulesFor(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all projects with their schemas and rules attached.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	const q = `
select id, nombre_proyecto, nombre_tabla, usuario_modificacion, fecha_creacion, fecha_actualizacion
from datos.proyecto_validaciones
order by fecha_creacion desc;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var (
			p                    domain.Project
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.TableName, &p.ModifiedBy, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedBy = p.ModifiedBy
		p.CreatedAt = createdAt.Format(time.RFC3339)
		p.UpdatedAt = updatedAt.Format(time.RFC3339)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Schema, err = r.fieldsFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Rules, err = r.rulesFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update replaces a project's editable fields, schema and rules.
func (r *ProjectRepository) Update(ctx context.Context, id int64, p *domain.Project) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
update datos.proyecto_validaciones
set nombre_proyecto = $2, usuario_modificacion = $3, fecha_actualizacion = now()
where id = $1;
`
	ct, err := tx.Exec(ctx, q, id, p.Name, p.ModifiedBy)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}

	if _, err := tx.Exec(ctx, `delete from datos.proyecto_esquemas where proyecto_id = $1;`, id); err != nil {
		return fmt.Errorf("clear fields: %w", err)
	}
	if _, err := tx.Exec(ctx, `delete from datos.validaciones_campos where proyecto_id = $1;`, id); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}

	if err := insertFields(ctx, tx, id, p.Schema); err != nil {
		return err
	}
	if err := insertRules(ctx, tx, id, p.Rules); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteMany removes the given projects and their dependent rows. Missing
// ids fail the whole batch.
func (r *ProjectRepository) DeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("no project ids given")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range ids {
		ct, err := tx.Exec(ctx, `delete from datos.proyecto_validaciones where id = $1;`, id)
		if err != nil {
			return fmt.Errorf("delete project %d: %w", id, err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("project %d: %w", id, domain.ErrProjectNotFound)
		}
	}

	return tx.Commit(ctx)
}

func (r *ProjectRepository) fieldsFor(ctx context.Context, projectID int64) ([]domain.FieldDefinition, error) {
	const q = `
select campo_nombre, tipo_dato, requerido, longitud_maxima, valores_permitidos, es_clave_primaria, es_unico, extras
from datos.proyecto_esquemas
where proyecto_id = $1
order by id;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("select fields: %w", err)
	}
	defer rows.Close()

	out := make([]domain.FieldDefinition, 0, 8)
	for rows.Next() {
		var (
			f              domain.FieldDefinition
			values, extras []byte
		)
		if err := rows.Scan(&f.Name, &f.DataType, &f.Required, &f.MaxLength, &values, &f.IsPrimaryKey, &f.IsUnique, &extras); err != nil {
			return nil, err
		}
		if len(values) > 0 {
			if err := json.Unmarshal(values, &f.AllowedValues); err != nil {
				return nil, fmt.Errorf("decode allowed values: %w", err)
			}
		}
		if len(extras) > 0 {
			if err := json.Unmarshal(extras, &f.Extras); err != nil {
				return nil, fmt.Errorf("decode extras: %w", err)
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) rulesFor(ctx context.Context, projectID int64) ([]domain.ValidationRule, error) {
	const q = `
select campo_nombre, nombre_regla, mensaje_error, valor
from datos.validaciones_campos
where proyecto_id = $1
order by id;
`
	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("select rules: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ValidationRule, 0, 8)
	for rows.Next() {
		var (
			rule   domain.ValidationRule
			params []byte
		)
		if err := rows.Scan(&rule.FieldName, &rule.RuleName, &rule.ErrorMessage, &params); err != nil {
			return nil, err
		}
		rule.Params = map[string]any{}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rule.Params); err != nil {
				return nil, fmt.Errorf("decode rule params: %w", err)
			}
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func insertFields(ctx context.Context, tx pgx.Tx, projectID int64, fields []domain.FieldDefinition) error {
	const q = `
insert into datos.proyecto_esquemas (proyecto_id, campo_nombre, tipo_dato, requerido, longitud_maxima, valores_permitidos, es_clave_primaria, es_unico, extras)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	for _, f := range fields {
		values, err := marshalOrNil(f.AllowedValues)
		if err != nil {
			return fmt.Errorf("encode allowed values: %w", err)
		}
		extras, err := marshalOrNil(f.Extras)
		if err != nil {
			return fmt.Errorf("encode extras: %w", err)
		}
		if _, err := tx.Exec(ctx, q, projectID, f.Name, f.DataType, f.Required, f.MaxLength, values, f.IsPrimaryKey, f.IsUnique, extras); err != nil {
			return fmt.Errorf("insert field %q: %w", f.Name, err)
		}
	}
	return nil
}

func insertRules(ctx context.Context, tx pgx.Tx, projectID int64, rules []domain.ValidationRule) error {
	const q = `
insert into datos.validaciones_campos (proyecto_id, campo_nombre, nombre_regla, mensaje_error, valor)
values ($1, $2, $3, $4, $5);
`
	for _, rule := range rules {
		params, err := marshalOrNil(rule.Params)
		if err != nil {
			return fmt.Errorf("encode rule params: %w", err)
		}
		if _, err := tx.Exec(ctx, q, projectID, rule.FieldName, rule.RuleName, rule.ErrorMessage, params); err != nil {
			return fmt.Errorf("insert rule %q: %w", rule.RuleName, err)
		}
	}
	return nil
}

func marshalOrNil(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		if t == nil {
			return nil, nil
		}
	case map[string]any:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
