package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/dberrors"
	"github.com/deptcms/portal/internal/pkg/helpers"
	"github.com/deptcms/portal/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema maps a content type onto its table. Columns, Values and Targets list
// the data columns in the same order; bookkeeping columns are handled by the
// repository.
type Schema[T any] struct {
	Kind    string
	Table   string
	Columns []string
	Values  func(*T) []interface{}
	Targets func(*T) []interface{}
	Base    func(*T) *models.Record
	// OrderBy clauses applied before the id tiebreaker
	OrderBy []string
	// Filters maps accepted list query parameters to text-valued column
	// expressions; non-text columns need a ::text cast
	Filters map[string]string
}

// ListParams selects one page of a list
type ListParams struct {
	Page    int
	Size    int
	Filters map[string]string
}

// ResourceRepository implements CRUD with optimistic versioning for one Schema
type ResourceRepository[T any] struct {
	db     *pgxpool.Pool
	sb     squirrel.StatementBuilderType
	schema Schema[T]
}

// NewResourceRepository creates a repository for schema
func NewResourceRepository[T any](db *pgxpool.Pool, schema Schema[T]) *ResourceRepository[T] {
	return &ResourceRepository[T]{
		db:     db,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		schema: schema,
	}
}

// Schema returns the table mapping the repository was built with
func (r *ResourceRepository[T]) Schema() Schema[T] {
	return r.schema
}

func (r *ResourceRepository[T]) selectColumns() []string {
	cols := make([]string, 0, len(r.schema.Columns)+4)
	cols = append(cols, "id", "version", "created_at", "updated_at")
	return append(cols, r.schema.Columns...)
}

func (r *ResourceRepository[T]) scanTargets(rec *T) []interface{} {
	base := r.schema.Base(rec)
	targets := []interface{}{&base.ID, &base.Version, &base.CreatedAt, &base.UpdatedAt}
	return append(targets, r.schema.Targets(rec)...)
}

// Create inserts rec and fills in its id, version and timestamps
func (r *ResourceRepository[T]) Create(ctx context.Context, rec *T) error {
	sql, args, err := r.sb.Insert(r.schema.Table).
		Columns(r.schema.Columns...).
		Values(r.schema.Values(rec)...).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error building insert SQL")
		return fmt.Errorf("failed to build create %s query: %w", r.schema.Kind, err)
	}

	base := r.schema.Base(rec)
	err = r.db.QueryRow(ctx, sql, args...).Scan(&base.ID, &base.Version, &base.CreatedAt, &base.UpdatedAt)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrResourceAlreadyExists, r.schema.Kind)
		}
		logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error executing insert")
		return fmt.Errorf("error creating %s: %w", r.schema.Kind, err)
	}

	return nil
}

// GetByID loads one record
func (r *ResourceRepository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	sql, args, err := r.sb.Select(r.selectColumns()...).
		From(r.schema.Table).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error building get by ID SQL")
		return nil, fmt.Errorf("failed to build get %s query: %w", r.schema.Kind, err)
	}

	rec := new(T)
	if err := r.db.QueryRow(ctx, sql, args...).Scan(r.scanTargets(rec)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.notFound(id)
		}
		logger.Error().Err(err).Str("table", r.schema.Table).Int64("id", id).Msg("Error scanning row")
		return nil, fmt.Errorf("error getting %s by ID: %w", r.schema.Kind, err)
	}

	return rec, nil
}

// List returns one page of records matching the recognised filters, plus the
// total number of matches. Unknown filter keys are ignored.
func (r *ResourceRepository[T]) List(ctx context.Context, params ListParams) ([]*T, int64, error) {
	where := squirrel.Eq{}
	for key, value := range params.Filters {
		if column, ok := r.schema.Filters[key]; ok && value != "" {
			where[column] = value
		}
	}

	countQuery := r.sb.Select("COUNT(*)").From(r.schema.Table)
	listQuery := r.sb.Select(r.selectColumns()...).From(r.schema.Table)
	if len(where) > 0 {
		countQuery = countQuery.Where(where)
		listQuery = listQuery.Where(where)
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count %s query: %w", r.schema.Kind, err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error counting rows")
		return nil, 0, fmt.Errorf("error counting %s: %w", r.schema.Kind, err)
	}

	offset, limit := helpers.CalculateOffsetLimit(params.Page, params.Size)
	orderBy := append(append([]string{}, r.schema.OrderBy...), "id DESC")
	sql, args, err := listQuery.OrderBy(orderBy...).Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list %s query: %w", r.schema.Kind, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error executing list query")
		return nil, 0, fmt.Errorf("error querying %s: %w", r.schema.Kind, err)
	}
	defer rows.Close()

	items := make([]*T, 0, limit)
	for rows.Next() {
		rec := new(T)
		if err := rows.Scan(r.scanTargets(rec)...); err != nil {
			logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error scanning row during list")
			return nil, 0, fmt.Errorf("error scanning %s row: %w", r.schema.Kind, err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating %s rows: %w", r.schema.Kind, err)
	}

	return items, total, nil
}

// Update writes rec if its Version still matches the stored one, then bumps
// the version. A stale version yields apperrors.ErrConflict.
func (r *ResourceRepository[T]) Update(ctx context.Context, rec *T) error {
	base := r.schema.Base(rec)

	set := make(map[string]interface{}, len(r.schema.Columns)+2)
	values := r.schema.Values(rec)
	for i, column := range r.schema.Columns {
		set[column] = values[i]
	}
	set["version"] = squirrel.Expr("version + 1")
	set["updated_at"] = squirrel.Expr("NOW()")

	sql, args, err := r.sb.Update(r.schema.Table).
		SetMap(set).
		Where(squirrel.Eq{"id": base.ID, "version": base.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error building update SQL")
		return fmt.Errorf("failed to build update %s query: %w", r.schema.Kind, err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&base.Version, &base.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missingOrStale(ctx, base.ID)
		}
		if dberrors.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrResourceAlreadyExists, r.schema.Kind)
		}
		logger.Error().Err(err).Str("table", r.schema.Table).Int64("id", base.ID).Msg("Error executing update")
		return fmt.Errorf("error updating %s: %w", r.schema.Kind, err)
	}

	return nil
}

// Delete removes the record if version still matches
func (r *ResourceRepository[T]) Delete(ctx context.Context, id int64, version int) error {
	sql, args, err := r.sb.Delete(r.schema.Table).
		Where(squirrel.Eq{"id": id, "version": version}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", r.schema.Table).Msg("Error building delete SQL")
		return fmt.Errorf("failed to build delete %s query: %w", r.schema.Kind, err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", r.schema.Table).Int64("id", id).Msg("Error executing delete")
		return fmt.Errorf("error deleting %s: %w", r.schema.Kind, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

// missingOrStale tells a vanished row from a version mismatch after a
// conditional write matched nothing
func (r *ResourceRepository[T]) missingOrStale(ctx context.Context, id int64) error {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", r.schema.Table)
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("error checking %s existence: %w", r.schema.Kind, err)
	}
	if !exists {
		return r.notFound(id)
	}
	return apperrors.NewConflictError(fmt.Sprintf("%s %d was modified by another request, reload and retry", r.schema.Kind, id))
}

func (r *ResourceRepository[T]) notFound(id int64) error {
	return apperrors.NewResourceNotFoundError(fmt.Sprintf("%s %d not found", r.schema.Kind, id))
}

// storedReference is the JSONB shape of an attachment reference
type storedReference struct {
	FileID string `json:"fileId,omitempty"`
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
}

// refValue encodes an attachment slot for a JSONB column; nil becomes NULL
func refValue(ref *attachment.Reference) interface{} {
	if ref == nil {
		return nil
	}
	return storedReference{FileID: ref.FileID, URL: ref.URL, Name: ref.Name}
}
