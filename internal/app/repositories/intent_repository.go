package repositories

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/deptcms/portal/internal/attachment"
	"github.com/deptcms/portal/internal/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxStoredErrorLength = 2000

// IntentRepository persists attachment cleanup intents. It implements
// attachment.IntentStore.
type IntentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

var _ attachment.IntentStore = (*IntentRepository)(nil)

// NewIntentRepository creates a new IntentRepository
func NewIntentRepository(db *pgxpool.Pool) *IntentRepository {
	return &IntentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Record stores a new pending intent
func (r *IntentRepository) Record(ctx context.Context, intent attachment.CleanupIntent) error {
	sql, args, err := r.sb.Insert("attachment_cleanup_intents").
		Columns("file_id", "owner_kind", "owner_id", "reason", "last_error").
		Values(intent.FileID, intent.OwnerKind, intent.OwnerID, intent.Reason, truncate(intent.LastError)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build record intent query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("fileID", intent.FileID).Msg("Error recording cleanup intent")
		return fmt.Errorf("error recording cleanup intent: %w", err)
	}
	return nil
}

// Pending returns unresolved intents below maxAttempts, oldest first
func (r *IntentRepository) Pending(ctx context.Context, limit, maxAttempts int) ([]attachment.CleanupIntent, error) {
	sql, args, err := r.sb.Select("id", "file_id", "owner_kind", "owner_id", "reason", "attempts", "last_error", "created_at", "updated_at").
		From("attachment_cleanup_intents").
		Where(squirrel.Eq{"resolved_at": nil}).
		Where(squirrel.Lt{"attempts": maxAttempts}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending intents query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying pending cleanup intents")
		return nil, fmt.Errorf("error querying pending cleanup intents: %w", err)
	}
	defer rows.Close()

	var intents []attachment.CleanupIntent
	for rows.Next() {
		var in attachment.CleanupIntent
		if err := rows.Scan(&in.ID, &in.FileID, &in.OwnerKind, &in.OwnerID, &in.Reason, &in.Attempts, &in.LastError, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning cleanup intent: %w", err)
		}
		intents = append(intents, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cleanup intents: %w", err)
	}

	return intents, nil
}

// Resolve marks an intent done
func (r *IntentRepository) Resolve(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("attachment_cleanup_intents").
		Set("resolved_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build resolve intent query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error resolving cleanup intent %d: %w", id, err)
	}
	return nil
}

// MarkFailed counts a failed attempt and keeps its error
func (r *IntentRepository) MarkFailed(ctx context.Context, id int64, cause error) error {
	sql, args, err := r.sb.Update("attachment_cleanup_intents").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", truncate(cause.Error())).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark intent failed query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error updating cleanup intent %d: %w", id, err)
	}
	return nil
}

// truncate caps s at maxStoredErrorLength bytes without splitting a rune
func truncate(s string) string {
	if len(s) <= maxStoredErrorLength {
		return s
	}
	n := maxStoredErrorLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
