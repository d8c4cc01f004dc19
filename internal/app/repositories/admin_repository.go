package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/deptcms/portal/internal/app/models"
	"github.com/deptcms/portal/internal/pkg/apperrors"
	"github.com/deptcms/portal/internal/pkg/dberrors"
	"github.com/deptcms/portal/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository handles admin account persistence
type AdminRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAdminRepository creates a new AdminRepository
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByEmail loads an admin by email
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	sql, args, err := r.sb.Select("id", "email", "password_hash", "name", "created_at").
		From("admins").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get admin query: %w", err)
	}

	admin := &models.Admin{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("admin not found")
		}
		logger.Error().Err(err).Msg("Error scanning admin row")
		return nil, fmt.Errorf("error getting admin by email: %w", err)
	}

	return admin, nil
}

// Create inserts a new admin and fills in its id
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	sql, args, err := r.sb.Insert("admins").
		Columns("email", "password_hash", "name").
		Values(admin.Email, admin.PasswordHash, admin.Name).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create admin query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&admin.ID, &admin.CreatedAt); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return fmt.Errorf("%w: admin %s", apperrors.ErrResourceAlreadyExists, admin.Email)
		}
		logger.Error().Err(err).Msg("Error executing create admin query")
		return fmt.Errorf("error creating admin: %w", err)
	}

	return nil
}
