package seed

import (
	"context"
	"fmt"

	"github.com/deptcms/portal/internal/config"
	"github.com/rs/zerolog"
)

// AdminSeeder creates an admin account when it is missing.
// *services.AuthService implements it.
type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, email, password, name string) (bool, error)
}

// CreateDefaultAdmin makes sure the admin configured under admin.* exists.
// Nothing happens when no admin email is configured.
func CreateDefaultAdmin(ctx context.Context, seeder AdminSeeder, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Admin.Email == "" {
		lgr.Info().Msg("No admin account configured, skipping admin seed")
		return nil
	}

	created, err := seeder.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name)
	if err != nil {
		return fmt.Errorf("failed to seed admin %s: %w", cfg.Admin.Email, err)
	}

	if created {
		lgr.Info().Str("email", cfg.Admin.Email).Msg("Default admin account created")
	} else {
		lgr.Debug().Str("email", cfg.Admin.Email).Msg("Default admin account already present")
	}
	return nil
}
