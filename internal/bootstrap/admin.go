// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/taxsim/internal"
	"github.com/dukerupert/taxsim/internal/auth"
	"github.com/dukerupert/taxsim/internal/domain"
)

// EnsureAdmin creates the initial administrator if it doesn't exist.
// It is safe to call on every startup.
//
// An empty username or password skips creation with a warning, so a fresh
// memory store in development can run without credentials.
func EnsureAdmin(ctx context.Context, users domain.UserRepository, cfg internal.AdminConfig, logger *slog.Logger) error {
	if cfg.Username == "" || cfg.Password == "" {
		logger.Warn("bootstrap: skipping admin creation - ADMIN_USERNAME or ADMIN_PASSWORD not set",
			"hint", "Set these environment variables to create an administrator on first startup",
		)
		return nil
	}

	existing, err := users.GetByUsername(ctx, cfg.Username)
	if err == nil {
		logger.Info("bootstrap: admin user already exists",
			"username", existing.Username,
			"role", existing.Role,
		)
		return nil
	}
	if !domain.IsCode(err, domain.ENOTFOUND) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("invalid admin configuration: %w", err)
	}

	user := &domain.User{
		Username:     cfg.Username,
		PasswordHash: hash,
		Role:         domain.RoleAdministrator,
	}
	if err := users.Create(ctx, user); err != nil {
		// Another replica won the race.
		if domain.IsCode(err, domain.ECONFLICT) {
			logger.Info("bootstrap: admin user already exists (concurrent creation)", "username", cfg.Username)
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("bootstrap: admin user created successfully",
		"username", user.Username,
		"user_id", user.ID,
	)
	return nil
}
