package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"pagesmith/internal/auth"
	"pagesmith/internal/gateway"
	"pagesmith/internal/models"
	"pagesmith/internal/theme"
)

// DefaultAdminPassword is used when SeedOptions.AdminPassword is empty.
const DefaultAdminPassword = "admin"

// SeedOptions configures the first admin account.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// systemSession is the caller used for seeding.
var systemSession = &gateway.Session{UserID: uuid.Nil, Email: "system", Role: string(models.RoleAdmin), TwoFADone: true}

// Seed populates the store with initial data: a default admin user if no
// user exists and the built-in themes with "light" active. It is safe to
// run repeatedly. The admin will be prompted to set up 2FA on first login
// (totp_enabled = false).
func Seed(ctx context.Context, records gateway.Records, opts SeedOptions) error {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" {
		return errors.New("seed: admin email is required")
	}

	users, err := records.ListRecords(ctx, systemSession, gateway.Users, gateway.Query{Limit: 1})
	if err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if len(users) == 0 {
		password := opts.AdminPassword
		if password == "" {
			password = DefaultAdminPassword
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		admin := &models.User{
			Email:        email,
			PasswordHash: hash,
			DisplayName:  "Admin",
			Role:         models.RoleAdmin,
		}
		if _, err := records.InsertRecord(ctx, systemSession, gateway.Users, admin.Record()); err != nil {
			return fmt.Errorf("seed insert admin: %w", err)
		}
		slog.Info("database seeded with default admin user", "email", email)
	} else {
		slog.Info("users already seeded, skipping admin")
	}

	if _, err := theme.SeedBuiltins(ctx, systemSession, records); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
