package db

import (
	"context"
	"log/slog"

	"hrmgate/internal/domain/accounts"
	"hrmgate/internal/platform/config"
)

// Seed creates the configured demo accounts that do not exist yet.
func Seed(ctx context.Context, svc *accounts.Service, cfg config.SeedConfig) error {
	seeds := accounts.DemoAccounts(cfg.AdminEmail, cfg.HREmail, cfg.ManagerEmail, cfg.EmployeeEmail)
	if cfg.DemoPassword == "" {
		slog.InfoContext(ctx, "seed skipped, DEMO_PASSWORD not set")
		return nil
	}
	created, err := svc.Seed(ctx, seeds, cfg.DemoPassword)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "seed complete", "created", created)
	return nil
}
