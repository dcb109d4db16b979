package migrations

import (
	"context"
	"fmt"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations collects every schema migration of the store. Each file registers itself
// from init, named <timestamp>_<description>.go.
var Migrations = migrate.NewMigrations()

// Runner applies and reverts Migrations against one database.
type Runner struct {
	logger   *gecho.Logger
	migrator *migrate.Migrator
}

func NewRunner(logger *gecho.Logger, db *bun.DB) *Runner {
	return &Runner{
		logger:   logger,
		migrator: migrate.NewMigrator(db, Migrations),
	}
}

func (r *Runner) init(ctx context.Context) error {
	if err := r.migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	return nil
}

// Migrate applies all pending migrations as one group. It returns the number applied.
func (r *Runner) Migrate(ctx context.Context) (int, error) {
	if err := r.init(ctx); err != nil {
		return 0, err
	}
	if err := r.migrator.Lock(ctx); err != nil {
		return 0, fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer r.unlock(ctx)

	group, err := r.migrator.Migrate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if group.IsZero() {
		r.logger.Info("No pending migrations")
		return 0, nil
	}

	r.logger.Info("Migrations applied",
		gecho.Field("group", group.ID),
		gecho.Field("count", len(group.Migrations)),
	)
	return len(group.Migrations), nil
}

// Rollback reverts the most recently applied group. It returns the number reverted.
func (r *Runner) Rollback(ctx context.Context) (int, error) {
	if err := r.init(ctx); err != nil {
		return 0, err
	}
	if err := r.migrator.Lock(ctx); err != nil {
		return 0, fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer r.unlock(ctx)

	group, err := r.migrator.Rollback(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to roll back migrations: %w", err)
	}
	if group.IsZero() {
		r.logger.Warn("No migrations to roll back")
		return 0, nil
	}

	r.logger.Info("Migrations rolled back",
		gecho.Field("group", group.ID),
		gecho.Field("count", len(group.Migrations)),
	)
	return len(group.Migrations), nil
}

// Status describes one known migration.
type Status struct {
	Name    string // timestamp prefix of the migration file
	Comment string
	Applied bool
	GroupID int64
}

// Status lists every registered migration in order with whether it has been applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.init(ctx); err != nil {
		return nil, err
	}

	ms, err := r.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]Status, 0, len(ms))
	for _, m := range ms {
		out = append(out, Status{Name: m.Name, Comment: m.Comment, Applied: m.IsApplied(), GroupID: m.GroupID})
	}
	return out, nil
}

func (r *Runner) unlock(ctx context.Context) {
	if err := r.migrator.Unlock(ctx); err != nil {
		r.logger.Error("Failed to unlock migrations", gecho.Field("error", err))
	}
}
