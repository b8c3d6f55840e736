package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrationDirs maps DB_DRIVER to its directory under the migrations root.
var migrationDirs = map[string]string{
	"postgres": "postgresql",
	"mysql":    "mysql",
}

// MigrateOptions selects what RunMigrations does. Steps zero applies every pending
// migration; a negative value rolls back that many.
type MigrateOptions struct {
	Driver           string
	ConnectionString string
	Dir              string
	Steps            int
}

// RunMigrations migrates the users, doctors, assessments, audit_logs and outbox_events
// schema. Being already up to date is not an error.
func RunMigrations(logger *slog.Logger, opts MigrateOptions) error {
	dir, ok := migrationDirs[opts.Driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if opts.Dir == "" {
		opts.Dir = "migrations"
	}
	source := "file://" + filepath.ToSlash(filepath.Join(opts.Dir, dir))

	m, err := migrate.New(source, opts.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	from := schemaVersion(m)
	logger.Info("running database migrations",
		slog.String("driver", opts.Driver),
		slog.String("source", source),
		slog.Int("steps", opts.Steps),
		slog.Any("from_version", from),
	)

	if opts.Steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(opts.Steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed", slog.Any("version", schemaVersion(m)))
	return nil
}

// schemaVersion returns the applied version, or nil on an empty schema.
func schemaVersion(m *migrate.Migrate) any {
	version, dirty, err := m.Version()
	if err != nil {
		return nil
	}
	if dirty {
		return fmt.Sprintf("%d (dirty)", version)
	}
	return version
}
