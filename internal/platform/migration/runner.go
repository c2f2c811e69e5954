// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package migration applies the SQL files under data/migrations with golang-migrate.

The unique indexes on username and email are created here. Registration
relies on them as the authoritative duplicate check, so the server refuses
to start until every migration has applied.
*/
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "pgx5" database scheme.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// Registers the "file" source scheme.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

/*
RunUp brings the schema to the latest version.

Parameters:
  - dsn: string (postgres:// URL)
  - dir: string (migrations directory, relative or absolute)
  - verbose: bool (forward golang-migrate step output at debug level)
  - logger: *slog.Logger

Returns:
  - error: Initialization failure, dirty schema, or a failed step
*/
func RunUp(dsn, dir string, verbose bool, logger *slog.Logger) error {
	source, err := sourceURL(dir)
	if err != nil {
		return err
	}

	migrator, err := migrate.New(source, databaseURL(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = &slogAdapter{logger: logger, verbose: verbose}

	from, err := version(migrator)
	if err != nil {
		return err
	}

	switch err := migrator.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migration_up_to_date", slog.Uint64("version", uint64(from)))
		return nil
	case err != nil:
		return fmt.Errorf("migration: up from version %d failed: %w", from, err)
	}

	to, err := version(migrator)
	if err != nil {
		return err
	}
	logger.Info("migration_applied",
		slog.Uint64("from_version", uint64(from)),
		slog.Uint64("to_version", uint64(to)),
	)
	return nil
}

// version returns the applied version, treating an empty schema as 0.
// A dirty schema needs manual repair and is reported as an error.
func version(migrator *migrate.Migrate) (uint, error) {
	current, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migration: failed to read version: %w", err)
	}
	if dirty {
		return current, fmt.Errorf("migration: schema is dirty at version %d", current)
	}
	return current, nil
}

func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := migrator.Close()
	if err := errors.Join(sourceErr, databaseErr); err != nil {
		logger.Warn("migration_close_failed", slog.Any("error", err))
	}
}

// sourceURL turns a directory into a file:// source URL.
func sourceURL(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("migration: directory is empty")
	}
	if strings.HasPrefix(dir, "file://") {
		return dir, nil
	}
	return "file://" + filepath.ToSlash(filepath.Clean(dir)), nil
}

// databaseURL rewrites postgres:// URLs to the pgx5:// scheme the driver registers.
func databaseURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// slogAdapter implements migrate.Logger.
type slogAdapter struct {
	logger  *slog.Logger
	verbose bool
}

func (adapter *slogAdapter) Printf(format string, args ...any) {
	adapter.logger.Debug("migration_step", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, args...))))
}

func (adapter *slogAdapter) Verbose() bool {
	return adapter.verbose
}
