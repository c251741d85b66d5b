// ABOUTME: Schema management through embedded goose migrations.
// ABOUTME: The same SQL files serve both the sqlite and postgres dialects.
package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func (d *DB) migrationProvider() (*goose.Provider, error) {
	dialect := goose.DialectSQLite3
	if d.dialect == DialectPostgres {
		dialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, d.db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}

// migrate applies any pending migrations.
func (d *DB) migrate() error {
	provider, err := d.migrationProvider()
	if err != nil {
		return err
	}
	if _, err := provider.Up(context.Background()); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration version.
func (d *DB) SchemaVersion() (int64, error) {
	provider, err := d.migrationProvider()
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(context.Background())
}
