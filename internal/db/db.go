// Package db persists the kiosk's durable state in sqlite: the product
// catalog with prices, the count-event audit trail, and checkout
// sessions. Schema lifecycle is handled by golang-migrate over an
// embedded migrations directory so a single binary can initialise or
// upgrade any database it is pointed at.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationsFS returns the embedded migrations as a filesystem rooted at
// the migration files.
func MigrationsFS() (fs.FS, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return sub, nil
}

type DB struct {
	*sql.DB
}

// OpenDB opens the sqlite database without touching the schema. Used by
// the migrate subcommand, which manages the schema itself.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serialises writes; a single connection avoids
	// SQLITE_BUSY under concurrent handler and frame-loop writes.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &DB{sqlDB}, nil
}

// NewDB opens the database and brings the schema to the latest version.
func NewDB(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	migrationsFS, err := MigrationsFS()
	if err != nil {
		database.Close()
		return nil, err
	}
	if err := database.MigrateUp(migrationsFS); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}
