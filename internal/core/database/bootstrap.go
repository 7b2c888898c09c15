package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

const schemaVersion = 1

// EnsureBootstrapped applies scripts/initdb.sql when the recorded schema version is behind schemaVersion.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	applied, err := appliedVersion(ctx, db)
	if err != nil {
		return err
	}
	if applied >= schemaVersion {
		log.Printf("[DEBUG] fixpress schema v%d present", applied)
		return nil
	}

	script, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read bootstrap script: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bootstrap: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("apply schema v%d: %w", schemaVersion, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema v%d: %w", schemaVersion, err)
	}

	log.Printf("[INFO] fixpress schema upgraded v%d -> v%d", applied, schemaVersion)
	return nil
}

// appliedVersion returns 0 on a fresh database.
func appliedVersion(ctx context.Context, db *sql.DB) (int, error) {
	var table sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT to_regclass('fixpress_meta')::text`).Scan(&table); err != nil {
		return 0, fmt.Errorf("lookup meta table: %w", err)
	}
	if !table.Valid {
		return 0, nil
	}

	var v int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM fixpress_meta`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
