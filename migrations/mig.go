package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
)

//go:embed files/sqlite/*.sql files/postgres/*.sql
var migrationFS embed.FS

var gooseDialects = map[string]string{
	"sqlite":   "sqlite3",
	"postgres": "postgres",
}

// Up applies every pending migration for dialect ("sqlite" or "postgres").
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	gooseDialect, ok := gooseDialects[dialect]
	if !ok {
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, path.Join("files", dialect)); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
