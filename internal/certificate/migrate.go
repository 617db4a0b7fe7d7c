package certificate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations for dialect ("postgres" or "sqlite").
func Migrate(ctx context.Context, logger *zap.Logger, db *sql.DB, dialect string) error {
	var (
		gooseDialect goose.Dialect
		dir          string
	)
	switch dialect {
	case "postgres":
		gooseDialect, dir = goose.DialectPostgres, "migrations/postgres"
	case "sqlite", "sqlite3":
		gooseDialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("Applied migration",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration))
	}
	return nil
}
