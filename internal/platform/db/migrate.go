package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used by goose
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found in fsys.
func Migrate(ctx context.Context, dsn string, fsys fs.FS, logger *slog.Logger) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("platform/db: open migration conn: %w", err)
	}
	defer conn.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, conn, fsys)
	if err != nil {
		return fmt.Errorf("platform/db: goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("platform/db: goose up: %w", err)
	}
	if logger != nil {
		for _, res := range results {
			logger.Info("migration applied", slog.String("source", res.Source.Path), slog.Duration("duration", res.Duration))
		}
	}
	return nil
}
