package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration that has not been recorded in
// schema_migrations, in file name order, inside a single transaction.
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	var applied []string
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		applied, err = applyMigrations(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func applyMigrations(ctx context.Context, tx bun.Tx) ([]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	if _, err := tx.NewRaw(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`).Exec(ctx); err != nil {
		return nil, err
	}

	var applied []string
	for _, f := range files {
		var exists bool
		if err := tx.NewRaw(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = ?)`, f).Scan(ctx, &exists); err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		b, err := migrationFS.ReadFile("migrations/" + f)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			return nil, fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.NewRaw(`INSERT INTO schema_migrations (version) VALUES (?)`, f).Exec(ctx); err != nil {
			return nil, err
		}
		applied = append(applied, f)
	}
	return applied, nil
}
