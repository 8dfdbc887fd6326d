// Package migrations holds the embedded database schema and applies it.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"

	"github.com/golang-migrate/migrate/v4/source"
)

//go:embed sql/*.sql
var files embed.FS

// Apply runs every up migration in order against db. Statements are written
// to be idempotent so Apply is safe to call at startup.
func Apply(ctx context.Context, db *sql.DB) error {
	entries, err := files.ReadDir("sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if parsed, err := source.DefaultParse(entry.Name()); err == nil && parsed.Direction == source.Up {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := files.ReadFile("sql/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Source exposes the embedded migrations for the migrate CLI tooling.
func Source() (embed.FS, string) {
	return files, "sql"
}
