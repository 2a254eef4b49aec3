package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// schemaStep is one forward change to the schema. Steps are numbered from 1
// with no gaps; the database records the last applied number in
// PRAGMA user_version.
type schemaStep struct {
	Version int
	Name    string
	SQL     string
}

// loadSchemaSteps reads the embedded NNNN_name.sql files in version order.
func loadSchemaSteps() ([]schemaStep, error) {
	entries, err := fs.ReadDir(schemaFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading schema steps: %w", err)
	}

	steps := make([]schemaStep, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, err := parseStepName(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("schema step %q: %w", entry.Name(), err)
		}
		content, err := fs.ReadFile(schemaFS, "migrations/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		steps = append(steps, schemaStep{Version: version, Name: name, SQL: string(content)})
	}

	slices.SortFunc(steps, func(a, b schemaStep) int { return a.Version - b.Version })
	for i, step := range steps {
		if step.Version != i+1 {
			return nil, fmt.Errorf("schema step %04d out of sequence, expected %04d", step.Version, i+1)
		}
	}
	return steps, nil
}

// parseStepName splits "0002_kv_store_updated_at.sql" into 2 and
// "kv_store_updated_at".
func parseStepName(filename string) (int, string, error) {
	base, ok := strings.CutSuffix(filename, ".sql")
	if !ok {
		return 0, "", fmt.Errorf("expected .sql suffix")
	}
	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("expected NNNN_name.sql")
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("version %q is not a positive integer", num)
	}
	return version, name, nil
}

// SchemaVersion reports the last schema step applied to the database.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, db.conn)
}

func schemaVersion(ctx context.Context, q DBTX) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// upgrade applies the steps newer than the database's schema version, each
// in its own transaction together with the version bump. A database written
// by a newer build is refused rather than guessed at.
func (db *DB) upgrade(ctx context.Context) error {
	steps, err := loadSchemaSteps()
	if err != nil {
		return err
	}

	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > len(steps) {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", current, len(steps))
	}

	for _, step := range steps[current:] {
		log.Debug().Int("version", step.Version).Str("name", step.Name).Msg("applying schema step")
		err := db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
				return err
			}
			// PRAGMA takes no bind parameters
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step.Version))
			return err
		})
		if err != nil {
			return fmt.Errorf("schema step %04d (%s): %w", step.Version, step.Name, err)
		}
	}
	return nil
}
