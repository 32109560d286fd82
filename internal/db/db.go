package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	DB *sqlx.DB

	driverName = "postgres"
)

// RetryPolicy controls how often Init tries to reach the database.
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
}

var DefaultRetry = RetryPolicy{Attempts: 10, Interval: 2 * time.Second}

// Init opens a PostgreSQL connection and assigns it to DB. It keeps trying
// per retry while the database comes up, and gives up early when ctx ends.
func Init(ctx context.Context, databaseURL string, retry RetryPolicy) error {
	if retry.Attempts <= 0 {
		retry = DefaultRetry
	}

	var err error
	for attempt := 1; attempt <= retry.Attempts; attempt++ {
		var conn *sqlx.DB
		conn, err = sqlx.ConnectContext(ctx, driverName, databaseURL)
		if err == nil {
			DB = conn
			log.Info().Int("attempt", attempt).Msg("[db] connected to database")
			return nil
		}
		if attempt == retry.Attempts {
			break
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("[db] failed to connect to database, retrying in %s", retry.Interval)

		select {
		case <-ctx.Done():
			return fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(retry.Interval):
		}
	}

	return fmt.Errorf("could not connect to database after %d attempts: %w", retry.Attempts, err)
}

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// RunMigrations applies the “*.up.sql” files in migrationsPath that are not
// yet listed in schema_migrations, in name order. Each file runs in its own
// transaction together with its bookkeeping row. “*.down.sql” files are
// ignored.
func RunMigrations(ctx context.Context, migrationsPath string) error {
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	if len(files) == 0 {
		return nil
	}
	sort.Strings(files)

	if _, err := DB.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	var names []string
	if err := DB.SelectContext(ctx, &names, `SELECT name FROM schema_migrations`); err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(names))
	for _, n := range names {
		applied[n] = true
	}

	for _, file := range files {
		name := filepath.Base(file)
		if applied[name] {
			continue
		}
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", name, err)
		}
		if strings.TrimSpace(string(sqlBytes)) == "" {
			continue
		}
		if err := applyMigration(ctx, name, string(sqlBytes)); err != nil {
			return err
		}
		log.Info().Str("file", name).Msg("[db] migration applied")
	}
	return nil
}

func applyMigration(ctx context.Context, name, stmt string) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("error executing migration %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %q: %w", name, err)
	}
	return tx.Commit()
}
