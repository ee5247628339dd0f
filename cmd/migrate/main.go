// Command migrate manages the socialseed database schema via goose.
//
// Usage:
//
//	migrate up                 apply all pending migrations
//	migrate down               roll back the most recent migration
//	migrate status             show applied and pending migrations
//	migrate version            print the current schema version
//	migrate up-to <version>    migrate up to a specific version
//	migrate down-to <version>  migrate down to a specific version
//
// DATABASE_URL must point at the target PostgreSQL instance.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: migrate <up|down|status|version|redo|up-to|down-to> [args]")
	}
	command, args := os.Args[1], os.Args[2:]

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := goose.RunContext(context.Background(), command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}
