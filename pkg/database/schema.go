package database

import (
	"context"
	_ "embed"
	"strings"

	errs "todo-bulk-update/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates the tables if missing. Used by integration tests and
// local setups; production schemas are managed outside this service.
func (db *DB) ApplySchema(ctx context.Context) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return errs.NewDB("database.ApplySchema", "failed to apply schema", err)
		}
	}
	return nil
}

// Truncate empties every table. Test helper.
func (db *DB) Truncate(ctx context.Context) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	for _, table := range []string{"sessions", "todos", "users"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errs.NewDB("database.Truncate", "failed to clear "+table, err)
		}
	}
	return nil
}
