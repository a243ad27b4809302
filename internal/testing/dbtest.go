package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"todo-bulk-update/pkg/database"
)

// DBTest provides a real DB connection for integration tests with helpers for isolation.
// It uses DATABASE_URL_TEST if set, otherwise DATABASE_URL. Tests are skipped if missing.
type DBTest struct {
	T   *testing.T
	DB  *database.DB
	SQL *sql.DB
}

// NewDBTest connects, applies the schema and empties the tables. The
// connection is closed through t.Cleanup.
func NewDBTest(t *testing.T) *DBTest {
	t.Helper()
	url := os.Getenv("DATABASE_URL_TEST")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("DATABASE_URL_TEST or DATABASE_URL not set; skipping integration tests")
	}
	db, err := database.New(url)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	d := &DBTest{T: t, DB: db, SQL: db.Conn()}
	t.Cleanup(d.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.ApplySchema(ctx); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	d.Truncate()
	return d
}

func (d *DBTest) Close() {
	_ = d.DB.Close()
}

// Truncate wipes every table.
func (d *DBTest) Truncate() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.DB.Truncate(ctx); err != nil {
		d.T.Fatalf("truncate: %v", err)
	}
}

// WithTx runs fn inside a transaction and rolls back by default.
func (d *DBTest) WithTx(fn func(tx *sql.Tx)) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		d.T.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback()
	fn(tx)
}
