package database

import (
	"context"
	"database/sql"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
)

func (db *DB) GetUserCtx(ctx context.Context, id string) (*domain.User, error) {
	return db.getUser(ctx, "database.GetUserCtx",
		`SELECT id, username, password_hash FROM users WHERE id = ?`, id)
}

func (db *DB) GetUserByUsernameCtx(ctx context.Context, username string) (*domain.User, error) {
	return db.getUser(ctx, "database.GetUserByUsernameCtx",
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username)
}

func (db *DB) getUser(ctx context.Context, op, query string, arg string) (*domain.User, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var u domain.User
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errs.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDB(op, "failed to load user", err)
	}
	return &u, nil
}

// CreateUserCtx inserts u. A username collision is reported as an
// authentication error so sign-up races surface like the pre-check.
func (db *DB) CreateUserCtx(ctx context.Context, u domain.User) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash)
	if isDuplicateKey(err) {
		return errs.NewAuthentication("database.CreateUserCtx", "Username taken")
	}
	if err != nil {
		return errs.NewDB("database.CreateUserCtx", "failed to insert user", err)
	}
	return nil
}

func (db *DB) CreateSessionCtx(ctx context.Context, s domain.Session) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`,
		s.ID, s.UserID, s.ExpiresAt.UTC(),
	); err != nil {
		return errs.NewDB("database.CreateSessionCtx", "failed to insert session", err)
	}
	return nil
}

func (db *DB) GetSessionCtx(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var s domain.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.ExpiresAt)
	if errs.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDB("database.GetSessionCtx", "failed to load session", err)
	}
	return &s, nil
}

func (db *DB) DeleteSessionCtx(ctx context.Context, id string) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return errs.NewDB("database.DeleteSessionCtx", "failed to delete session", err)
	}
	return nil
}
