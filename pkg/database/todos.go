package database

import (
	"context"
	"database/sql"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
)

// GetTodoTx loads one todo through q. Missing rows return (nil, nil).
// SELECT ... FOR UPDATE keeps concurrent batches from interleaving on the row.
func (db *DB) GetTodoTx(ctx context.Context, q Querier, id int64) (*domain.Todo, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var t domain.Todo
	err := q.QueryRowContext(ctx,
		`SELECT id, owner_id, completed, text FROM todos WHERE id = ? FOR UPDATE`, id,
	).Scan(&t.ID, &t.OwnerID, &t.Completed, &t.Text)
	if errs.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDB("database.GetTodoTx", "failed to load todo", err)
	}
	return &t, nil
}

// InsertTodoTx inserts t and sets t.ID from the auto-increment key.
func (db *DB) InsertTodoTx(ctx context.Context, q Querier, t *domain.Todo) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	res, err := q.ExecContext(ctx,
		`INSERT INTO todos (owner_id, completed, text) VALUES (?, ?, ?)`,
		t.OwnerID, t.Completed, t.Text,
	)
	if err != nil {
		return errs.NewDB("database.InsertTodoTx", "failed to insert todo", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errs.NewDB("database.InsertTodoTx", "failed to get last insert ID", err)
	}
	t.ID = id
	return nil
}

func (db *DB) UpdateTodoTx(ctx context.Context, q Querier, t domain.Todo) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	if _, err := q.ExecContext(ctx,
		`UPDATE todos SET completed = ?, text = ? WHERE id = ?`,
		t.Completed, t.Text, t.ID,
	); err != nil {
		return errs.NewDB("database.UpdateTodoTx", "failed to update todo", err)
	}
	return nil
}

func (db *DB) DeleteTodoTx(ctx context.Context, q Querier, id int64) error {
	ctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()

	if _, err := q.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return errs.NewDB("database.DeleteTodoTx", "failed to delete todo", err)
	}
	return nil
}

// ListTodosByOwnerCtx returns the owner's todos ordered by id.
func (db *DB) ListTodosByOwnerCtx(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	ctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, completed, text FROM todos WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, errs.NewDB("database.ListTodosByOwnerCtx", "failed to query todos", err)
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0)
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Completed, &t.Text); err != nil {
			return nil, errs.NewDB("database.ListTodosByOwnerCtx", "failed to scan todo row", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("database.ListTodosByOwnerCtx", "row iteration error", err)
	}
	return todos, nil
}
