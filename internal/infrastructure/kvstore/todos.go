package kvstore

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
)

var todoPrefix = []byte("todo/")

// todoKey is the prefix followed by the big-endian id, so byte order is id order.
func todoKey(id int64) []byte {
	k := make([]byte, len(todoPrefix)+8)
	copy(k, todoPrefix)
	binary.BigEndian.PutUint64(k[len(todoPrefix):], uint64(id))
	return k
}

func decodeTodoKey(key []byte) (int64, bool) {
	if len(key) != len(todoPrefix)+8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(key[len(todoPrefix):])), true
}

type kvTodoRepository struct {
	scope *kvScope
}

func (r *kvTodoRepository) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	raw, err := r.scope.get(ctx, todoKey(id))
	if err != nil {
		return nil, errs.NewDB("kvstore.Todos.Get", "read todo", err)
	}
	if raw == nil {
		return nil, nil
	}
	var t domain.Todo
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, errs.NewDB("kvstore.Todos.Get", "decode todo", err)
	}
	return &t, nil
}

// Insert assigns the next id. Ids of rolled-back inserts are not reused.
func (r *kvTodoRepository) Insert(ctx context.Context, t *domain.Todo) error {
	t.ID = r.scope.store.nextID.Add(1)
	return r.save("kvstore.Todos.Insert", *t)
}

func (r *kvTodoRepository) Update(ctx context.Context, t domain.Todo) error {
	return r.save("kvstore.Todos.Update", t)
}

func (r *kvTodoRepository) Delete(ctx context.Context, id int64) error {
	if err := r.scope.del(todoKey(id)); err != nil {
		return err
	}
	return nil
}

func (r *kvTodoRepository) save(op string, t domain.Todo) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return errs.NewDB(op, "encode todo", err)
	}
	return r.scope.put(todoKey(t.ID), raw)
}

// ListByOwner reads committed todos in id order.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	todos := make([]domain.Todo, 0)
	err := s.base.Scan(ctx, todoPrefix, func(_, value []byte) error {
		var t domain.Todo
		if err := json.Unmarshal(value, &t); err != nil {
			return err
		}
		if t.OwnerID == ownerID {
			todos = append(todos, t)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewDB("kvstore.ListByOwner", "scan todos", err)
	}
	return todos, nil
}
