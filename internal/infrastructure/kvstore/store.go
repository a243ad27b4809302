package kvstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/maps/treemap"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

// Store owns a Base and hands out transaction scopes over it. Top-level
// transactions are serialized: one writer at a time, like bbolt itself.
type Store struct {
	base   Base
	writer sync.Mutex
	nextID atomic.Int64
	log    *logging.ComponentLogger
}

var (
	_ domain.TransactionManager = (*Store)(nil)
	_ domain.TodoQueries        = (*Store)(nil)
	_ domain.UserRepository     = (*Store)(nil)
	_ domain.SessionRepository  = (*Store)(nil)
)

// Open wraps base and seeds the todo id sequence from the highest stored id.
func Open(ctx context.Context, base Base, logger *logging.Logger) (*Store, error) {
	s := &Store{base: base, log: logger.WithComponent("kvstore")}

	var maxID int64
	err := base.Scan(ctx, todoPrefix, func(key, _ []byte) error {
		id, ok := decodeTodoKey(key)
		if ok && id > maxID {
			maxID = id
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewDB("kvstore.Open", "scan todo ids", err)
	}
	s.nextID.Store(maxID)
	s.log.Info("store opened", logging.String("base", base.Name()), logging.Int64("max_todo_id", maxID))
	return s, nil
}

func (s *Store) Close() error {
	return s.base.Close()
}

// StartTransaction runs fn under a new scope. See domain.TransactionManager.
func (s *Store) StartTransaction(ctx context.Context, parent domain.Scope, fn func(ctx context.Context, scope domain.Scope) error) error {
	if parent == nil {
		return s.startTop(ctx, fn)
	}
	p, ok := parent.(*kvScope)
	if !ok || p.store != s {
		return errs.NewDB("kvstore.StartTransaction", fmt.Sprintf("parent scope %T does not belong to this store", parent), nil)
	}
	if p.isClosed() {
		return errs.NewDB("kvstore.StartTransaction", "parent scope already closed", nil)
	}

	child := newScope(s, p)
	err := fn(ctx, child)
	child.close()
	if err != nil {
		return err
	}
	p.merge(child)
	return nil
}

func (s *Store) startTop(ctx context.Context, fn func(ctx context.Context, scope domain.Scope) error) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	scope := newScope(s, nil)
	err := fn(ctx, scope)
	scope.close()
	if err != nil {
		return err
	}

	batch := scope.mutations()
	if len(batch) == 0 {
		return nil
	}
	if err := s.base.Apply(ctx, batch); err != nil {
		return errs.NewDB("kvstore.StartTransaction", "commit", err)
	}
	s.log.Debug("transaction committed", logging.Int("mutations", len(batch)))
	return nil
}

// overlayEntry is a pending write. A nil value with deleted set hides the
// key from reads through this scope and its children.
type overlayEntry struct {
	value   []byte
	deleted bool
}

// kvScope is a node of the scope tree with its own write overlay.
type kvScope struct {
	store  *Store
	parent *kvScope

	mu     sync.Mutex
	writes *treemap.Map
	closed bool
}

var _ domain.Scope = (*kvScope)(nil)

func newScope(s *Store, parent *kvScope) *kvScope {
	return &kvScope{store: s, parent: parent, writes: treemap.NewWith(byteSliceComparator)}
}

func (sc *kvScope) Todos() domain.TodoRepository { return &kvTodoRepository{scope: sc} }

// Rollback drops every pending write of this scope, including children that
// already folded into it. The scope remains open.
func (sc *kvScope) Rollback() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return errs.NewDB("kvstore.Rollback", "scope already closed", nil)
	}
	sc.writes.Clear()
	return nil
}

func (sc *kvScope) close() {
	sc.mu.Lock()
	sc.closed = true
	sc.mu.Unlock()
}

func (sc *kvScope) isClosed() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.closed
}

// get resolves key through the overlay chain, then the base.
func (sc *kvScope) get(ctx context.Context, key []byte) ([]byte, error) {
	for cur := sc; cur != nil; cur = cur.parent {
		cur.mu.Lock()
		v, ok := cur.writes.Get(key)
		cur.mu.Unlock()
		if ok {
			e := v.(overlayEntry)
			if e.deleted {
				return nil, nil
			}
			return e.value, nil
		}
	}
	return sc.store.base.Get(ctx, key)
}

func (sc *kvScope) put(key, value []byte) error {
	return sc.write(key, overlayEntry{value: value})
}

func (sc *kvScope) del(key []byte) error {
	return sc.write(key, overlayEntry{deleted: true})
}

func (sc *kvScope) write(key []byte, e overlayEntry) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return errs.NewDB("kvstore.write", "scope already closed", nil)
	}
	sc.writes.Put(key, e)
	return nil
}

// merge folds a finished child's overlay into sc.
func (sc *kvScope) merge(child *kvScope) {
	child.mu.Lock()
	defer child.mu.Unlock()
	sc.mu.Lock()
	defer sc.mu.Unlock()

	it := child.writes.Iterator()
	for it.Next() {
		sc.writes.Put(it.Key(), it.Value())
	}
}

// mutations flattens the overlay into an ordered batch.
func (sc *kvScope) mutations() []Mutation {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	batch := make([]Mutation, 0, sc.writes.Size())
	it := sc.writes.Iterator()
	for it.Next() {
		e := it.Value().(overlayEntry)
		batch = append(batch, Mutation{Key: it.Key().([]byte), Value: e.value, Delete: e.deleted})
	}
	return batch
}

// Ping reads one key from the base to prove it is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.base.Get(ctx, todoKey(0)); err != nil {
		return errs.NewDB("kvstore.Ping", "read base", err)
	}
	return nil
}
