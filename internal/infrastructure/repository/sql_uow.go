package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"todo-bulk-update/internal/domain"
	"todo-bulk-update/pkg/database"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

// SQLTransactionManager maps scopes onto one *sql.Tx per top-level
// transaction and a SAVEPOINT per scope.
//
// The top-level scope also sets a savepoint right after BEGIN, so its
// Rollback is ROLLBACK TO SAVEPOINT and the transaction stays open for the
// nested scopes that follow.
type SQLTransactionManager struct {
	db  *database.DB
	log *logging.ComponentLogger
}

func NewSQLTransactionManager(db *database.DB, logger *logging.Logger) *SQLTransactionManager {
	return &SQLTransactionManager{db: db, log: logger.WithComponent("sql-tx")}
}

// Ensure interface conformance
var _ domain.TransactionManager = (*SQLTransactionManager)(nil)

func (m *SQLTransactionManager) StartTransaction(ctx context.Context, parent domain.Scope, fn func(ctx context.Context, scope domain.Scope) error) error {
	if parent == nil {
		return m.startTop(ctx, fn)
	}
	p, ok := parent.(*sqlScope)
	if !ok {
		return errs.NewDB("repository.StartTransaction", fmt.Sprintf("parent scope %T is not a SQL scope", parent), nil)
	}
	return m.startNested(ctx, p, fn)
}

func (m *SQLTransactionManager) startTop(ctx context.Context, fn func(ctx context.Context, scope domain.Scope) error) error {
	tx, err := m.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return errs.NewDB("repository.StartTransaction", "begin tx", err)
	}
	shared := &sharedTx{db: m.db, tx: tx}
	scope := &sqlScope{shared: shared, savepoint: shared.nextSavepoint()}

	if err := shared.exec(ctx, "SAVEPOINT "+scope.savepoint); err != nil {
		_ = tx.Rollback()
		return errs.NewDB("repository.StartTransaction", "set savepoint", err)
	}

	if err := fn(ctx, scope); err != nil {
		scope.close()
		if rbErr := tx.Rollback(); rbErr != nil {
			m.log.Error("rollback after failed body", rbErr)
		}
		return err
	}
	scope.close()
	if err := tx.Commit(); err != nil {
		return errs.NewDB("repository.StartTransaction", "commit", err)
	}
	return nil
}

func (m *SQLTransactionManager) startNested(ctx context.Context, parent *sqlScope, fn func(ctx context.Context, scope domain.Scope) error) error {
	if parent.isClosed() {
		return errs.NewDB("repository.StartTransaction", "parent scope already closed", nil)
	}
	shared := parent.shared
	scope := &sqlScope{shared: shared, savepoint: shared.nextSavepoint(), parent: parent}

	if err := shared.exec(ctx, "SAVEPOINT "+scope.savepoint); err != nil {
		return errs.NewDB("repository.StartTransaction", "set savepoint", err)
	}

	if err := fn(ctx, scope); err != nil {
		scope.close()
		if rbErr := shared.exec(ctx, "ROLLBACK TO SAVEPOINT "+scope.savepoint); rbErr != nil {
			m.log.Error("rollback to savepoint after failed body", rbErr, logging.String("savepoint", scope.savepoint))
		}
		if relErr := shared.exec(ctx, "RELEASE SAVEPOINT "+scope.savepoint); relErr != nil {
			m.log.Error("release savepoint after failed body", relErr, logging.String("savepoint", scope.savepoint))
		}
		return err
	}
	scope.close()
	if err := shared.exec(ctx, "RELEASE SAVEPOINT "+scope.savepoint); err != nil {
		return errs.NewDB("repository.StartTransaction", "release savepoint", err)
	}
	return nil
}

// sharedTx is the transaction behind a scope tree. mu serializes statements
// because a MySQL connection runs one statement at a time.
type sharedTx struct {
	db  *database.DB
	mu  sync.Mutex
	tx  *sql.Tx
	seq int
}

func (s *sharedTx) nextSavepoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := fmt.Sprintf("sp_%d", s.seq)
	s.seq++
	return name
}

func (s *sharedTx) exec(ctx context.Context, stmt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.tx.ExecContext(ctx, stmt)
	return err
}

// sqlScope is one node of the scope tree.
type sqlScope struct {
	shared    *sharedTx
	savepoint string
	parent    *sqlScope

	mu     sync.Mutex
	closed bool
}

var _ domain.Scope = (*sqlScope)(nil)

func (s *sqlScope) Todos() domain.TodoRepository { return &sqlTodoRepository{scope: s} }

// Rollback discards everything written since this scope's savepoint. The
// savepoint itself survives, so the scope keeps working.
func (s *sqlScope) Rollback() error {
	if s.isClosed() {
		return errs.NewDB("repository.Rollback", "scope already closed", nil)
	}
	if err := s.shared.exec(context.Background(), "ROLLBACK TO SAVEPOINT "+s.savepoint); err != nil {
		return errs.NewDB("repository.Rollback", "rollback to savepoint", err)
	}
	return nil
}

func (s *sqlScope) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *sqlScope) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// sqlTodoRepository runs todo statements on the scope's transaction.
type sqlTodoRepository struct {
	scope *sqlScope
}

func (r *sqlTodoRepository) guard(op string) error {
	if r.scope.isClosed() {
		return errs.NewDB(op, "scope already closed", nil)
	}
	return nil
}

func (r *sqlTodoRepository) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	if err := r.guard("repository.Todos.Get"); err != nil {
		return nil, err
	}
	sh := r.scope.shared
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.db.GetTodoTx(ctx, sh.tx, id)
}

func (r *sqlTodoRepository) Insert(ctx context.Context, t *domain.Todo) error {
	if err := r.guard("repository.Todos.Insert"); err != nil {
		return err
	}
	sh := r.scope.shared
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.db.InsertTodoTx(ctx, sh.tx, t)
}

func (r *sqlTodoRepository) Update(ctx context.Context, t domain.Todo) error {
	if err := r.guard("repository.Todos.Update"); err != nil {
		return err
	}
	sh := r.scope.shared
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.db.UpdateTodoTx(ctx, sh.tx, t)
}

func (r *sqlTodoRepository) Delete(ctx context.Context, id int64) error {
	if err := r.guard("repository.Todos.Delete"); err != nil {
		return err
	}
	sh := r.scope.shared
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.db.DeleteTodoTx(ctx, sh.tx, id)
}
