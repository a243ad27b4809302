// Package todos holds the single-item todo use-cases and the controllers
// that wrap them with authentication, validation and a transaction.
package todos

import (
	"context"

	"todo-bulk-update/internal/constants"
	"todo-bulk-update/internal/domain"
	"todo-bulk-update/internal/domain/specs"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

var validText = specs.MinLength(constants.TodoTextMinLength)

// UseCases implements the per-item business rules. Every method runs under
// the scope it is given and never opens one itself.
type UseCases struct {
	queries domain.TodoQueries
	log     *logging.ComponentLogger
}

func NewUseCases(queries domain.TodoQueries, logger *logging.Logger) *UseCases {
	return &UseCases{queries: queries, log: logger.WithComponent("todos")}
}

// load fetches id through scope and checks that callerID owns it.
func (u *UseCases) load(ctx context.Context, op string, scope domain.Scope, id int64, callerID string) (*domain.Todo, error) {
	todo, err := scope.Todos().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, errs.NewNotFound(op, "Todo does not exist")
	}
	if !specs.OwnedBy(callerID).IsSatisfiedBy(ctx, *todo) {
		return nil, errs.NewUnauthorized(op, "Cannot modify todo. Reason: unauthorized")
	}
	return todo, nil
}

// Toggle flips the completion flag and returns the updated todo.
func (u *UseCases) Toggle(ctx context.Context, scope domain.Scope, id int64, callerID string) (domain.Todo, error) {
	todo, err := u.load(ctx, "todos.Toggle", scope, id, callerID)
	if err != nil {
		return domain.Todo{}, err
	}
	todo.Completed = !todo.Completed
	if err := scope.Todos().Update(ctx, *todo); err != nil {
		return domain.Todo{}, err
	}
	u.log.Debug("todo toggled", logging.Int64("todo_id", id), logging.Bool("completed", todo.Completed))
	return *todo, nil
}

// Delete removes the todo and returns its state before removal.
func (u *UseCases) Delete(ctx context.Context, scope domain.Scope, id int64, callerID string) (domain.Todo, error) {
	todo, err := u.load(ctx, "todos.Delete", scope, id, callerID)
	if err != nil {
		return domain.Todo{}, err
	}
	if err := scope.Todos().Delete(ctx, id); err != nil {
		return domain.Todo{}, err
	}
	u.log.Debug("todo deleted", logging.Int64("todo_id", id))
	return *todo, nil
}

// Create inserts a new, not yet completed todo owned by callerID.
func (u *UseCases) Create(ctx context.Context, scope domain.Scope, text, callerID string) (domain.Todo, error) {
	if !validText.IsSatisfiedBy(ctx, text) {
		return domain.Todo{}, errs.NewInputParse("todos.Create", "Todo must be at least 4 chars", nil)
	}
	todo := &domain.Todo{OwnerID: callerID, Text: text}
	if err := scope.Todos().Insert(ctx, todo); err != nil {
		return domain.Todo{}, err
	}
	return *todo, nil
}

// ListForUser returns callerID's committed todos ordered by id.
func (u *UseCases) ListForUser(ctx context.Context, callerID string) ([]domain.Todo, error) {
	return u.queries.ListByOwner(ctx, callerID)
}
