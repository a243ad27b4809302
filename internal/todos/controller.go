package todos

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	ValidateSession(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// CreateInput is the body of a create request. Text may hold several todos
// separated by commas.
type CreateInput struct {
	Text string `json:"todo"`
}

// Controller ties a use-case to the caller's session and a transaction.
type Controller struct {
	auth  Authenticator
	tm    domain.TransactionManager
	cases *UseCases
	log   *logging.ComponentLogger
}

func NewController(auth Authenticator, tm domain.TransactionManager, cases *UseCases, logger *logging.Logger) *Controller {
	return &Controller{auth: auth, tm: tm, cases: cases, log: logger.WithComponent("todos_controller")}
}

func (c *Controller) caller(ctx context.Context, op, token string) (string, error) {
	if token == "" {
		return "", errs.NewUnauthenticated(op, "Must be logged in")
	}
	user, _, err := c.auth.ValidateSession(ctx, token)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// CreateTodos creates every comma separated todo in input inside one
// transaction. Any failure rolls the whole set back and is returned.
func (c *Controller) CreateTodos(ctx context.Context, in CreateInput, token string) ([]domain.Todo, error) {
	callerID, err := c.caller(ctx, "todos.CreateTodos", token)
	if err != nil {
		return nil, err
	}
	if in.Text == "" {
		return nil, errs.NewInputParse("todos.CreateTodos", "Invalid data", nil)
	}

	parts := strings.Split(in.Text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	created := make([]domain.Todo, len(parts))
	var createErr error
	err = c.tm.StartTransaction(ctx, nil, func(ctx context.Context, scope domain.Scope) error {
		var g errgroup.Group
		for i, text := range parts {
			g.Go(func() error {
				todo, err := c.cases.Create(ctx, scope, text, callerID)
				if err != nil {
					return err
				}
				created[i] = todo
				return nil
			})
		}
		if createErr = g.Wait(); createErr != nil {
			c.log.WithContext(ctx).Warn("rolling back create", logging.String("kind", errs.KindOf(createErr).String()))
			return scope.Rollback()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if createErr != nil {
		return nil, createErr
	}
	return created, nil
}

// ToggleTodo flips one todo in its own transaction.
func (c *Controller) ToggleTodo(ctx context.Context, id int64, token string) (domain.Todo, error) {
	callerID, err := c.caller(ctx, "todos.ToggleTodo", token)
	if err != nil {
		return domain.Todo{}, err
	}

	var toggled domain.Todo
	err = c.tm.StartTransaction(ctx, nil, func(ctx context.Context, scope domain.Scope) error {
		var toggleErr error
		toggled, toggleErr = c.cases.Toggle(ctx, scope, id, callerID)
		return toggleErr
	})
	if err != nil {
		return domain.Todo{}, err
	}
	return toggled, nil
}

// GetTodosForUser lists the caller's todos.
func (c *Controller) GetTodosForUser(ctx context.Context, token string) ([]domain.Todo, error) {
	callerID, err := c.caller(ctx, "todos.GetTodosForUser", token)
	if err != nil {
		return nil, err
	}
	return c.cases.ListForUser(ctx, callerID)
}
