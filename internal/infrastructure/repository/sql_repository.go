package repository

import (
	"context"

	"todo-bulk-update/internal/domain"
	"todo-bulk-update/pkg/database"
)

// SQLRepository is a thin adapter over pkg/database.DB for reads and for the
// user and session tables, which are written outside todo scopes.
type SQLRepository struct {
	db *database.DB
}

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Ensure interface compliance at compile time
var (
	_ domain.TodoQueries       = (*SQLRepository)(nil)
	_ domain.UserRepository    = (*SQLRepository)(nil)
	_ domain.SessionRepository = (*SQLRepository)(nil)
)

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	return r.db.ListTodosByOwnerCtx(ctx, ownerID)
}

func (r *SQLRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.db.GetUserCtx(ctx, id)
}

func (r *SQLRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.db.GetUserByUsernameCtx(ctx, username)
}

func (r *SQLRepository) CreateUser(ctx context.Context, u domain.User) error {
	return r.db.CreateUserCtx(ctx, u)
}

func (r *SQLRepository) CreateSession(ctx context.Context, s domain.Session) error {
	return r.db.CreateSessionCtx(ctx, s)
}

func (r *SQLRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return r.db.GetSessionCtx(ctx, id)
}

func (r *SQLRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.DeleteSessionCtx(ctx, id)
}
