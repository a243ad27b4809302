package domain

import "context"

// TodoRepository is the scoped view of the todo table. Get returns (nil, nil)
// for a missing id so use-cases decide the error kind.
type TodoRepository interface {
	Get(ctx context.Context, id int64) (*Todo, error)
	Insert(ctx context.Context, t *Todo) error
	Update(ctx context.Context, t Todo) error
	Delete(ctx context.Context, id int64) error
}

// TodoQueries serves reads outside any transaction.
type TodoQueries interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Todo, error)
}

// UserRepository defines user-related data access. Lookups return (nil, nil)
// when the user does not exist.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, u User) error
}

// SessionRepository stores login sessions. GetSession returns (nil, nil) for
// an unknown id.
type SessionRepository interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}
