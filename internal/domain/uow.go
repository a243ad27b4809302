package domain

import "context"

// Scope is a transactional boundary handed to use-cases. Writes issued
// through Todos() are provisional until the scope commits, which happens
// implicitly when the body passed to StartTransaction returns nil.
//
// Typical usage:
//
//	err := tm.StartTransaction(ctx, nil, func(ctx context.Context, scope Scope) error {
//		if err := doWork(ctx, scope); err != nil {
//			return scope.Rollback()
//		}
//		return tm.StartTransaction(ctx, scope, nestedWork)
//	})
//
// Rollback discards every write made through the scope so far, including
// nested scopes already folded into it. The scope stays usable afterwards:
// later writes and nested scopes still commit normally.
//
// Implementations serialize access, so a Scope may be shared by the
// goroutines of one sub-batch. It must not outlive its body.
type Scope interface {
	Todos() TodoRepository
	Rollback() error
}

// TransactionManager opens scopes. A nil parent starts a top-level
// transaction; a non-nil parent opens a nested scope (savepoint) that folds
// into the parent on normal return.
//
// If fn returns an error the scope is rolled back and the error is returned
// unchanged. Begin/commit failures are returned as database errors.
type TransactionManager interface {
	StartTransaction(ctx context.Context, parent Scope, fn func(ctx context.Context, scope Scope) error) error
}
