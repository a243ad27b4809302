package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-bulk-update/internal/domain"
	testutil "todo-bulk-update/internal/testing"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

func newSQLFixture(t *testing.T) (*SQLTransactionManager, *SQLRepository) {
	t.Helper()
	dbt := testutil.NewDBTest(t)
	return NewSQLTransactionManager(dbt.DB, logging.Nop()), NewSQLRepository(dbt.DB)
}

func insert(t *testing.T, tm *SQLTransactionManager, owner string, texts ...string) []int64 {
	t.Helper()
	var ids []int64
	err := tm.StartTransaction(context.Background(), nil, func(ctx context.Context, scope domain.Scope) error {
		for _, text := range texts {
			todo := &domain.Todo{OwnerID: owner, Text: text}
			if err := scope.Todos().Insert(ctx, todo); err != nil {
				return err
			}
			ids = append(ids, todo.ID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func load(t *testing.T, tm *SQLTransactionManager, id int64) *domain.Todo {
	t.Helper()
	var todo *domain.Todo
	err := tm.StartTransaction(context.Background(), nil, func(ctx context.Context, scope domain.Scope) error {
		var err error
		todo, err = scope.Todos().Get(ctx, id)
		return err
	})
	require.NoError(t, err)
	return todo
}

func markDone(ctx context.Context, scope domain.Scope, id int64) error {
	todo, err := scope.Todos().Get(ctx, id)
	if err != nil {
		return err
	}
	todo.Completed = true
	return scope.Todos().Update(ctx, *todo)
}

func TestSQLTopLevelRollbackKeepsTransactionUsable(t *testing.T) {
	tm, _ := newSQLFixture(t)
	ids := insert(t, tm, "owner-1", "first", "second")

	err := tm.StartTransaction(context.Background(), nil, func(ctx context.Context, top domain.Scope) error {
		require.NoError(t, markDone(ctx, top, ids[0]))
		require.NoError(t, top.Rollback())

		return tm.StartTransaction(ctx, top, func(ctx context.Context, nested domain.Scope) error {
			return nested.Todos().Delete(ctx, ids[1])
		})
	})
	require.NoError(t, err)

	assert.False(t, load(t, tm, ids[0]).Completed)
	assert.Nil(t, load(t, tm, ids[1]))
}

func TestSQLNestedRollbackKeepsParentWrites(t *testing.T) {
	tm, _ := newSQLFixture(t)
	ids := insert(t, tm, "owner-1", "first", "second")

	err := tm.StartTransaction(context.Background(), nil, func(ctx context.Context, top domain.Scope) error {
		require.NoError(t, markDone(ctx, top, ids[0]))
		return tm.StartTransaction(ctx, top, func(ctx context.Context, nested domain.Scope) error {
			require.NoError(t, nested.Todos().Delete(ctx, ids[1]))
			return nested.Rollback()
		})
	})
	require.NoError(t, err)

	assert.True(t, load(t, tm, ids[0]).Completed)
	assert.NotNil(t, load(t, tm, ids[1]))
}

func TestSQLBodyErrorRollsBackEverything(t *testing.T) {
	tm, _ := newSQLFixture(t)
	ids := insert(t, tm, "owner-1", "first")
	boom := errs.NewNotFound("test", "boom")

	err := tm.StartTransaction(context.Background(), nil, func(ctx context.Context, top domain.Scope) error {
		require.NoError(t, markDone(ctx, top, ids[0]))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, load(t, tm, ids[0]).Completed)
}

func TestSQLClosedScopeRejectsUse(t *testing.T) {
	tm, _ := newSQLFixture(t)
	ids := insert(t, tm, "owner-1", "first")

	var leaked domain.Scope
	require.NoError(t, tm.StartTransaction(context.Background(), nil, func(ctx context.Context, scope domain.Scope) error {
		leaked = scope
		return nil
	}))

	_, err := leaked.Todos().Get(context.Background(), ids[0])
	assert.True(t, errs.Is(err, errs.ErrDB))
	assert.True(t, errs.Is(leaked.Rollback(), errs.ErrDB))
}

func TestSQLConcurrentWritesInOneScope(t *testing.T) {
	tm, repo := newSQLFixture(t)
	ids := insert(t, tm, "owner-1", "a todo", "b todo", "c todo", "d todo")

	err := tm.StartTransaction(context.Background(), nil, func(ctx context.Context, top domain.Scope) error {
		done := make(chan error, len(ids))
		for _, id := range ids {
			go func() { done <- markDone(ctx, top, id) }()
		}
		for range ids {
			if err := <-done; err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	list, err := repo.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, list, len(ids))
	for _, todo := range list {
		assert.True(t, todo.Completed)
	}
}

func TestSQLUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	_, repo := newSQLFixture(t)

	u := domain.User{ID: "3b0d4f1e-0000-4000-8000-000000000001", Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(ctx, u))
	err := repo.CreateUser(ctx, domain.User{ID: "3b0d4f1e-0000-4000-8000-000000000002", Username: "alice", PasswordHash: "hash"})
	assert.True(t, errs.Is(err, errs.ErrAuthentication))

	got, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := repo.GetUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	sess := domain.Session{ID: "session-1", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	require.NoError(t, repo.CreateSession(ctx, sess))
	gotSess, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, gotSess)
	assert.True(t, sess.ExpiresAt.Equal(gotSess.ExpiresAt))

	require.NoError(t, repo.DeleteSession(ctx, sess.ID))
	gotSess, err = repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, gotSess)
}
