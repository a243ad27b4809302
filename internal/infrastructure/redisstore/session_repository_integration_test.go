package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
)

func newRepo(t *testing.T) *SessionRepo {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set; skipping redis integration tests")
	}
	rdb, err := NewClient(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionRepo(rdb)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.CreateSession(ctx, sess))

	got, err := repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	ttl, err := repo.rdb.TTL(ctx, sessionKey(sess.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, repo.DeleteSession(ctx, sess.ID))
	got, err = repo.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExpiredSessionRejected(t *testing.T) {
	repo := newRepo(t)

	err := repo.CreateSession(context.Background(), domain.Session{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrInputParse))
}

func TestGetUnknownSession(t *testing.T) {
	repo := newRepo(t)

	got, err := repo.GetSession(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)
}
