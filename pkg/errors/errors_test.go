package errors

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMatching(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		kind   Kind
	}{
		{"input parse", NewInputParse("bulk.Parse", "invalid data", nil), ErrInputParse, KindInputParse},
		{"unauthenticated", NewUnauthenticated("auth.Validate", "no session"), ErrUnauthenticated, KindUnauthenticated},
		{"unauthorized", NewUnauthorized("todos.Toggle", "not owner"), ErrUnauthorized, KindUnauthorized},
		{"not found", NewNotFound("todos.Delete", "todo does not exist"), ErrNotFound, KindNotFound},
		{"authentication", NewAuthentication("auth.SignIn", "bad password"), ErrAuthentication, KindAuthentication},
		{"db", NewDB("repo.Get", "query failed", context.DeadlineExceeded), ErrDB, KindDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.target))
			assert.True(t, Is(tt.err, tt.target))
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestKindsDoNotCrossMatch(t *testing.T) {
	err := NewNotFound("todos.Toggle", "todo does not exist")
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrInputParse))
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := errors.Wrap(NewUnauthorized("todos.Delete", "not owner"), "delete sub-batch")
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestDBErrorUnwrapsCause(t *testing.T) {
	err := NewDB("repo.Update", "exec failed", context.Canceled)
	require.True(t, errors.Is(err, context.Canceled))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "repo.Update", e.Operation())
	assert.Equal(t, "exec failed", e.Message())
	assert.Equal(t, "database", e.Context()["kind"])
	assert.Contains(t, err.Error(), "database: repo.Update: exec failed")
}
