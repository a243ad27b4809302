package circuit

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-bulk-update/pkg/logging"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	b := New(Config{Name: "redis", OpenFor: time.Minute, MaxConsecFailures: 2}, m, logging.Nop())
	now := time.Now()
	b.now = func() time.Time { return now }

	boom := errors.New("connection refused")
	fail := func(context.Context) error { return boom }
	ok := func(context.Context) error { return nil }

	assert.ErrorIs(t, b.Do(context.Background(), fail), boom)
	assert.Equal(t, Closed, b.State())
	assert.ErrorIs(t, b.Do(context.Background(), fail), boom)
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Do(context.Background(), func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.State.WithLabelValues("redis")))

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Do(context.Background(), ok))
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.State.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calls.WithLabelValues("redis", "rejected")))
}

func TestFailedProbeReopens(t *testing.T) {
	b := New(Config{Name: "redis", OpenFor: time.Minute, MaxConsecFailures: 1}, nil, logging.Nop())
	now := time.Now()
	b.now = func() time.Time { return now }
	boom := errors.New("timeout")

	assert.ErrorIs(t, b.Do(context.Background(), func(context.Context) error { return boom }), boom)
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, b.Do(context.Background(), func(context.Context) error { return boom }), boom)
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Do(context.Background(), func(context.Context) error { return nil }), ErrOpen)
}

func TestOperationTimeoutApplied(t *testing.T) {
	b := New(Config{Name: "redis", OperationTimeout: 10 * time.Millisecond}, nil, logging.Nop())
	err := b.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
