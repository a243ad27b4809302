package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-bulk-update/pkg/logging"
)

func TestCheckAllAggregates(t *testing.T) {
	m := NewManager(logging.Nop())
	m.Register(
		NewFuncChecker("store", func(context.Context) error { return nil }),
		NewFuncChecker("sessions", func(context.Context) error { return errors.New("connection refused") }),
	)

	h := m.CheckAll(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, h.Status)
	require.Len(t, h.Components, 2)
	assert.Equal(t, HealthStatusHealthy, h.Components["store"].Status)
	assert.Equal(t, "connection refused", h.Components["sessions"].Error)
}

func TestCheckAllNoCheckersIsUnknown(t *testing.T) {
	m := NewManager(logging.Nop())
	assert.Equal(t, HealthStatusUnknown, m.CheckAll(context.Background()).Status)
}

func TestCheckAllCachesWithinTTL(t *testing.T) {
	var calls int32
	m := NewManager(logging.Nop())
	m.Register(NewFuncChecker("store", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	m.CheckAll(context.Background())
	m.CheckAll(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	m.ttl = 0
	m.CheckAll(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHandlers(t *testing.T) {
	m := NewManager(logging.Nop())
	m.Register(NewFuncChecker("store", func(context.Context) error { return errors.New("down") }))
	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	tests := []struct {
		path string
		code int
	}{
		{"/health", http.StatusServiceUnavailable},
		{"/health/ready", http.StatusServiceUnavailable},
		{"/health/live", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["status"])
		})
	}
}
