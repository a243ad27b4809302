package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"todo-bulk-update/pkg/metrics"
)

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	h := Middleware(m, func(*http.Request) string { return "/todos" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/todos", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/todos", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/todos", "418")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}
