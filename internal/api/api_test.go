package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-bulk-update/internal/auth"
	"todo-bulk-update/internal/bulk"
	"todo-bulk-update/internal/domain"
	"todo-bulk-update/internal/infrastructure/kvstore"
	"todo-bulk-update/internal/todos"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
	"todo-bulk-update/pkg/metrics"
)

type testServer struct {
	handler http.Handler
	http    *metrics.HTTPMetrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := kvstore.Open(context.Background(), kvstore.NewMemoryBase(), logging.Nop())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc := auth.NewAuthenticationService(store, store, auth.ServiceConfig{CookieName: "session", TTL: time.Hour}, logging.Nop())
	cases := todos.NewUseCases(store, logging.Nop())
	httpMetrics := metrics.NewHTTPMetrics(reg)

	router := NewRouter(Handlers{
		Auth:     svc,
		Accounts: auth.NewAccounts(store, svc, 4, logging.Nop()),
		Todos:    todos.NewController(svc, store, cases, logging.Nop()),
		Bulk:     bulk.NewOrchestrator(svc, store, cases, metrics.NewBatchMetrics(reg), logging.Nop()),
	}, httpMetrics, logging.Nop())
	return &testServer{handler: router, http: httpMetrics}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signUp(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/sign-up",
		fmt.Sprintf(`{"username":%q,"password":"secret1","confirm_password":"secret1"}`, username), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decodeTodos(t *testing.T, rec *httptest.ResponseRecorder) []domain.Todo {
	t.Helper()
	var list []domain.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	return list
}

func TestTodoLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "alice")

	rec := s.do(t, http.MethodPost, "/todos", `{"todo":"buy milk, walk dog, call mom"}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeTodos(t, rec)
	require.Len(t, created, 3)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/todos/%d/toggle", created[0].ID), "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled domain.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.True(t, toggled.Completed)

	body := fmt.Sprintf(`{"toggleIds":[%d],"deleteIds":[%d]}`, created[1].ID, created[2].ID)
	rec = s.do(t, http.MethodPost, "/todos/bulk", body, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report bulk.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, metrics.OutcomeCommitted, report.Toggles.Outcome)
	assert.Equal(t, metrics.OutcomeCommitted, report.Deletes.Outcome)

	rec = s.do(t, http.MethodGet, "/todos", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeTodos(t, rec)
	require.Len(t, list, 2)
	assert.True(t, list[0].Completed)
	assert.True(t, list[1].Completed)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.http.Requests.WithLabelValues("/todos/bulk", "200")))
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "alice")
	bob := s.signUp(t, "bobby")

	rec := s.do(t, http.MethodPost, "/todos", `{"todo":"bob's todo"}`, bob)
	require.Equal(t, http.StatusCreated, rec.Code)
	bobs := decodeTodos(t, rec)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		cookie *http.Cookie
		status int
		kind   errs.Kind
	}{
		{"no session", http.MethodGet, "/todos", "", nil, http.StatusUnauthorized, errs.KindUnauthenticated},
		{"bogus session", http.MethodPost, "/todos/bulk", `{"toggleIds":[],"deleteIds":[]}`, &http.Cookie{Name: "session", Value: "bogus"}, http.StatusUnauthorized, errs.KindUnauthenticated},
		{"short todo", http.MethodPost, "/todos", `{"todo":"ab"}`, alice, http.StatusBadRequest, errs.KindInputParse},
		{"malformed bulk", http.MethodPost, "/todos/bulk", `{"toggleIds":"x"}`, alice, http.StatusBadRequest, errs.KindInputParse},
		{"foreign toggle", http.MethodPost, fmt.Sprintf("/todos/%d/toggle", bobs[0].ID), "", alice, http.StatusForbidden, errs.KindUnauthorized},
		{"missing toggle", http.MethodPost, "/todos/777/toggle", "", alice, http.StatusNotFound, errs.KindNotFound},
		{"wrong password", http.MethodPost, "/auth/sign-in", `{"username":"alice","password":"wrong12"}`, nil, http.StatusUnauthorized, errs.KindAuthentication},
		{"taken username", http.MethodPost, "/auth/sign-up", `{"username":"alice","password":"secret1","confirm_password":"secret1"}`, nil, http.StatusUnauthorized, errs.KindAuthentication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body, tt.cookie)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind.String(), body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBulkRollbackIsStillOK(t *testing.T) {
	s := newTestServer(t)
	alice := s.signUp(t, "alice")
	bob := s.signUp(t, "bobby")

	mine := decodeTodos(t, s.do(t, http.MethodPost, "/todos", `{"todo":"first todo, second todo"}`, alice))
	theirs := decodeTodos(t, s.do(t, http.MethodPost, "/todos", `{"todo":"bob todo"}`, bob))

	body := fmt.Sprintf(`{"toggleIds":[%d,%d],"deleteIds":[%d]}`, mine[0].ID, theirs[0].ID, mine[1].ID)
	rec := s.do(t, http.MethodPost, "/todos/bulk", body, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var report bulk.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, metrics.OutcomeRolledBack, report.Toggles.Outcome)
	assert.Equal(t, []int64{theirs[0].ID}, report.Toggles.Failed())

	list := decodeTodos(t, s.do(t, http.MethodGet, "/todos", "", alice))
	require.Len(t, list, 1)
	assert.False(t, list[0].Completed)
}

func TestSignInAndOut(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "alice")

	rec := s.do(t, http.MethodPost, "/auth/sign-in", `{"username":"alice","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	rec = s.do(t, http.MethodPost, "/auth/sign-out", "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	rec = s.do(t, http.MethodGet, "/todos", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/todos", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
