// Package api exposes the account, todo and bulk operations over HTTP.
// Handlers only translate between HTTP and the controllers.
package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"todo-bulk-update/internal/auth"
	"todo-bulk-update/internal/bulk"
	"todo-bulk-update/internal/todos"
	"todo-bulk-update/pkg/logging"
	"todo-bulk-update/pkg/metrics"
	"todo-bulk-update/pkg/monitoring"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handlers holds the controllers the routes call into.
type Handlers struct {
	Auth     *auth.AuthenticationService
	Accounts *auth.Accounts
	Todos    *todos.Controller
	Bulk     *bulk.Orchestrator
}

type server struct {
	h   Handlers
	log *logging.ComponentLogger
}

// NewRouter builds the public router. httpMetrics may be nil when metrics
// are disabled.
func NewRouter(h Handlers, httpMetrics *metrics.HTTPMetrics, logger *logging.Logger) *mux.Router {
	s := &server{h: h, log: logger.WithComponent("api")}

	router := mux.NewRouter()
	router.Use(requestID)
	if httpMetrics != nil {
		router.Use(monitoring.Middleware(httpMetrics, routeTemplate))
	}
	router.Use(auth.NewSessionMiddleware(h.Auth).Handler)

	router.HandleFunc("/auth/sign-up", s.signUp).Methods(http.MethodPost)
	router.HandleFunc("/auth/sign-in", s.signIn).Methods(http.MethodPost)
	router.HandleFunc("/auth/sign-out", s.signOut).Methods(http.MethodPost)

	router.HandleFunc("/todos", s.listTodos).Methods(http.MethodGet)
	router.HandleFunc("/todos", s.createTodos).Methods(http.MethodPost)
	router.HandleFunc("/todos/bulk", s.bulkUpdate).Methods(http.MethodPost)
	router.HandleFunc("/todos/{id:[0-9]+}/toggle", s.toggleTodo).Methods(http.MethodPost)
	return router
}

// requestID propagates X-Request-ID, minting one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
