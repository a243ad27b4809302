package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"todo-bulk-update/internal/auth"
	"todo-bulk-update/internal/domain"
	"todo-bulk-update/internal/todos"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (s *server) signUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if !s.decode(w, r, &in) {
		return
	}
	res, err := s.h.Accounts.SignUp(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCookie(w, res.Cookie)
	writeJSON(w, http.StatusCreated, userResponse{ID: res.UserID, Username: res.Username})
}

func (s *server) signIn(w http.ResponseWriter, r *http.Request) {
	var in auth.SignInInput
	if !s.decode(w, r, &in) {
		return
	}
	sess, cookie, err := s.h.Accounts.SignIn(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]string{"user_id": sess.UserID})
}

func (s *server) signOut(w http.ResponseWriter, r *http.Request) {
	cookie, err := s.h.Accounts.SignOut(r.Context(), auth.SessionTokenFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCookie(w, cookie)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) listTodos(w http.ResponseWriter, r *http.Request) {
	list, err := s.h.Todos.GetTodosForUser(r.Context(), auth.SessionTokenFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Todo{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) createTodos(w http.ResponseWriter, r *http.Request) {
	var in todos.CreateInput
	if !s.decode(w, r, &in) {
		return
	}
	created, err := s.h.Todos.CreateTodos(r.Context(), in, auth.SessionTokenFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) toggleTodo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, r, errs.NewInputParse("api.toggleTodo", "invalid todo id", err))
		return
	}
	todo, err := s.h.Todos.ToggleTodo(r.Context(), id, auth.SessionTokenFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (s *server) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, errs.NewInputParse("api.bulkUpdate", "could not read body", err))
		return
	}
	report, err := s.h.Bulk.ExecuteJSON(r.Context(), body, auth.SessionTokenFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.writeError(w, r, errs.NewInputParse("api.decode", "Invalid data", err))
		return false
	}
	return true
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindInputParse:
		return http.StatusBadRequest
	case errs.KindUnauthenticated, errs.KindAuthentication:
		return http.StatusUnauthorized
	case errs.KindUnauthorized:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)

	msg := http.StatusText(status)
	var e *errs.Error
	if status != http.StatusInternalServerError && errs.As(err, &e) && e.Msg != "" {
		msg = e.Msg
	}
	if status == http.StatusInternalServerError {
		s.log.WithContext(r.Context()).Error("request failed", err, logging.String("path", r.URL.Path))
	}
	writeJSON(w, status, map[string]string{"error": msg, "kind": kind.String()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setCookie(w http.ResponseWriter, c domain.Cookie) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Expires:  c.Expires,
		MaxAge:   c.MaxAge,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
