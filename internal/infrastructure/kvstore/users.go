package kvstore

import (
	"context"
	"encoding/json"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
)

func userKey(id string) []byte           { return []byte("user/" + id) }
func usernameKey(username string) []byte { return []byte("username/" + username) }
func sessionKey(id string) []byte        { return []byte("session/" + id) }

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	found, err := s.getJSON(ctx, "kvstore.GetUser", userKey(id), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	id, err := s.base.Get(ctx, usernameKey(username))
	if err != nil {
		return nil, errs.NewDB("kvstore.GetUserByUsername", "read username index", err)
	}
	if id == nil {
		return nil, nil
	}
	return s.GetUser(ctx, string(id))
}

// CreateUser writes the user and its username index in one batch. It takes
// the writer lock so two sign-ups cannot claim the same username.
func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	s.writer.Lock()
	defer s.writer.Unlock()

	taken, err := s.base.Get(ctx, usernameKey(u.Username))
	if err != nil {
		return errs.NewDB("kvstore.CreateUser", "read username index", err)
	}
	if taken != nil {
		return errs.NewAuthentication("kvstore.CreateUser", "Username taken")
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return errs.NewDB("kvstore.CreateUser", "encode user", err)
	}
	err = s.base.Apply(ctx, []Mutation{
		{Key: userKey(u.ID), Value: raw},
		{Key: usernameKey(u.Username), Value: []byte(u.ID)},
	})
	if err != nil {
		return errs.NewDB("kvstore.CreateUser", "write user", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errs.NewDB("kvstore.CreateSession", "encode session", err)
	}
	if err := s.base.Apply(ctx, []Mutation{{Key: sessionKey(sess.ID), Value: raw}}); err != nil {
		return errs.NewDB("kvstore.CreateSession", "write session", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	found, err := s.getJSON(ctx, "kvstore.GetSession", sessionKey(id), &sess)
	if err != nil || !found {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.base.Apply(ctx, []Mutation{{Key: sessionKey(id), Delete: true}}); err != nil {
		return errs.NewDB("kvstore.DeleteSession", "delete session", err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, op string, key []byte, v any) (bool, error) {
	raw, err := s.base.Get(ctx, key)
	if err != nil {
		return false, errs.NewDB(op, "read", err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errs.NewDB(op, "decode", err)
	}
	return true, nil
}
