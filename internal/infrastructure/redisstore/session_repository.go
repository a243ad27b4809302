// Package redisstore keeps login sessions in Redis so they survive restarts
// and can be shared by several instances.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"todo-bulk-update/internal/domain"
	"todo-bulk-update/pkg/circuit"
	errs "todo-bulk-update/pkg/errors"
)

const keyPrefix = "todo-bulk-update:session:"

func sessionKey(id string) string { return keyPrefix + id }

// Options mirrors the subset of go-redis options exposed through config.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient builds a go-redis client and checks connectivity.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errs.NewDB("redisstore.NewClient", "ping failed", err)
	}
	return rdb, nil
}

// SessionRepo stores each session as a JSON string with a Redis TTL matching
// its expiry, so expired sessions disappear without a sweeper.
type SessionRepo struct {
	rdb     *goredis.Client
	breaker *circuit.Breaker
	now     func() time.Time
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

func NewSessionRepo(rdb *goredis.Client) *SessionRepo {
	return &SessionRepo{rdb: rdb, now: time.Now}
}

// WithBreaker routes every Redis call through b so an outage fails fast.
func (s *SessionRepo) WithBreaker(b *circuit.Breaker) *SessionRepo {
	s.breaker = b
	return s
}

func (s *SessionRepo) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	err := s.breaker.Do(ctx, fn)
	if errs.Is(err, circuit.ErrOpen) {
		return errs.NewDB(op, "redis unavailable", err)
	}
	return err
}

func (s *SessionRepo) CreateSession(ctx context.Context, sess domain.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errs.NewInputParse("redisstore.CreateSession", "session already expired", nil)
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return errs.NewDB("redisstore.CreateSession", "failed to marshal session", err)
	}
	return s.do(ctx, "redisstore.CreateSession", func(ctx context.Context) error {
		if err := s.rdb.Set(ctx, sessionKey(sess.ID), raw, ttl).Err(); err != nil {
			return errs.NewDB("redisstore.CreateSession", "failed to store session", err)
		}
		return nil
	})
}

func (s *SessionRepo) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var raw []byte
	err := s.do(ctx, "redisstore.GetSession", func(ctx context.Context) error {
		var err error
		raw, err = s.rdb.Get(ctx, sessionKey(id)).Bytes()
		if errs.Is(err, goredis.Nil) {
			raw = nil
			return nil
		}
		if err != nil {
			return errs.NewDB("redisstore.GetSession", "failed to load session", err)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, errs.NewDB("redisstore.GetSession", "failed to unmarshal session", err)
	}
	return &sess, nil
}

func (s *SessionRepo) DeleteSession(ctx context.Context, id string) error {
	return s.do(ctx, "redisstore.DeleteSession", func(ctx context.Context) error {
		if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
			return errs.NewDB("redisstore.DeleteSession", "failed to delete session", err)
		}
		return nil
	})
}
