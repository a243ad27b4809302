package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"todo-bulk-update/internal/domain"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

// ServiceConfig holds the session settings taken from config.
type ServiceConfig struct {
	CookieName   string
	TTL          time.Duration
	SecureCookie bool
}

// AuthenticationService resolves session tokens to users and issues or
// revokes sessions.
type AuthenticationService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	cfg      ServiceConfig
	now      func() time.Time
	log      *logging.ComponentLogger
}

func NewAuthenticationService(users domain.UserRepository, sessions domain.SessionRepository, cfg ServiceConfig, logger *logging.Logger) *AuthenticationService {
	return &AuthenticationService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.WithComponent("auth"),
	}
}

// ValidateSession fails with an unauthenticated error for an empty, unknown
// or expired token, or when the session's user no longer exists. Expired
// sessions are deleted on sight.
func (s *AuthenticationService) ValidateSession(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, errs.NewUnauthenticated("auth.ValidateSession", "Unauthenticated")
	}
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, errs.NewUnauthenticated("auth.ValidateSession", "Unauthenticated")
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, sess.ID); err != nil {
			s.log.Warn("failed to delete expired session", logging.String("error", err.Error()))
		}
		return nil, nil, errs.NewUnauthenticated("auth.ValidateSession", "Session expired")
	}
	user, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, errs.NewUnauthenticated("auth.ValidateSession", "User doesn't exist")
	}
	return user, sess, nil
}

// CreateSession stores a new session for user and returns the cookie that
// carries its token.
func (s *AuthenticationService) CreateSession(ctx context.Context, user domain.User) (domain.Session, domain.Cookie, error) {
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.TTL).UTC(),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return domain.Session{}, domain.Cookie{}, err
	}
	s.log.Debug("session created", logging.String("user_id", user.ID))
	return sess, s.sessionCookie(sess), nil
}

// InvalidateSession deletes the session and returns a cookie that clears it.
func (s *AuthenticationService) InvalidateSession(ctx context.Context, token string) (domain.Cookie, error) {
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return domain.Cookie{}, err
	}
	return s.BlankCookie(), nil
}

func (s *AuthenticationService) GenerateUserID() string {
	return uuid.NewString()
}

// CookieName is the cookie that carries the session token.
func (s *AuthenticationService) CookieName() string { return s.cfg.CookieName }

func (s *AuthenticationService) sessionCookie(sess domain.Session) domain.Cookie {
	return domain.Cookie{
		Name:     s.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.cfg.SecureCookie,
	}
}

func (s *AuthenticationService) BlankCookie() domain.Cookie {
	return domain.Cookie{
		Name:     s.cfg.CookieName,
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.cfg.SecureCookie,
	}
}
