package auth

import (
	"context"

	"todo-bulk-update/internal/constants"
	"todo-bulk-update/internal/domain"
	"todo-bulk-update/internal/domain/specs"
	errs "todo-bulk-update/pkg/errors"
	"todo-bulk-update/pkg/logging"
)

type SignUpInput struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type SignInInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUpResult never carries the password hash.
type SignUpResult struct {
	UserID   string
	Username string
	Session  domain.Session
	Cookie   domain.Cookie
}

// Accounts implements sign-up, sign-in and sign-out on top of the
// authentication service.
type Accounts struct {
	users        domain.UserRepository
	auth         *AuthenticationService
	passwordCost int
	log          *logging.ComponentLogger
}

func NewAccounts(users domain.UserRepository, auth *AuthenticationService, passwordCost int, logger *logging.Logger) *Accounts {
	return &Accounts{users: users, auth: auth, passwordCost: passwordCost, log: logger.WithComponent("accounts")}
}

var (
	validUsername = specs.LengthBetween(constants.UsernameMinLength, constants.UsernameMaxLength)
	validPassword = specs.LengthBetween(constants.PasswordMinLength, constants.PasswordMaxLength)
)

func (a *Accounts) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	if !validUsername.IsSatisfiedBy(ctx, in.Username) ||
		!validPassword.IsSatisfiedBy(ctx, in.Password) ||
		!validPassword.IsSatisfiedBy(ctx, in.ConfirmPassword) {
		return SignUpResult{}, errs.NewInputParse("auth.SignUp", "Invalid data", nil)
	}
	if in.Password != in.ConfirmPassword {
		return SignUpResult{}, errs.NewInputParse("auth.SignUp", "The passwords did not match", nil)
	}

	existing, err := a.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return SignUpResult{}, err
	}
	if existing != nil {
		return SignUpResult{}, errs.NewAuthentication("auth.SignUp", "Username taken")
	}

	hash, err := HashPassword(in.Password, a.passwordCost)
	if err != nil {
		return SignUpResult{}, err
	}
	user := domain.User{ID: a.auth.GenerateUserID(), Username: in.Username, PasswordHash: hash}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return SignUpResult{}, err
	}

	sess, cookie, err := a.auth.CreateSession(ctx, user)
	if err != nil {
		return SignUpResult{}, err
	}
	a.log.Info("user signed up", logging.String("user_id", user.ID))
	return SignUpResult{UserID: user.ID, Username: user.Username, Session: sess, Cookie: cookie}, nil
}

func (a *Accounts) SignIn(ctx context.Context, in SignInInput) (domain.Session, domain.Cookie, error) {
	if !validUsername.IsSatisfiedBy(ctx, in.Username) || !validPassword.IsSatisfiedBy(ctx, in.Password) {
		return domain.Session{}, domain.Cookie{}, errs.NewInputParse("auth.SignIn", "Invalid data", nil)
	}

	user, err := a.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return domain.Session{}, domain.Cookie{}, err
	}
	if user == nil {
		return domain.Session{}, domain.Cookie{}, errs.NewAuthentication("auth.SignIn", "User does not exist")
	}
	if !ComparePassword(user.PasswordHash, in.Password) {
		return domain.Session{}, domain.Cookie{}, errs.NewAuthentication("auth.SignIn", "Incorrect username or password")
	}
	return a.auth.CreateSession(ctx, *user)
}

// SignOut revokes the session and returns a cookie that clears it.
func (a *Accounts) SignOut(ctx context.Context, token string) (domain.Cookie, error) {
	if token == "" {
		return domain.Cookie{}, errs.NewInputParse("auth.SignOut", "Must provide a session ID", nil)
	}
	return a.auth.InvalidateSession(ctx, token)
}
