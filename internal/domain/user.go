package domain

import "time"

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// Session is keyed by its opaque token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Cookie is the transport-neutral description of a session cookie. An empty
// Value with MaxAge < 0 clears the cookie on the client.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Expires  time.Time
	MaxAge   int
	HTTPOnly bool
	Secure   bool
}
