package auth

import (
	"golang.org/x/crypto/bcrypt"

	errs "todo-bulk-update/pkg/errors"
)

// HashPassword hashes pw with bcrypt at the given cost.
func HashPassword(pw string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", errs.NewInputParse("auth.HashPassword", "cannot hash password", err)
	}
	return string(h), nil
}

// ComparePassword reports whether pw matches the bcrypt hash.
func ComparePassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
