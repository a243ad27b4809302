package specs

import (
	"context"
	"unicode/utf8"

	"todo-bulk-update/internal/domain"
)

// OwnedBy holds for todos whose owner is callerID.
func OwnedBy(callerID string) Specification[domain.Todo] {
	return New(func(_ context.Context, t domain.Todo) bool {
		return t.OwnedBy(callerID)
	})
}

// MinLength holds for strings with at least n runes.
func MinLength(n int) Specification[string] {
	return New(func(_ context.Context, s string) bool {
		return utf8.RuneCountInString(s) >= n
	})
}

// MaxLength holds for strings with at most n runes.
func MaxLength(n int) Specification[string] {
	return New(func(_ context.Context, s string) bool {
		return utf8.RuneCountInString(s) <= n
	})
}

// LengthBetween is MinLength(min).And(MaxLength(max)).
func LengthBetween(min, max int) Specification[string] {
	return MinLength(min).And(MaxLength(max))
}
