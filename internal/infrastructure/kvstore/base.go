// Package kvstore implements the todo, user and session repositories on an
// ordered key/value base. Transaction scopes are in-memory overlays: a
// nested scope folds its writes into its parent and the top-level scope
// applies them to the base as one atomic batch.
package kvstore

import (
	"bytes"
	"context"
)

// Mutation is one write of an atomic batch.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Base is the committed key space. Get returns (nil, nil) for a missing key.
// Scan visits keys with the given prefix in ascending byte order.
type Base interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error
	Apply(ctx context.Context, batch []Mutation) error
	Name() string
	Close() error
}

func byteSliceComparator(a, b interface{}) int {
	aAsserted, aOk := a.([]byte)
	bAsserted, bOk := b.([]byte)
	if !aOk || !bOk {
		panic("not a byte slice")
	}
	return bytes.Compare(aAsserted, bAsserted)
}
