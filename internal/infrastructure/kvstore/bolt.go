package kvstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"
)

var defaultBucket = []byte("todo-bulk-update")

const mode = 0666

// BoltBase stores the key space in a single bbolt bucket.
type BoltBase struct {
	bbolt *bbolt.DB
}

var _ Base = (*BoltBase)(nil)

func NewBoltBase(path string) (*BoltBase, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	db, err := bbolt.Open(path, mode, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(defaultBucket)
		return errors.WithStack(err)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltBase{bbolt: db}, nil
}

func (s *BoltBase) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var v []byte
	err := s.bbolt.View(func(tx *bbolt.Tx) error {
		// bbolt values are only valid for the life of the transaction.
		v = bytes.Clone(tx.Bucket(defaultBucket).Get(key))
		return nil
	})
	return v, errors.WithStack(err)
}

func (s *BoltBase) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	err := s.bbolt.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(defaultBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(bytes.Clone(k), bytes.Clone(v)); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.WithStack(err)
}

// Apply writes the whole batch in one bbolt read-write transaction.
func (s *BoltBase) Apply(ctx context.Context, batch []Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.bbolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(defaultBucket)
		for _, mut := range batch {
			if mut.Delete {
				if err := b.Delete(mut.Key); err != nil {
					return errors.WithStack(err)
				}
				continue
			}
			if err := b.Put(mut.Key, mut.Value); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	return errors.WithStack(err)
}

func (s *BoltBase) Name() string { return "bolt" }

func (s *BoltBase) Close() error {
	return errors.WithStack(s.bbolt.Close())
}
