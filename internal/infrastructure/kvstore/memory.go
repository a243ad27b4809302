package kvstore

import (
	"bytes"
	"context"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
)

// MemoryBase keeps the key space in a red-black tree. Values are copied on
// the way in and out so callers never share backing arrays with the tree.
type MemoryBase struct {
	mtx  sync.RWMutex
	tree *treemap.Map
}

var _ Base = (*MemoryBase)(nil)

func NewMemoryBase() *MemoryBase {
	return &MemoryBase{tree: treemap.NewWith(byteSliceComparator)}
}

func (m *MemoryBase) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	v, ok := m.tree.Get(key)
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v.([]byte)), nil
}

func (m *MemoryBase) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	it := m.tree.Iterator()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		k := it.Key().([]byte)
		if bytes.Compare(k, prefix) < 0 {
			continue
		}
		if !bytes.HasPrefix(k, prefix) {
			return nil
		}
		if err := fn(bytes.Clone(k), bytes.Clone(it.Value().([]byte))); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryBase) Apply(ctx context.Context, batch []Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for _, mut := range batch {
		if mut.Delete {
			m.tree.Remove(mut.Key)
			continue
		}
		m.tree.Put(bytes.Clone(mut.Key), bytes.Clone(mut.Value))
	}
	return nil
}

func (m *MemoryBase) Name() string { return "memory" }

func (m *MemoryBase) Close() error { return nil }
