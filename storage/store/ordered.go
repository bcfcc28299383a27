package store

import (
	"cmp"

	"github.com/google/btree"
)

// orderedMap is a map with ordered keys backed by a B-tree.
// It is not safe for concurrent use; the engine guards it with its lock.
type orderedMap[K cmp.Ordered, V any] struct {
	tree *btree.BTreeG[entry[K, V]]
}

type entry[K cmp.Ordered, V any] struct {
	key   K
	value V
}

const btreeDegree = 16

func newOrderedMap[K cmp.Ordered, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{
		tree: btree.NewG(btreeDegree, func(a, b entry[K, V]) bool {
			return a.key < b.key
		}),
	}
}

// Put inserts or replaces the value of key.
func (m *orderedMap[K, V]) Put(key K, value V) {
	m.tree.ReplaceOrInsert(entry[K, V]{key: key, value: value})
}

func (m *orderedMap[K, V]) Get(key K) (V, bool) {
	e, ok := m.tree.Get(entry[K, V]{key: key})
	return e.value, ok
}

// Max returns the entry with the largest key.
func (m *orderedMap[K, V]) Max() (K, V, bool) {
	e, ok := m.tree.Max()
	return e.key, e.value, ok
}

func (m *orderedMap[K, V]) Len() int {
	return m.tree.Len()
}

// Ascend calls fn for every entry in ascending key order.
func (m *orderedMap[K, V]) Ascend(fn func(key K, value V)) {
	m.tree.Ascend(func(e entry[K, V]) bool {
		fn(e.key, e.value)
		return true
	})
}

// AscendRange calls fn for every entry with a key in [from, to], in ascending key order.
func (m *orderedMap[K, V]) AscendRange(from, to K, fn func(key K, value V)) {
	if from > to {
		return
	}
	m.tree.AscendGreaterOrEqual(entry[K, V]{key: from}, func(e entry[K, V]) bool {
		if e.key > to {
			return false
		}
		fn(e.key, e.value)
		return true
	})
}
