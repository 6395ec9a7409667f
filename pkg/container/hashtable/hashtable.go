// Package hashtable implements a fixed-capacity, separate-chaining hash
// table built on top of pkg/container/alloc: a fixed array of bucket heads
// plus a shared slot pool, each slot carrying {prev, next} registers that
// thread its bucket's chain. Since Go generics have no Hash trait, callers
// supply a keyBytes function that flattens a key to bytes for hashing.
// Bucket placement uses a fixed FNV-1a hash with no per-instance seed: the
// reference crate's DefaultHasher is itself unseeded/deterministic (its
// randomized variant is a distinct, opt-in RandomState), and a fixed hash
// is also the only choice compatible with Snapshot/FromBytes persistence,
// since a reseeded hash would scatter every key to a different bucket on
// restore.
package hashtable

import (
	"fmt"
	"hash/fnv"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

const (
	fieldPrev = 0
	fieldNext = 1
)

type node[K comparable, V any] struct {
	key   K
	value V
}

// Table is a fixed-capacity separate-chaining hash map from K to V.
type Table[K comparable, V any] struct {
	buckets  []uint32
	a        *alloc.Allocator[node[K, V]]
	keyBytes func(K) []byte
}

// New constructs a Table with numBuckets bucket heads and capacity
// maxSize-1 slots. numBuckets must be even, matching the reference
// implementation's alignment assertion. keyBytes must deterministically
// flatten a key to bytes for hashing.
func New[K comparable, V any](numBuckets uint32, maxSize uint32, keyBytes func(K) []byte) (*Table[K, V], error) {
	if numBuckets == 0 || numBuckets%2 != 0 {
		return nil, fmt.Errorf("hashtable: numBuckets must be a positive even number, got %d", numBuckets)
	}
	a, err := alloc.New[node[K, V]](maxSize, 4)
	if err != nil {
		return nil, fmt.Errorf("hashtable: %w", err)
	}
	return &Table[K, V]{
		buckets:  make([]uint32, numBuckets),
		a:        a,
		keyBytes: keyBytes,
	}, nil
}

// Len returns the number of keys currently stored.
func (tbl *Table[K, V]) Len() int { return tbl.a.Len() }

// Cap returns the maximum number of keys the table can hold.
func (tbl *Table[K, V]) Cap() int { return tbl.a.Cap() }

// Stats returns the table's allocator introspection snapshot.
func (tbl *Table[K, V]) Stats() alloc.Stats { return tbl.a.Stats() }

func (tbl *Table[K, V]) bucketIndex(key K) uint32 {
	h := fnv.New64a()
	h.Write(tbl.keyBytes(key))
	return uint32(h.Sum64() % uint64(len(tbl.buckets)))
}

func (tbl *Table[K, V]) next(n uint32) uint32 { return tbl.a.GetRegister(n, fieldNext) }
func (tbl *Table[K, V]) prev(n uint32) uint32 { return tbl.a.GetRegister(n, fieldPrev) }

// GetAddr returns the slot holding key, or Sentinel.
func (tbl *Table[K, V]) GetAddr(key K) uint32 {
	curr := tbl.buckets[tbl.bucketIndex(key)]
	for curr != alloc.Sentinel {
		if tbl.a.Get(curr).Value.key == key {
			return curr
		}
		curr = tbl.next(curr)
	}
	return alloc.Sentinel
}

// Get returns the value for key, non-mutating.
func (tbl *Table[K, V]) Get(key K) (V, bool) {
	var zero V
	idx := tbl.GetAddr(key)
	if idx == alloc.Sentinel {
		return zero, false
	}
	return tbl.a.Get(idx).Value.value, true
}

// GetMut returns a pointer to the value for key, splicing the matched slot
// to the head of its bucket's chain first (most-recently-used
// self-organization). Iteration order within a bucket after a GetMut call
// is part of the public contract, not an implementation detail: hot keys
// migrate to the front of their chain.
func (tbl *Table[K, V]) GetMut(key K) (*V, bool) {
	bucketIdx := tbl.bucketIndex(key)
	head := tbl.buckets[bucketIdx]
	curr := head
	for curr != alloc.Sentinel {
		if tbl.a.Get(curr).Value.key != key {
			curr = tbl.next(curr)
			continue
		}
		if curr != head {
			prev := tbl.prev(curr)
			next := tbl.next(curr)
			tbl.a.ClearRegister(curr, fieldPrev)
			tbl.a.Connect(prev, next, fieldNext, fieldPrev)
			tbl.a.Connect(curr, head, fieldNext, fieldPrev)
		}
		tbl.buckets[bucketIdx] = curr
		return &tbl.a.Get(curr).Value.value, true
	}
	return nil, false
}

// Contains reports whether key is present.
func (tbl *Table[K, V]) Contains(key K) bool { return tbl.GetAddr(key) != alloc.Sentinel }

// Insert upserts key with value, returning the slot index and false iff the
// table is full and key is new.
func (tbl *Table[K, V]) Insert(key K, value V) (uint32, bool) {
	bucketIdx := tbl.bucketIndex(key)
	head := tbl.buckets[bucketIdx]
	curr := head
	for curr != alloc.Sentinel {
		if tbl.a.Get(curr).Value.key == key {
			tbl.a.Get(curr).Value.value = value
			return curr, true
		}
		curr = tbl.next(curr)
	}
	if tbl.Len() >= tbl.Cap() {
		return alloc.Sentinel, false
	}
	idx, ok := tbl.a.AddNode(node[K, V]{key: key, value: value})
	if !ok {
		return alloc.Sentinel, false
	}
	tbl.buckets[bucketIdx] = idx
	if head != alloc.Sentinel {
		tbl.a.Connect(idx, head, fieldNext, fieldPrev)
	}
	return idx, true
}

// Remove deletes key and returns its former value.
func (tbl *Table[K, V]) Remove(key K) (V, bool) {
	var zero V
	bucketIdx := tbl.bucketIndex(key)
	head := tbl.buckets[bucketIdx]
	curr := head
	for curr != alloc.Sentinel {
		if tbl.a.Get(curr).Value.key != key {
			curr = tbl.next(curr)
			continue
		}
		value := tbl.a.Get(curr).Value.value
		prev := tbl.prev(curr)
		next := tbl.next(curr)
		tbl.a.ClearRegister(curr, fieldPrev)
		tbl.a.ClearRegister(curr, fieldNext)
		tbl.a.RemoveNode(curr)
		if head == curr {
			tbl.buckets[bucketIdx] = next
		}
		tbl.a.Connect(prev, next, fieldNext, fieldPrev)
		return value, true
	}
	return zero, false
}
