// Package hashset implements a fixed-capacity, separate-chaining hash set
// built on top of pkg/container/alloc: the same bucket-head-plus-shared-slot-
// pool structure as pkg/container/hashtable, but the element itself is the
// key, so slots carry no separate value field.
package hashset

import (
	"fmt"
	"hash/fnv"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

const (
	fieldPrev = 0
	fieldNext = 1
)

// Set is a fixed-capacity separate-chaining hash set over elements of type E.
type Set[E comparable] struct {
	buckets   []uint32
	a         *alloc.Allocator[E]
	elemBytes func(E) []byte
}

// New constructs a Set with numBuckets bucket heads and capacity maxSize-1
// elements. numBuckets must be a positive even number, matching the
// reference implementation's alignment assertion. elemBytes must
// deterministically flatten an element to bytes for hashing.
func New[E comparable](numBuckets uint32, maxSize uint32, elemBytes func(E) []byte) (*Set[E], error) {
	if numBuckets == 0 || numBuckets%2 != 0 {
		return nil, fmt.Errorf("hashset: numBuckets must be a positive even number, got %d", numBuckets)
	}
	a, err := alloc.New[E](maxSize, 2)
	if err != nil {
		return nil, fmt.Errorf("hashset: %w", err)
	}
	return &Set[E]{
		buckets:   make([]uint32, numBuckets),
		a:         a,
		elemBytes: elemBytes,
	}, nil
}

// Len returns the number of elements currently stored.
func (s *Set[E]) Len() int { return s.a.Len() }

// Cap returns the maximum number of elements the set can hold.
func (s *Set[E]) Cap() int { return s.a.Cap() }

// Stats returns the set's allocator introspection snapshot.
func (s *Set[E]) Stats() alloc.Stats { return s.a.Stats() }

func (s *Set[E]) bucketIndex(e E) uint32 {
	h := fnv.New64a()
	h.Write(s.elemBytes(e))
	return uint32(h.Sum64() % uint64(len(s.buckets)))
}

func (s *Set[E]) next(n uint32) uint32 { return s.a.GetRegister(n, fieldNext) }
func (s *Set[E]) prev(n uint32) uint32 { return s.a.GetRegister(n, fieldPrev) }

// getAddr returns the slot holding e, or Sentinel.
func (s *Set[E]) getAddr(e E) uint32 {
	curr := s.buckets[s.bucketIndex(e)]
	for curr != alloc.Sentinel {
		if s.a.Get(curr).Value == e {
			return curr
		}
		curr = s.next(curr)
	}
	return alloc.Sentinel
}

// Contains reports whether e is a member of the set.
func (s *Set[E]) Contains(e E) bool { return s.getAddr(e) != alloc.Sentinel }

// Insert adds e to the set, returning false iff the set is full and e is
// new. Inserting an already-present element is a no-op that returns true.
func (s *Set[E]) Insert(e E) bool {
	bucketIdx := s.bucketIndex(e)
	head := s.buckets[bucketIdx]
	curr := head
	for curr != alloc.Sentinel {
		if s.a.Get(curr).Value == e {
			return true
		}
		curr = s.next(curr)
	}
	if s.Len() >= s.Cap() {
		return false
	}
	idx, ok := s.a.AddNode(e)
	if !ok {
		return false
	}
	s.buckets[bucketIdx] = idx
	if head != alloc.Sentinel {
		s.a.Connect(idx, head, fieldNext, fieldPrev)
	}
	return true
}

// Remove deletes e from the set, returning false iff e was absent.
func (s *Set[E]) Remove(e E) bool {
	bucketIdx := s.bucketIndex(e)
	head := s.buckets[bucketIdx]
	curr := head
	for curr != alloc.Sentinel {
		if s.a.Get(curr).Value != e {
			curr = s.next(curr)
			continue
		}
		prev := s.prev(curr)
		next := s.next(curr)
		s.a.ClearRegister(curr, fieldPrev)
		s.a.ClearRegister(curr, fieldNext)
		s.a.RemoveNode(curr)
		if head == curr {
			s.buckets[bucketIdx] = next
		}
		s.a.Connect(prev, next, fieldNext, fieldPrev)
		return true
	}
	return false
}
