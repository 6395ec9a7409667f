// Package deque implements a fixed-capacity, zero-copy-friendly doubly
// linked list built on top of pkg/container/alloc. Each slot carries only
// two registers, prev and next; head/tail are tracked separately.
package deque

import (
	"fmt"

	"github.com/sokoban-go/sokoban/pkg/container/alloc"
)

const (
	fieldPrev = 0
	fieldNext = 1
)

// Deque is a fixed-capacity doubly linked list of T.
type Deque[T any] struct {
	// SequenceNumber increments on every structural mutation (push/pop/
	// Remove). Carried over from the reference implementation: a cheap
	// modification-detection token for callers that want to notice a
	// change without walking the chain.
	SequenceNumber uint64

	head uint32
	tail uint32
	a    *alloc.Allocator[T]
}

// New constructs a Deque with capacity maxSize-1.
func New[T any](maxSize uint32) (*Deque[T], error) {
	a, err := alloc.New[T](maxSize, 2)
	if err != nil {
		return nil, fmt.Errorf("deque: %w", err)
	}
	return &Deque[T]{head: alloc.Sentinel, tail: alloc.Sentinel, a: a}, nil
}

// Len returns the number of elements currently stored.
func (d *Deque[T]) Len() int { return d.a.Len() }

// Cap returns the maximum number of elements the deque can hold.
func (d *Deque[T]) Cap() int { return d.a.Cap() }

// IsEmpty reports whether the deque holds no elements.
func (d *Deque[T]) IsEmpty() bool { return d.Len() == 0 }

// Stats returns the deque's allocator introspection snapshot.
func (d *Deque[T]) Stats() alloc.Stats { return d.a.Stats() }

func (d *Deque[T]) next(i uint32) uint32 { return d.a.GetRegister(i, fieldNext) }
func (d *Deque[T]) prev(i uint32) uint32 { return d.a.GetRegister(i, fieldPrev) }

// Front returns a pointer to the first element, if any.
func (d *Deque[T]) Front() (*T, bool) {
	if d.head == alloc.Sentinel {
		return nil, false
	}
	return &d.a.Get(d.head).Value, true
}

// Back returns a pointer to the last element, if any.
func (d *Deque[T]) Back() (*T, bool) {
	if d.tail == alloc.Sentinel {
		return nil, false
	}
	return &d.a.Get(d.tail).Value, true
}

// PushBack appends value, returning its slot index and false iff the deque
// is full.
func (d *Deque[T]) PushBack(value T) (uint32, bool) {
	idx, ok := d.a.AddNode(value)
	if !ok {
		return alloc.Sentinel, false
	}
	if d.head == alloc.Sentinel {
		d.head = idx
	}
	if d.tail != alloc.Sentinel {
		d.a.Connect(idx, d.tail, fieldPrev, fieldNext)
	}
	d.tail = idx
	d.SequenceNumber++
	return idx, true
}

// PushFront prepends value, returning its slot index and false iff the
// deque is full.
func (d *Deque[T]) PushFront(value T) (uint32, bool) {
	idx, ok := d.a.AddNode(value)
	if !ok {
		return alloc.Sentinel, false
	}
	if d.tail == alloc.Sentinel {
		d.tail = idx
	}
	if d.head != alloc.Sentinel {
		d.a.Connect(idx, d.head, fieldNext, fieldPrev)
	}
	d.head = idx
	d.SequenceNumber++
	return idx, true
}

// PopFront removes and returns the first element, if any.
func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if d.head == alloc.Sentinel {
		return zero, false
	}
	return d.remove(d.head)
}

// PopBack removes and returns the last element, if any.
func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if d.tail == alloc.Sentinel {
		return zero, false
	}
	return d.remove(d.tail)
}

// Remove deletes the element at slot i, returning its value. i must be a
// slot index previously returned by PushBack/PushFront (e.g. captured via
// Iter); removing an already-freed or out-of-range index is undefined,
// matching the reference.
func (d *Deque[T]) Remove(i uint32) (T, bool) {
	if i == alloc.Sentinel {
		var zero T
		return zero, false
	}
	return d.remove(i)
}

func (d *Deque[T]) remove(i uint32) (T, bool) {
	value := d.a.Get(i).Value
	left := d.prev(i)
	right := d.next(i)
	d.a.ClearRegister(i, fieldPrev)
	d.a.ClearRegister(i, fieldNext)
	if left != alloc.Sentinel && right != alloc.Sentinel {
		d.a.Connect(left, right, fieldNext, fieldPrev)
	}
	if i == d.head {
		d.head = right
		d.a.ClearRegister(right, fieldPrev)
	}
	if i == d.tail {
		d.tail = left
		d.a.ClearRegister(left, fieldNext)
	}
	d.a.RemoveNode(i)
	d.SequenceNumber++
	return value, true
}
